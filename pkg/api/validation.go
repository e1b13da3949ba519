package api

import "fmt"

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxMetadataKeys    int
	MaxKeyLength       int
	DefaultSearchLimit int
	MaxSearchLimit     int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxMetadataKeys:    64,
		MaxKeyLength:       256,
		DefaultSearchLimit: 10,
		MaxSearchLimit:     1000,
	}
}

// ValidateCreate checks a CreateResourceRequest. It returns an *APIError
// describing the first validation failure, or nil if the request is valid.
func ValidateCreate(req *CreateResourceRequest, cfg ValidationConfig) *APIError {
	if req.ID != "" && !ValidateResourceID(req.ID) {
		return NewInvalidRequestError("id", "id must be a UUID")
	}
	if err := validateMetadata(req.Metadata, cfg); err != nil {
		return err
	}
	return validateKeys("values", req.Values, cfg)
}

// ValidateUpdate checks an UpdateResourceRequest.
func ValidateUpdate(req *UpdateResourceRequest, cfg ValidationConfig) *APIError {
	if req.Metadata == nil && req.Values == nil {
		return NewInvalidRequestError("", "update must set metadata or values")
	}
	if err := validateMetadata(req.Metadata, cfg); err != nil {
		return err
	}
	return validateKeys("values", req.Values, cfg)
}

// ValidateSearch checks a SearchRequest and applies the default limit when
// none is given.
func ValidateSearch(req *SearchRequest, cfg ValidationConfig) *APIError {
	if req.Limit < 0 {
		return NewInvalidRequestError("limit", "limit must not be negative")
	}
	if req.Offset < 0 {
		return NewInvalidRequestError("offset", "offset must not be negative")
	}
	if req.Limit == 0 {
		req.Limit = cfg.DefaultSearchLimit
	}
	if cfg.MaxSearchLimit > 0 && req.Limit > cfg.MaxSearchLimit {
		return NewInvalidRequestError("limit",
			fmt.Sprintf("limit exceeds maximum of %d", cfg.MaxSearchLimit))
	}
	return validateMetadata(req.Metadata, cfg)
}

func validateMetadata(md map[string]any, cfg ValidationConfig) *APIError {
	if cfg.MaxMetadataKeys > 0 && len(md) > cfg.MaxMetadataKeys {
		return NewInvalidRequestError("metadata",
			fmt.Sprintf("metadata exceeds maximum of %d keys", cfg.MaxMetadataKeys))
	}
	return validateKeys("metadata", md, cfg)
}

func validateKeys(param string, m map[string]any, cfg ValidationConfig) *APIError {
	for k := range m {
		if k == "" {
			return NewInvalidRequestError(param, "keys must not be empty")
		}
		if cfg.MaxKeyLength > 0 && len(k) > cfg.MaxKeyLength {
			return NewInvalidRequestError(param,
				fmt.Sprintf("key exceeds maximum length of %d", cfg.MaxKeyLength))
		}
	}
	return nil
}
