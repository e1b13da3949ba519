package transport

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"time"

	"github.com/rhuss/agentgate/pkg/api"
	"github.com/rhuss/agentgate/pkg/auth"
	"github.com/rhuss/agentgate/pkg/debug"
	"github.com/rhuss/agentgate/pkg/observability"
	"github.com/rhuss/agentgate/pkg/storage"
)

// ResourceStore persists protected resources. Every method except Create
// must honor the owner constraint carried in the context (storage.GetOwner):
// a resource owned by someone else behaves as if it did not exist.
type ResourceStore interface {
	// Create persists a new resource. Returns storage.ErrConflict if the
	// ID is already taken for the kind.
	Create(ctx context.Context, r *api.Resource) error

	// Get retrieves a resource. Returns storage.ErrNotFound if it does not
	// exist or is not visible to the owner in ctx.
	Get(ctx context.Context, kind api.Kind, id string) (*api.Resource, error)

	// Update replaces the metadata, values and updated_at of an existing
	// resource. Returns storage.ErrNotFound under the same rules as Get.
	Update(ctx context.Context, r *api.Resource) error

	// Delete removes a resource. Returns storage.ErrNotFound under the
	// same rules as Get.
	Delete(ctx context.Context, kind api.Kind, id string) error

	// Search returns resources of a kind whose metadata matches every
	// entry in opts.Metadata, newest first.
	Search(ctx context.Context, kind api.Kind, opts SearchOptions) ([]*api.Resource, bool, error)

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// SearchOptions controls a Search call.
type SearchOptions struct {
	Metadata map[string]any
	Limit    int
	Offset   int
}

// Service runs authorization in front of a ResourceStore.
type Service struct {
	strategy   auth.Strategy
	store      ResourceStore
	validation api.ValidationConfig
	now        func() time.Time
}

// NewService creates a resource service for the given strategy and store.
func NewService(strategy auth.Strategy, store ResourceStore) *Service {
	return &Service{
		strategy:   strategy,
		store:      store,
		validation: api.DefaultValidationConfig(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Store returns the underlying store.
func (s *Service) Store() ResourceStore {
	return s.store
}

// Strategy returns the auth strategy the service authorizes with.
func (s *Service) Strategy() auth.Strategy {
	return s.strategy
}

// authorize runs the strategy's Authorizer for the caller in ctx and
// returns a context carrying the owner constraint.
func (s *Service) authorize(ctx context.Context, op *auth.Operation) (context.Context, auth.Filter, *api.APIError) {
	mode := s.strategy.Mode()
	identity := auth.IdentityFromContext(ctx)

	filter, err := s.strategy.Authorize(ctx, identity, op)
	if err != nil {
		ae := auth.AsError(err)
		observability.AuthorizationsTotal.WithLabelValues(mode, op.Resource, string(op.Action), observability.OutcomeDenied).Inc()
		if ae.Status() >= 500 {
			slog.Error("authorization error",
				"request_id", RequestIDFromContext(ctx),
				"resource", op.Resource,
				"action", op.Action,
				"error", ae.Err,
			)
		}
		return ctx, auth.Filter{}, APIErrorFromAuth(ae)
	}

	observability.AuthorizationsTotal.WithLabelValues(mode, op.Resource, string(op.Action), observability.OutcomeAllowed).Inc()
	debug.Log(debug.Auth, "authorized",
		"resource", op.Resource,
		"action", op.Action,
		"owner", filter.Owner,
	)
	return storage.SetOwner(ctx, filter.Owner), filter, nil
}

// Create authorizes and persists a new resource. The stored metadata is the
// request metadata plus whatever the authorizer stamped into it.
func (s *Service) Create(ctx context.Context, kind api.Kind, req *api.CreateResourceRequest) (*api.Resource, error) {
	if apiErr := api.ValidateCreate(req, s.validation); apiErr != nil {
		return nil, apiErr
	}

	op := &auth.Operation{Resource: string(kind), Action: auth.ActionCreate, Metadata: cloneMetadata(req.Metadata)}
	ctx, filter, apiErr := s.authorize(ctx, op)
	if apiErr != nil {
		return nil, apiErr
	}

	id := req.ID
	if id == "" {
		id = api.NewResourceID()
	}
	now := s.now()
	res := &api.Resource{
		ID:        id,
		Kind:      kind,
		Owner:     filter.Owner,
		Metadata:  op.Metadata,
		Values:    maps.Clone(req.Values),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, res); err != nil {
		return nil, storeError(ctx, kind, id, err)
	}
	return res, nil
}

// Get authorizes and returns a single resource.
func (s *Service) Get(ctx context.Context, kind api.Kind, id string) (*api.Resource, error) {
	ctx, _, apiErr := s.authorize(ctx, &auth.Operation{Resource: string(kind), Action: auth.ActionRead})
	if apiErr != nil {
		return nil, apiErr
	}

	res, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, storeError(ctx, kind, id, err)
	}
	return res, nil
}

// Update authorizes and applies a partial update. Metadata keys are merged
// into the stored metadata after the authorizer's stamp has been applied to
// the patch, so the owner key always ends up naming the caller.
func (s *Service) Update(ctx context.Context, kind api.Kind, id string, req *api.UpdateResourceRequest) (*api.Resource, error) {
	if apiErr := api.ValidateUpdate(req, s.validation); apiErr != nil {
		return nil, apiErr
	}

	op := &auth.Operation{Resource: string(kind), Action: auth.ActionUpdate, Metadata: cloneMetadata(req.Metadata)}
	ctx, _, apiErr := s.authorize(ctx, op)
	if apiErr != nil {
		return nil, apiErr
	}

	existing, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, storeError(ctx, kind, id, err)
	}

	updated := existing.Clone()
	if updated.Metadata == nil {
		updated.Metadata = make(map[string]any, len(op.Metadata))
	}
	maps.Copy(updated.Metadata, op.Metadata)
	if req.Values != nil {
		updated.Values = maps.Clone(req.Values)
	}
	updated.UpdatedAt = s.now()

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, storeError(ctx, kind, id, err)
	}
	return updated, nil
}

// Delete authorizes and removes a resource.
func (s *Service) Delete(ctx context.Context, kind api.Kind, id string) error {
	ctx, _, apiErr := s.authorize(ctx, &auth.Operation{Resource: string(kind), Action: auth.ActionDelete})
	if apiErr != nil {
		return apiErr
	}

	if err := s.store.Delete(ctx, kind, id); err != nil {
		return storeError(ctx, kind, id, err)
	}
	return nil
}

// Search authorizes and returns matching resources. The authorizer's stamp
// becomes part of the metadata filter.
func (s *Service) Search(ctx context.Context, kind api.Kind, req *api.SearchRequest) (*api.ResourceList, error) {
	if apiErr := api.ValidateSearch(req, s.validation); apiErr != nil {
		return nil, apiErr
	}

	op := &auth.Operation{Resource: string(kind), Action: auth.ActionSearch, Metadata: cloneMetadata(req.Metadata)}
	ctx, _, apiErr := s.authorize(ctx, op)
	if apiErr != nil {
		return nil, apiErr
	}

	results, hasMore, err := s.store.Search(ctx, kind, SearchOptions{
		Metadata: op.Metadata,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return nil, storeError(ctx, kind, "", err)
	}
	if results == nil {
		results = []*api.Resource{}
	}
	return &api.ResourceList{Object: "list", Data: results, HasMore: hasMore}, nil
}

// Me describes the authenticated caller.
func (s *Service) Me(ctx context.Context) (*api.MeResponse, error) {
	id := auth.IdentityFromContext(ctx)
	if id == nil {
		return nil, APIErrorFromAuth(auth.IdentityMissing())
	}
	return &api.MeResponse{
		Subject:         id.Subject,
		DisplayName:     id.DisplayName,
		IsAuthenticated: id.IsAuthenticated,
		Email:           id.Email,
		Permissions:     id.Permissions,
		Metadata:        id.Metadata,
		Mode:            s.strategy.Mode(),
	}, nil
}

// storeError maps storage errors to API errors. Unclassified errors are
// logged and reported without detail.
func storeError(ctx context.Context, kind api.Kind, id string, err error) *api.APIError {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return api.NewResourceNotFound(kind, id)
	case errors.Is(err, storage.ErrConflict):
		return api.NewResourceConflict(kind, id)
	case errors.As(err, &apiErr):
		return apiErr
	}
	slog.Error("storage error",
		"request_id", RequestIDFromContext(ctx),
		"kind", kind,
		"id", id,
		"error", err,
	)
	return api.NewServerError("storage error")
}

// cloneMetadata copies md so the authorizer's stamp never writes into the
// caller's request. A nil map becomes an empty one.
func cloneMetadata(md map[string]any) map[string]any {
	if md == nil {
		return make(map[string]any)
	}
	return maps.Clone(md)
}
