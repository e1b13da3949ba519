package jwt

import (
	"encoding/json"
	"strconv"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/agentgate/pkg/auth"
)

// claimExtractor reads one candidate value from the claims. It returns
// false when the claim is absent or empty.
type claimExtractor func(jwtlib.MapClaims) (string, bool)

// claim extracts the named claim as a string.
func claim(name string) claimExtractor {
	return func(c jwtlib.MapClaims) (string, bool) {
		s := claimString(c[name])
		return s, s != ""
	}
}

// firstOf returns the value of the first candidate that matches.
func firstOf(c jwtlib.MapClaims, candidates []claimExtractor) string {
	for _, extract := range candidates {
		if v, ok := extract(c); ok {
			return v
		}
	}
	return ""
}

var (
	subjectClaims = []claimExtractor{claim("user_id"), claim("sub"), claim("id")}
	nameClaims    = []claimExtractor{claim("name"), claim("username"), claim("email")}
)

// metadataClaims maps identity metadata keys to token claim names.
var metadataClaims = []struct {
	key   string
	claim string
}{
	{"provider", "provider"},
	{"org_id", "orgId"},
	{"company_id", "companyId"},
	{"family_id", "familyId"},
}

// defaultPermissions are granted to every verified token.
var defaultPermissions = []string{"read", "write"}

// identityFromClaims builds the verified identity from token claims.
func identityFromClaims(c jwtlib.MapClaims) (*auth.Identity, error) {
	subject := firstOf(c, subjectClaims)
	if subject == "" {
		return nil, auth.IdentityMissing()
	}

	displayName := firstOf(c, nameClaims)
	if displayName == "" {
		displayName = subject
	}

	metadata := make(map[string]string, len(metadataClaims))
	for _, m := range metadataClaims {
		if v := claimString(c[m.claim]); v != "" {
			metadata[m.key] = v
		}
	}

	return &auth.Identity{
		Subject:         subject,
		DisplayName:     displayName,
		IsAuthenticated: true,
		Email:           claimString(c["email"]),
		Permissions:     append([]string(nil), defaultPermissions...),
		Metadata:        metadata,
	}, nil
}

// claimString formats a claim value as a string. Numeric identifiers are
// rendered in decimal; other non-string types yield an empty string.
func claimString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	}
	return ""
}
