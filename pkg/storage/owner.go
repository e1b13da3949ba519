package storage

import (
	"context"
	"maps"
)

// ownerKey is a private type for the owner context key, preventing
// collisions with other packages.
type ownerKey struct{}

// SetOwner injects the owner constraint into the context.
func SetOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// GetOwner extracts the owner constraint from the context.
// Returns an empty string if no constraint is set (unrestricted).
func GetOwner(ctx context.Context) string {
	if v, ok := ctx.Value(ownerKey{}).(string); ok {
		return v
	}
	return ""
}

// Visible reports whether a resource owned by resourceOwner may be seen
// under the owner constraint in ctx.
func Visible(ctx context.Context, resourceOwner string) bool {
	owner := GetOwner(ctx)
	return owner == "" || owner == resourceOwner
}

// MatchesMetadata reports whether every entry in filter is present in md
// with an equal value. Values are compared after JSON-style normalization
// of numbers, so 1 and 1.0 match.
func MatchesMetadata(md, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := md[k]
		if !ok || !equalValue(got, want) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string, bool, nil:
		return a == b
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && len(av) == len(bv) && maps.EqualFunc(av, bv, equalValue)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
