package storage

import (
	"context"
	"testing"
)

func TestSetGetOwner(t *testing.T) {
	ctx := context.Background()

	// No owner set: empty string.
	if got := GetOwner(ctx); got != "" {
		t.Errorf("GetOwner(empty ctx) = %q, want %q", got, "")
	}

	ctx = SetOwner(ctx, "alice")
	if got := GetOwner(ctx); got != "alice" {
		t.Errorf("GetOwner = %q, want %q", got, "alice")
	}

	ctx = SetOwner(ctx, "bob")
	if got := GetOwner(ctx); got != "bob" {
		t.Errorf("GetOwner = %q, want %q", got, "bob")
	}
}

func TestGetOwner_NoCollision(t *testing.T) {
	ctx := context.WithValue(context.Background(), "owner", "wrong")
	if got := GetOwner(ctx); got != "" {
		t.Errorf("GetOwner should not match string key, got %q", got)
	}
}

func TestVisible(t *testing.T) {
	unrestricted := context.Background()
	if !Visible(unrestricted, "anyone") || !Visible(unrestricted, "") {
		t.Error("unrestricted context should see everything")
	}

	scoped := SetOwner(context.Background(), "alice")
	if !Visible(scoped, "alice") {
		t.Error("owner should see own resource")
	}
	if Visible(scoped, "bob") || Visible(scoped, "") {
		t.Error("owner should not see foreign or unowned resources")
	}
}

func TestMatchesMetadata(t *testing.T) {
	md := map[string]any{
		"owner":  "alice",
		"count":  float64(3),
		"active": true,
		"nested": map[string]any{"a": "b"},
		"tags":   []any{"x", "y"},
	}
	tests := []struct {
		name   string
		filter map[string]any
		want   bool
	}{
		{name: "empty filter", filter: nil, want: true},
		{name: "string match", filter: map[string]any{"owner": "alice"}, want: true},
		{name: "string mismatch", filter: map[string]any{"owner": "bob"}, want: false},
		{name: "int matches float", filter: map[string]any{"count": 3}, want: true},
		{name: "number mismatch", filter: map[string]any{"count": 4}, want: false},
		{name: "bool", filter: map[string]any{"active": true}, want: true},
		{name: "missing key", filter: map[string]any{"missing": "x"}, want: false},
		{name: "nested map", filter: map[string]any{"nested": map[string]any{"a": "b"}}, want: true},
		{name: "nested map mismatch", filter: map[string]any{"nested": map[string]any{"a": "c"}}, want: false},
		{name: "slice", filter: map[string]any{"tags": []any{"x", "y"}}, want: true},
		{name: "slice order", filter: map[string]any{"tags": []any{"y", "x"}}, want: false},
		{name: "type mismatch", filter: map[string]any{"count": "3"}, want: false},
		{name: "all must match", filter: map[string]any{"owner": "alice", "active": false}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesMetadata(md, tt.filter); got != tt.want {
				t.Errorf("MatchesMetadata(%v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}
