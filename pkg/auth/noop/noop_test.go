package noop

import (
	"context"
	"testing"

	"github.com/rhuss/agentgate/pkg/auth"
)

func TestAuthenticate_IgnoresHeaders(t *testing.T) {
	s := New()

	tests := []struct {
		name    string
		headers auth.Headers
	}{
		{"nil headers", nil},
		{"empty headers", auth.Headers{}},
		{"garbage bearer", auth.Headers{"authorization": "Bearer not-a-jwt"}},
		{"wrong scheme", auth.Headers{"Authorization": "Basic dXNlcjpwYXNz"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := s.Authenticate(context.Background(), tc.headers)
			if err != nil {
				t.Fatalf("Authenticate() error: %v", err)
			}
			if id.Subject != "anonymous" {
				t.Errorf("Subject = %q, want %q", id.Subject, "anonymous")
			}
			if !id.IsAuthenticated {
				t.Error("IsAuthenticated = false, want true")
			}
		})
	}
}

func TestAuthorize_AlwaysUnrestricted(t *testing.T) {
	s := New()

	identities := []*auth.Identity{
		nil,
		{Subject: "alice", IsAuthenticated: true},
		{Subject: ""},
	}

	for _, id := range identities {
		op := &auth.Operation{
			Resource: "threads",
			Action:   auth.ActionCreate,
			Metadata: map[string]any{"owner": "mallory", "title": "x"},
		}
		f, err := s.Authorize(context.Background(), id, op)
		if err != nil {
			t.Fatalf("Authorize() error: %v", err)
		}
		if !f.Unrestricted() {
			t.Errorf("filter = %+v, want unrestricted", f)
		}
		if op.Metadata["owner"] != "mallory" || len(op.Metadata) != 2 {
			t.Errorf("metadata modified: %v", op.Metadata)
		}
	}

	if f, _ := s.Authorize(context.Background(), nil, nil); !f.Unrestricted() {
		t.Error("nil operation: filter should be unrestricted")
	}
}

func TestMode(t *testing.T) {
	if got := New().Mode(); got != "noop" {
		t.Errorf("Mode() = %q, want %q", got, "noop")
	}
}
