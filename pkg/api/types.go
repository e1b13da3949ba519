package api

import (
	"maps"
	"strings"
	"time"
)

// Kind names a protected resource collection.
type Kind string

const (
	KindAssistant Kind = "assistants"
	KindThread    Kind = "threads"
	KindRun       Kind = "runs"
	KindCron      Kind = "crons"
)

// Kinds lists every resource kind served by the gateway.
var Kinds = []Kind{KindAssistant, KindThread, KindRun, KindCron}

// Valid reports whether k is a known resource kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAssistant, KindThread, KindRun, KindCron:
		return true
	}
	return false
}

// Singular returns the kind name without its plural suffix, as used in
// messages: "threads" becomes "thread".
func (k Kind) Singular() string {
	return strings.TrimSuffix(string(k), "s")
}

// Resource is a stored document. Owner is empty for resources created
// without an owner constraint.
type Resource struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Owner     string         `json:"owner,omitempty"`
	Metadata  map[string]any `json:"metadata"`
	Values    map[string]any `json:"values,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Clone returns a copy of r whose maps can be modified independently.
// Nested values inside the maps are shared.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	c := *r
	c.Metadata = maps.Clone(r.Metadata)
	c.Values = maps.Clone(r.Values)
	return &c
}

// CreateResourceRequest is the body of POST /v1/{kind}. ID is optional and
// generated when empty.
type CreateResourceRequest struct {
	ID       string         `json:"id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Values   map[string]any `json:"values,omitempty"`
}

// UpdateResourceRequest is the body of PATCH /v1/{kind}/{id}. Metadata keys
// are merged into the stored metadata; Values replaces the stored values
// when non-nil.
type UpdateResourceRequest struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	Values   map[string]any `json:"values,omitempty"`
}

// SearchRequest is the body of POST /v1/{kind}/search. Metadata entries
// must all match by equality.
type SearchRequest struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// ResourceList is a page of search results.
type ResourceList struct {
	Object  string      `json:"object"`
	Data    []*Resource `json:"data"`
	HasMore bool        `json:"has_more"`
}

// MeResponse describes the caller as resolved by the active auth mode.
type MeResponse struct {
	Subject         string            `json:"identity"`
	DisplayName     string            `json:"display_name"`
	IsAuthenticated bool              `json:"is_authenticated"`
	Email           string            `json:"email,omitempty"`
	Permissions     []string          `json:"permissions,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Mode            string            `json:"auth_mode"`
}
