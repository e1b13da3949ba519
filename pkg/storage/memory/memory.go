// Package memory provides an in-memory implementation of
// transport.ResourceStore for testing and lightweight deployments. Resources
// are lost when the process restarts. Optional LRU eviction limits memory
// usage.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/rhuss/agentgate/pkg/api"
	"github.com/rhuss/agentgate/pkg/debug"
	"github.com/rhuss/agentgate/pkg/storage"
	"github.com/rhuss/agentgate/pkg/transport"
)

// key identifies a resource within the store. IDs are unique per owner, so
// two owners may hold the same ID without seeing each other.
type key struct {
	kind  api.Kind
	owner string
	id    string
}

// entry holds a stored resource and its position in the LRU list.
type entry struct {
	res     *api.Resource
	lruElem *list.Element
}

// Store is an in-memory ResourceStore with optional LRU eviction.
type Store struct {
	mu      sync.Mutex
	entries map[key]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
}

// Ensure Store implements transport.ResourceStore at compile time.
var _ transport.ResourceStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently used entry is evicted
// when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[key]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// Create persists a resource in memory. The owner constraint in ctx, when
// present, is recorded as the resource owner.
func (s *Store) Create(ctx context.Context, r *api.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := r.Clone()
	if owner := storage.GetOwner(ctx); owner != "" {
		stored.Owner = owner
	}

	k := key{kind: r.Kind, owner: stored.Owner, id: r.ID}
	if _, exists := s.entries[k]; exists {
		return storage.ErrConflict
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	s.entries[k] = &entry{
		res:     stored,
		lruElem: s.lruList.PushFront(k),
	}
	return nil
}

// Get retrieves a resource. Scoped by owner when an owner is present in
// the context.
func (s *Store) Get(ctx context.Context, kind api.Kind, id string) (*api.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, e, err := s.lookup(ctx, kind, id, "")
	if err != nil {
		return nil, err
	}
	s.lruList.MoveToFront(e.lruElem)
	return e.res.Clone(), nil
}

// Update replaces the metadata, values and updated_at of a visible
// resource. ID, kind, owner and created_at are never changed.
func (s *Store) Update(ctx context.Context, r *api.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, e, err := s.lookup(ctx, r.Kind, r.ID, r.Owner)
	if err != nil {
		return err
	}

	updated := r.Clone()
	updated.Owner = e.res.Owner
	updated.CreatedAt = e.res.CreatedAt
	e.res = updated
	s.lruList.MoveToFront(e.lruElem)
	return nil
}

// Delete removes a visible resource.
func (s *Store) Delete(ctx context.Context, kind api.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, e, err := s.lookup(ctx, kind, id, "")
	if err != nil {
		return err
	}
	s.lruList.Remove(e.lruElem)
	delete(s.entries, k)
	return nil
}

// Search returns visible resources of the kind whose metadata matches,
// newest first. The second result reports whether more matches exist
// beyond the page.
func (s *Store) Search(ctx context.Context, kind api.Kind, opts transport.SearchOptions) ([]*api.Resource, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []*api.Resource
	for k, e := range s.entries {
		if k.kind != kind {
			continue
		}
		if !storage.Visible(ctx, e.res.Owner) {
			continue
		}
		if !storage.MatchesMetadata(e.res.Metadata, opts.Metadata) {
			continue
		}
		matches = append(matches, e.res)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	if opts.Offset >= len(matches) {
		return nil, false, nil
	}
	matches = matches[opts.Offset:]

	hasMore := false
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
		hasMore = true
	}

	out := make([]*api.Resource, len(matches))
	for i, r := range matches {
		out[i] = r.Clone()
	}
	debug.Log(debug.Storage, "memory search", "kind", kind, "results", len(out), "has_more", hasMore)
	return out, hasMore, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored resources.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// lookup returns the entry for a visible resource. Under an owner
// constraint only that owner's entry matches. Unrestricted callers get the
// entry owned by hint, then the unowned one, then the oldest match.
// Must be called with s.mu held.
func (s *Store) lookup(ctx context.Context, kind api.Kind, id, hint string) (key, *entry, error) {
	if owner := storage.GetOwner(ctx); owner != "" {
		k := key{kind: kind, owner: owner, id: id}
		if e, ok := s.entries[k]; ok {
			return k, e, nil
		}
		return key{}, nil, storage.ErrNotFound
	}

	for _, owner := range []string{hint, ""} {
		k := key{kind: kind, owner: owner, id: id}
		if e, ok := s.entries[k]; ok {
			return k, e, nil
		}
	}

	var (
		found  key
		oldest *entry
	)
	for k, e := range s.entries {
		if k.kind != kind || k.id != id {
			continue
		}
		if oldest == nil || e.res.CreatedAt.Before(oldest.res.CreatedAt) {
			found, oldest = k, e
		}
	}
	if oldest == nil {
		return key{}, nil, storage.ErrNotFound
	}
	return found, oldest, nil
}

// evictOldest removes the least recently used entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	k := back.Value.(key)
	s.lruList.Remove(back)
	delete(s.entries, k)
	debug.Log(debug.Storage, "evicted resource", "kind", k.kind, "id", k.id)
}
