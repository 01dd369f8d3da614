// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package share

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. It backs tests and single-binary
// trial runs; production deployments use the postgres implementation.
type MemoryStore struct {
	mu      sync.Mutex
	byToken map[string]*Link
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byToken: make(map[string]*Link),
		now:     time.Now,
	}
}

// Create stores a new link.
func (s *MemoryStore) Create(_ context.Context, link *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *link
	s.byToken[link.Token] = &c
	return nil
}

// GetByToken retrieves a link by its token.
func (s *MemoryStore) GetByToken(_ context.Context, token string) (*Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	c := *link
	return &c, nil
}

// ListByDocument retrieves all links for a document, newest first.
func (s *MemoryStore) ListByDocument(_ context.Context, documentID string) ([]*Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var links []*Link
	for _, link := range s.byToken {
		if link.DocumentID == documentID {
			c := *link
			links = append(links, &c)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

// Deactivate sets active=false for the link with the given token.
func (s *MemoryStore) Deactivate(_ context.Context, token string) (*Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	link.Active = false
	c := *link
	return &c, nil
}

// IncrementAccess atomically adds one to the access counter of a usable
// link. The store mutex makes check and increment one step, matching
// the server-evaluated update of the postgres implementation.
func (s *MemoryStore) IncrementAccess(_ context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byToken[token]
	if !ok || !link.UsableAt(s.now()) {
		return 0, ErrNotFound
	}
	link.AccessCount++
	return link.AccessCount, nil
}

// DeleteByDocument removes all links of a document, mirroring the
// ON DELETE CASCADE behavior of the postgres schema.
func (s *MemoryStore) DeleteByDocument(_ context.Context, documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, link := range s.byToken {
		if link.DocumentID == documentID {
			delete(s.byToken, token)
		}
	}
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)
