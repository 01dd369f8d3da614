// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package share

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLink(t *testing.T, documentID string, ttl time.Duration) *Link {
	t.Helper()
	link, err := NewLink(documentID, "creator-1", ttl)
	require.NoError(t, err)
	return link
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	link := mustLink(t, "doc-1", 0)
	require.NoError(t, store.Create(ctx, link))

	got, err := store.GetByToken(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)

	// The store hands out copies, not aliases.
	got.Active = false
	again, err := store.GetByToken(ctx, link.Token)
	require.NoError(t, err)
	assert.True(t, again.Active)
}

func TestMemoryStore_GetByToken_Unknown(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.GetByToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListByDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	older := mustLink(t, "doc-1", 0)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := mustLink(t, "doc-1", 0)
	other := mustLink(t, "doc-2", 0)

	for _, l := range []*Link{older, newer, other} {
		require.NoError(t, store.Create(ctx, l))
	}

	links, err := store.ListByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, newer.ID, links[0].ID, "newest first")
	assert.Equal(t, older.ID, links[1].ID)
}

func TestMemoryStore_Deactivate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	link := mustLink(t, "doc-1", 0)
	require.NoError(t, store.Create(ctx, link))

	got, err := store.Deactivate(ctx, link.Token)
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = store.Deactivate(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_IncrementAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("counts usable links", func(t *testing.T) {
		store := NewMemoryStore()
		link := mustLink(t, "doc-1", 0)
		require.NoError(t, store.Create(ctx, link))

		count, err := store.IncrementAccess(ctx, link.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("revoked link is not counted", func(t *testing.T) {
		store := NewMemoryStore()
		link := mustLink(t, "doc-1", 0)
		require.NoError(t, store.Create(ctx, link))
		_, err := store.Deactivate(ctx, link.Token)
		require.NoError(t, err)

		_, err = store.IncrementAccess(ctx, link.Token)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired link is not counted", func(t *testing.T) {
		store := NewMemoryStore()
		link := mustLink(t, "doc-1", time.Hour)
		require.NoError(t, store.Create(ctx, link))

		store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := store.IncrementAccess(ctx, link.Token)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent increments are exact", func(t *testing.T) {
		store := NewMemoryStore()
		link := mustLink(t, "doc-1", 0)
		require.NoError(t, store.Create(ctx, link))

		const fetchers = 32
		var wg sync.WaitGroup
		for i := 0; i < fetchers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.IncrementAccess(ctx, link.Token)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := store.GetByToken(ctx, link.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(fetchers), got.AccessCount)
	})
}

func TestMemoryStore_DeleteByDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	doomed := mustLink(t, "doc-1", 0)
	kept := mustLink(t, "doc-2", 0)
	require.NoError(t, store.Create(ctx, doomed))
	require.NoError(t, store.Create(ctx, kept))

	store.DeleteByDocument(ctx, "doc-1")

	_, err := store.GetByToken(ctx, doomed.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetByToken(ctx, kept.Token)
	assert.NoError(t, err)
}
