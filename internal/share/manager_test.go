// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package share

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicohaager/lectoria/internal/access"
	"github.com/chicohaager/lectoria/pkg/errutil"
)

// fakeDirectory maps document IDs to owners.
type fakeDirectory struct {
	owners map[string]string
}

func (d *fakeDirectory) GetOwnerID(_ context.Context, documentID string) (string, error) {
	owner, ok := d.owners[documentID]
	if !ok {
		return "", ErrDocumentNotFound
	}
	return owner, nil
}

var (
	ownerSub    = access.Subject{UserID: "owner-1", Role: access.RoleUser}
	adminSub    = access.Subject{UserID: "admin-1", Role: access.RoleAdmin}
	strangerSub = access.Subject{UserID: "stranger-1", Role: access.RoleUser}
)

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	docs := &fakeDirectory{owners: map[string]string{"doc-1": "owner-1"}}
	m, err := NewManager(store, docs, nil)
	require.NoError(t, err)
	return m, store
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	docs := &fakeDirectory{}

	_, err := NewManager(nil, docs, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SHARE_MANAGER_INVALID")

	_, err = NewManager(NewMemoryStore(), nil, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SHARE_MANAGER_INVALID")
}

func TestManager_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can share their document", func(t *testing.T) {
		m, _ := newTestManager(t)
		link, err := m.Create(ctx, ownerSub, "doc-1", 0)
		require.NoError(t, err)
		assert.Equal(t, "doc-1", link.DocumentID)
		assert.Equal(t, "owner-1", link.CreatedBy)
		assert.Nil(t, link.ExpiresAt)
	})

	t.Run("admin can share anyone's document", func(t *testing.T) {
		m, _ := newTestManager(t)
		link, err := m.Create(ctx, adminSub, "doc-1", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", link.CreatedBy)
		assert.NotNil(t, link.ExpiresAt)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		m, _ := newTestManager(t)
		_, err := m.Create(ctx, strangerSub, "doc-1", 0)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown document", func(t *testing.T) {
		m, _ := newTestManager(t)
		_, err := m.Create(ctx, ownerSub, "doc-404", 0)
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestManager_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("usable token resolves", func(t *testing.T) {
		m, _ := newTestManager(t)
		link, err := m.Create(ctx, ownerSub, "doc-1", 0)
		require.NoError(t, err)

		got, err := m.Resolve(ctx, link.Token)
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
	})

	t.Run("unknown, revoked and expired collapse to the same error", func(t *testing.T) {
		m, _ := newTestManager(t)

		revoked, err := m.Create(ctx, ownerSub, "doc-1", 0)
		require.NoError(t, err)
		require.NoError(t, m.Deactivate(ctx, ownerSub, revoked.Token))

		expired, err := m.Create(ctx, ownerSub, "doc-1", time.Hour)
		require.NoError(t, err)
		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		for name, token := range map[string]string{
			"unknown": "never-existed",
			"revoked": revoked.Token,
			"expired": expired.Token,
		} {
			_, err := m.Resolve(ctx, token)
			assert.ErrorIs(t, err, ErrNotFound, "token state %s must resolve to ErrNotFound", name)
		}
	})
}

func TestManager_RecordAccess(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	link, err := m.Create(ctx, ownerSub, "doc-1", 0)
	require.NoError(t, err)

	first, err := m.RecordAccess(ctx, link.Token)
	require.NoError(t, err)
	second, err := m.RecordAccess(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	_, err = m.RecordAccess(ctx, "never-existed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("creator can revoke", func(t *testing.T) {
		m, _ := newTestManager(t)
		link, err := m.Create(ctx, ownerSub, "doc-1", 0)
		require.NoError(t, err)

		require.NoError(t, m.Deactivate(ctx, ownerSub, link.Token))
		_, err = m.Resolve(ctx, link.Token)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("admin can revoke anyone's link", func(t *testing.T) {
		m, _ := newTestManager(t)
		link, err := m.Create(ctx, ownerSub, "doc-1", 0)
		require.NoError(t, err)

		assert.NoError(t, m.Deactivate(ctx, adminSub, link.Token))
	})

	t.Run("non-creator is forbidden", func(t *testing.T) {
		m, _ := newTestManager(t)
		link, err := m.Create(ctx, ownerSub, "doc-1", 0)
		require.NoError(t, err)

		assert.ErrorIs(t, m.Deactivate(ctx, strangerSub, link.Token), ErrForbidden)
	})

	t.Run("revoking twice is idempotent", func(t *testing.T) {
		m, _ := newTestManager(t)
		link, err := m.Create(ctx, ownerSub, "doc-1", 0)
		require.NoError(t, err)

		require.NoError(t, m.Deactivate(ctx, ownerSub, link.Token))
		assert.NoError(t, m.Deactivate(ctx, ownerSub, link.Token))
	})

	t.Run("unknown token", func(t *testing.T) {
		m, _ := newTestManager(t)
		assert.ErrorIs(t, m.Deactivate(ctx, ownerSub, "never-existed"), ErrNotFound)
	})
}

func TestManager_ListForDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("returns only usable links", func(t *testing.T) {
		m, _ := newTestManager(t)

		usable, err := m.Create(ctx, ownerSub, "doc-1", 0)
		require.NoError(t, err)
		revoked, err := m.Create(ctx, ownerSub, "doc-1", 0)
		require.NoError(t, err)
		require.NoError(t, m.Deactivate(ctx, ownerSub, revoked.Token))
		_, err = m.Create(ctx, ownerSub, "doc-1", time.Hour)
		require.NoError(t, err)

		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		links, err := m.ListForDocument(ctx, ownerSub, "doc-1")
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, usable.ID, links[0].ID)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		m, _ := newTestManager(t)
		_, err := m.ListForDocument(ctx, strangerSub, "doc-1")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown document", func(t *testing.T) {
		m, _ := newTestManager(t)
		_, err := m.ListForDocument(ctx, ownerSub, "doc-404")
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}
