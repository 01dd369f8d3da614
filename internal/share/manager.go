// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package share

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/chicohaager/lectoria/internal/access"
	"github.com/chicohaager/lectoria/internal/auth"
)

// ErrForbidden is returned when an authenticated requester lacks the
// rights for a share management operation. Public resolution never
// returns it; only ErrNotFound leaves the process on that path.
var ErrForbidden = errors.New("forbidden")

// ErrDocumentNotFound is returned when creating or listing links for a
// document that does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentDirectory is the ownership lookup the manager needs from the
// document collaborator.
type DocumentDirectory interface {
	// GetOwnerID returns the uploader of a document, or
	// ErrDocumentNotFound.
	GetOwnerID(ctx context.Context, documentID string) (string, error)
}

// Manager is the share-link state machine. Lifecycle:
//
//	active (no expiry | pending expiry) --time passes--> expired (terminal)
//	active (*) --Deactivate--> revoked (terminal)
//
// Expiry is detected lazily on read; nothing sweeps the table. Expired
// and revoked links are both publicly indistinguishable from unknown
// tokens. Links are soft-deactivated, never hard-deleted, except via
// the document's ON DELETE CASCADE.
type Manager struct {
	links Store
	docs  DocumentDirectory
	audit *auth.AuditLog
	now   func() time.Time
}

// NewManager creates a Manager. The store and document directory are
// required; a nil audit log defaults to the default slog logger.
func NewManager(links Store, docs DocumentDirectory, audit *auth.AuditLog) (*Manager, error) {
	if links == nil {
		return nil, oops.Code("SHARE_MANAGER_INVALID").Errorf("share store is required")
	}
	if docs == nil {
		return nil, oops.Code("SHARE_MANAGER_INVALID").Errorf("document directory is required")
	}
	if audit == nil {
		audit = auth.NewAuditLog(nil)
	}
	return &Manager{links: links, docs: docs, audit: audit, now: time.Now}, nil
}

// Create mints a share link for a document. The requester must be the
// document's owner or an admin. ttl <= 0 means the link never expires.
func (m *Manager) Create(ctx context.Context, sub access.Subject, documentID string, ttl time.Duration) (*Link, error) {
	ownerID, err := m.docs.GetOwnerID(ctx, documentID)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, oops.Code("SHARE_CREATE_FAILED").
			With("operation", "get document owner").
			With("document_id", documentID).
			Wrap(err)
	}

	if !access.CanAccess(sub, access.ActionShareCreate, ownerID) {
		return nil, ErrForbidden
	}

	link, err := NewLink(documentID, sub.UserID, ttl)
	if err != nil {
		return nil, err
	}

	if err := m.links.Create(ctx, link); err != nil {
		return nil, oops.Code("SHARE_CREATE_FAILED").
			With("operation", "persist link").
			With("document_id", documentID).
			Wrap(err)
	}

	m.audit.ShareCreated(ctx, sub.UserID, documentID, link.ID)
	return link, nil
}

// Resolve is the sole public read. It returns the link for a usable
// token, and the identical ErrNotFound for tokens that never existed,
// have expired, or were revoked.
func (m *Manager) Resolve(ctx context.Context, token string) (*Link, error) {
	prefix := auth.TokenPrefix(token)

	link, err := m.links.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.audit.ShareResolved(ctx, prefix, "not_found")
			return nil, ErrNotFound
		}
		return nil, oops.Code("SHARE_RESOLVE_FAILED").
			With("operation", "get link by token").
			Wrap(err)
	}

	if !link.UsableAt(m.now()) {
		// Collapse expired and revoked into the not-found shape.
		m.audit.ShareResolved(ctx, prefix, "not_found")
		return nil, ErrNotFound
	}

	m.audit.ShareResolved(ctx, prefix, "ok")
	return link, nil
}

// RecordAccess counts one successful public fetch through the link.
// The increment is a single store-side atomic update; concurrent
// fetches never lose counts. Unusable tokens return ErrNotFound.
func (m *Manager) RecordAccess(ctx context.Context, token string) (int64, error) {
	count, err := m.links.IncrementAccess(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, oops.Code("SHARE_RECORD_ACCESS_FAILED").
			With("operation", "increment access count").
			Wrap(err)
	}
	return count, nil
}

// Deactivate revokes a link. Only the link's creator or an admin may do
// this; the document's current owner does not inherit the right after a
// transfer. Revoking an already-revoked link is an idempotent success.
func (m *Manager) Deactivate(ctx context.Context, sub access.Subject, token string) error {
	link, err := m.links.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return oops.Code("SHARE_DEACTIVATE_FAILED").
			With("operation", "get link by token").
			Wrap(err)
	}

	if !access.CanAccess(sub, access.ActionShareRevoke, link.CreatedBy) {
		return ErrForbidden
	}

	if !link.Active {
		// Already revoked; nothing to do.
		return nil
	}

	if _, err := m.links.Deactivate(ctx, token); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Raced with a cascade delete; treat as revoked.
			return nil
		}
		return oops.Code("SHARE_DEACTIVATE_FAILED").
			With("operation", "deactivate link").
			Wrap(err)
	}

	m.audit.ShareRevoked(ctx, sub.UserID, link.ID)
	return nil
}

// ListForDocument returns the usable links of a document. The requester
// must be the document's owner or an admin.
func (m *Manager) ListForDocument(ctx context.Context, sub access.Subject, documentID string) ([]*Link, error) {
	ownerID, err := m.docs.GetOwnerID(ctx, documentID)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, oops.Code("SHARE_LIST_FAILED").
			With("operation", "get document owner").
			With("document_id", documentID).
			Wrap(err)
	}

	if !access.CanAccess(sub, access.ActionShareList, ownerID) {
		return nil, ErrForbidden
	}

	links, err := m.links.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, oops.Code("SHARE_LIST_FAILED").
			With("operation", "list links").
			With("document_id", documentID).
			Wrap(err)
	}

	now := m.now()
	usable := make([]*Link, 0, len(links))
	for _, link := range links {
		if link.UsableAt(now) {
			usable = append(usable, link)
		}
	}
	return usable, nil
}
