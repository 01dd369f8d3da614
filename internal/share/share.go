// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

// Package share implements the public share-link lifecycle: creation,
// expiry, revocation and access accounting.
//
// A share link is an unauthenticated capability: whoever holds the
// token can read one document. Tokens are unguessable (256 bits of
// CSPRNG output) and carry no structure; validity lives entirely in the
// store. Expired and revoked links are indistinguishable from links
// that never existed - resolution collapses all three to ErrNotFound.
package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ShareTokenBytes is the raw entropy per token. 32 bytes base64url
// encodes to 43 characters.
const ShareTokenBytes = 32

// ErrNotFound is the single public failure of share resolution. It
// covers unknown, expired and revoked tokens alike so callers outside
// the process cannot probe which of the three happened.
var ErrNotFound = oops.Code("SHARE_NOT_FOUND").Errorf("share link not found")

// Link is a public access token for one document.
type Link struct {
	ID          string
	DocumentID  string
	Token       string
	CreatedBy   string
	CreatedAt   time.Time
	ExpiresAt   *time.Time // nil means no expiry
	Active      bool
	AccessCount int64
}

// NewLink creates a validated Link with a fresh ULID and token.
// ttl <= 0 means the link never expires.
func NewLink(documentID, createdBy string, ttl time.Duration) (*Link, error) {
	if documentID == "" {
		return nil, oops.Code("SHARE_INVALID_DOCUMENT").Errorf("document ID cannot be empty")
	}
	if createdBy == "" {
		return nil, oops.Code("SHARE_INVALID_CREATOR").Errorf("creator ID cannot be empty")
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	link := &Link{
		ID:         ulid.Make().String(),
		DocumentID: documentID,
		Token:      token,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		Active:     true,
	}
	if ttl > 0 {
		expiry := now.Add(ttl)
		link.ExpiresAt = &expiry
	}
	return link, nil
}

// GenerateToken creates a URL-safe share token from ShareTokenBytes of
// CSPRNG output. The token is independent of the document ID and of any
// sequence; knowing one token reveals nothing about others.
func GenerateToken() (string, error) {
	raw := make([]byte, ShareTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", oops.Code("SHARE_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", ShareTokenBytes).
			Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// IsExpiredAt returns true if the link would be expired at the given time.
func (l *Link) IsExpiredAt(t time.Time) bool {
	return l.ExpiresAt != nil && t.After(*l.ExpiresAt)
}

// UsableAt returns true if the link grants access at the given time:
// it is active and not past its expiry.
func (l *Link) UsableAt(t time.Time) bool {
	return l.Active && !l.IsExpiredAt(t)
}

// Store manages share-link persistence. Implementations map absent rows
// to ErrNotFound. The access counter must be incremented store-side in
// a single atomic update, never read-modify-write in the application.
type Store interface {
	// Create stores a new link.
	Create(ctx context.Context, link *Link) error

	// GetByToken retrieves a link by its token, regardless of state.
	// State filtering is the manager's job.
	GetByToken(ctx context.Context, token string) (*Link, error)

	// ListByDocument retrieves all links for a document, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]*Link, error)

	// Deactivate sets active=false for the link with the given token.
	// Returns the updated link, or ErrNotFound.
	Deactivate(ctx context.Context, token string) (*Link, error)

	// IncrementAccess atomically adds one to the access counter of an
	// active link and returns the new count.
	IncrementAccess(ctx context.Context, token string) (int64, error)
}
