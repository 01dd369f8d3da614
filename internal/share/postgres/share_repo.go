// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

// Package postgres implements the share-link store on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/chicohaager/lectoria/internal/share"
	"github.com/chicohaager/lectoria/internal/store"
)

const linkColumns = `id, document_id, token, created_by, created_at,
	       expires_at, active, access_count`

// ShareRepository implements share.Store using PostgreSQL.
type ShareRepository struct {
	pool store.Querier
}

// NewShareRepository creates a new ShareRepository.
func NewShareRepository(pool store.Querier) *ShareRepository {
	return &ShareRepository{pool: pool}
}

// Create stores a new link.
func (r *ShareRepository) Create(ctx context.Context, link *share.Link) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO share_links (
			id, document_id, token, created_by, created_at,
			expires_at, active, access_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		link.ID,
		link.DocumentID,
		link.Token,
		link.CreatedBy,
		link.CreatedAt,
		link.ExpiresAt,
		link.Active,
		link.AccessCount,
	)
	if err != nil {
		return oops.Code("SHARE_CREATE_FAILED").
			With("operation", "insert share link").
			With("document_id", link.DocumentID).
			Wrap(err)
	}
	return nil
}

// GetByToken retrieves a link by its token, regardless of state.
func (r *ShareRepository) GetByToken(ctx context.Context, token string) (*share.Link, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+linkColumns+`
		FROM share_links
		WHERE token = $1
	`, token)

	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, share.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("SHARE_GET_BY_TOKEN_FAILED").
			With("operation", "get share link by token").
			Wrap(err)
	}
	return link, nil
}

// ListByDocument retrieves all links for a document, newest first.
func (r *ShareRepository) ListByDocument(ctx context.Context, documentID string) ([]*share.Link, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+linkColumns+`
		FROM share_links
		WHERE document_id = $1
		ORDER BY created_at DESC
	`, documentID)
	if err != nil {
		return nil, oops.Code("SHARE_LIST_FAILED").
			With("operation", "list share links").
			With("document_id", documentID).
			Wrap(err)
	}
	defer rows.Close()

	var links []*share.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, oops.Code("SHARE_LIST_FAILED").
				With("operation", "scan share link row").
				Wrap(err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("SHARE_LIST_FAILED").
			With("operation", "iterate share links").
			Wrap(err)
	}
	return links, nil
}

// Deactivate sets active=false for the link with the given token.
func (r *ShareRepository) Deactivate(ctx context.Context, token string) (*share.Link, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE share_links SET active = FALSE
		WHERE token = $1
		RETURNING `+linkColumns+`
	`, token)

	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, share.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("SHARE_DEACTIVATE_FAILED").
			With("operation", "deactivate share link").
			Wrap(err)
	}
	return link, nil
}

// IncrementAccess atomically adds one to the access counter. The
// increment, the active check and the expiry check all evaluate inside
// the single UPDATE, so concurrent fetches serialize in the database
// and no count is ever lost.
func (r *ShareRepository) IncrementAccess(ctx context.Context, token string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		UPDATE share_links SET access_count = access_count + 1
		WHERE token = $1
		  AND active = TRUE
		  AND (expires_at IS NULL OR expires_at > NOW())
		RETURNING access_count
	`, token).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, share.ErrNotFound
	}
	if err != nil {
		return 0, oops.Code("SHARE_INCREMENT_FAILED").
			With("operation", "increment access count").
			Wrap(err)
	}
	return count, nil
}

// scanLink scans a single row into a Link.
// Callers are responsible for handling pgx.ErrNoRows.
func scanLink(row pgx.Row) (*share.Link, error) {
	var link share.Link

	err := row.Scan(
		&link.ID,
		&link.DocumentID,
		&link.Token,
		&link.CreatedBy,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.Active,
		&link.AccessCount,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SHARE_SCAN_FAILED").
			With("operation", "scan share link").
			Wrap(err)
	}
	return &link, nil
}

// Compile-time interface check.
var _ share.Store = (*ShareRepository)(nil)
