// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

// Package postgres implements the document repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/chicohaager/lectoria/internal/library"
	"github.com/chicohaager/lectoria/internal/store"
)

const documentColumns = `id, title, author, format, size_bytes, file_path,
	       uploader_id, download_count, created_at, updated_at`

// DocumentRepository implements library.Repository using PostgreSQL.
type DocumentRepository struct {
	pool store.Querier
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(pool store.Querier) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create stores a new document.
func (r *DocumentRepository) Create(ctx context.Context, doc *library.Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (
			id, title, author, format, size_bytes, file_path,
			uploader_id, download_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		doc.ID,
		doc.Title,
		doc.Author,
		string(doc.Format),
		doc.SizeBytes,
		doc.FilePath,
		doc.UploaderID,
		doc.DownloadCount,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return oops.Code("DOCUMENT_CREATE_FAILED").
			With("operation", "insert document").
			With("title", doc.Title).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a document by ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*library.Document, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE id = $1
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, library.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("DOCUMENT_GET_FAILED").
			With("operation", "get document by id").
			With("id", id).
			Wrap(err)
	}
	return doc, nil
}

// GetOwnerID returns the uploader of a document.
func (r *DocumentRepository) GetOwnerID(ctx context.Context, id string) (string, error) {
	var ownerID string
	err := r.pool.QueryRow(ctx, `
		SELECT uploader_id FROM documents WHERE id = $1
	`, id).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", library.ErrNotFound
	}
	if err != nil {
		return "", oops.Code("DOCUMENT_GET_OWNER_FAILED").
			With("operation", "get document owner").
			With("id", id).
			Wrap(err)
	}
	return ownerID, nil
}

// List returns all documents, newest first.
func (r *DocumentRepository) List(ctx context.Context) ([]*library.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, oops.Code("DOCUMENT_LIST_FAILED").
			With("operation", "list documents").
			Wrap(err)
	}
	defer rows.Close()

	var docs []*library.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, oops.Code("DOCUMENT_LIST_FAILED").
				With("operation", "scan document row").
				Wrap(err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("DOCUMENT_LIST_FAILED").
			With("operation", "iterate documents").
			Wrap(err)
	}
	return docs, nil
}

// UpdateMeta updates title and author.
func (r *DocumentRepository) UpdateMeta(ctx context.Context, id, title, author string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE documents SET title = $2, author = $3, updated_at = $4
		WHERE id = $1
	`, id, title, author, time.Now())
	if err != nil {
		return oops.Code("DOCUMENT_UPDATE_FAILED").
			With("operation", "update document meta").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return library.ErrNotFound
	}
	return nil
}

// Delete removes a document. Share links cascade via the schema.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM documents WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("DOCUMENT_DELETE_FAILED").
			With("operation", "delete document").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return library.ErrNotFound
	}
	return nil
}

// IncrementDownloads atomically adds one to the download counter.
func (r *DocumentRepository) IncrementDownloads(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE documents SET download_count = download_count + 1
		WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("DOCUMENT_INCREMENT_FAILED").
			With("operation", "increment download count").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return library.ErrNotFound
	}
	return nil
}

// scanDocument scans a single row into a Document.
// Callers are responsible for handling pgx.ErrNoRows.
func scanDocument(row pgx.Row) (*library.Document, error) {
	var (
		doc       library.Document
		formatStr string
	)

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Author,
		&formatStr,
		&doc.SizeBytes,
		&doc.FilePath,
		&doc.UploaderID,
		&doc.DownloadCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("DOCUMENT_SCAN_FAILED").
			With("operation", "scan document").
			Wrap(err)
	}

	format, ok := library.ParseFormat(formatStr)
	if !ok {
		return nil, oops.Code("DOCUMENT_INVALID_FORMAT").
			With("format", formatStr).
			Errorf("unknown format in storage")
	}
	doc.Format = format
	return &doc, nil
}

// Compile-time interface check.
var _ library.Repository = (*DocumentRepository)(nil)
