// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

// Package library manages the document collection: metadata, file blobs
// and ownership. It is deliberately plain data-access code; the
// interesting invariants live in the auth, access and share packages
// that consume it.
package library

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Format is a supported document file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatEPUB Format = "epub"
)

// ParseFormat maps a stored format string to a Format.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatPDF:
		return FormatPDF, true
	case FormatEPUB:
		return FormatEPUB, true
	default:
		return "", false
	}
}

// Document is one stored PDF or EPUB.
type Document struct {
	ID            string
	Title         string
	Author        string
	Format        Format
	SizeBytes     int64
	FilePath      string
	UploaderID    string
	DownloadCount int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewDocument creates a validated Document with a fresh ULID.
func NewDocument(title, author string, format Format, sizeBytes int64, filePath, uploaderID string) (*Document, error) {
	if title == "" {
		return nil, oops.Code("DOCUMENT_INVALID_TITLE").Errorf("title cannot be empty")
	}
	if _, ok := ParseFormat(string(format)); !ok {
		return nil, oops.Code("DOCUMENT_INVALID_FORMAT").
			With("format", string(format)).
			Errorf("unsupported format")
	}
	if sizeBytes <= 0 {
		return nil, oops.Code("DOCUMENT_INVALID_SIZE").Errorf("size must be positive")
	}
	if filePath == "" {
		return nil, oops.Code("DOCUMENT_INVALID_PATH").Errorf("file path cannot be empty")
	}
	if uploaderID == "" {
		return nil, oops.Code("DOCUMENT_INVALID_UPLOADER").Errorf("uploader ID cannot be empty")
	}

	now := time.Now()
	return &Document{
		ID:         ulid.Make().String(),
		Title:      title,
		Author:     author,
		Format:     format,
		SizeBytes:  sizeBytes,
		FilePath:   filePath,
		UploaderID: uploaderID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Repository manages document persistence. Implementations map absent
// rows to ErrNotFound.
type Repository interface {
	// Create stores a new document.
	Create(ctx context.Context, doc *Document) error

	// GetByID retrieves a document by ID.
	GetByID(ctx context.Context, id string) (*Document, error)

	// GetOwnerID returns the uploader of a document.
	GetOwnerID(ctx context.Context, id string) (string, error)

	// List returns all documents, newest first.
	List(ctx context.Context) ([]*Document, error)

	// UpdateMeta updates title and author.
	UpdateMeta(ctx context.Context, id, title, author string) error

	// Delete removes a document. Share links cascade in the schema.
	Delete(ctx context.Context, id string) error

	// IncrementDownloads atomically adds one to the download counter.
	IncrementDownloads(ctx context.Context, id string) error
}
