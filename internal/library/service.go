// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package library

import (
	"context"
	"errors"
	"io"

	"github.com/samber/oops"

	"github.com/chicohaager/lectoria/internal/access"
)

// ErrForbidden is returned when the requester lacks the rights for a
// document operation.
var ErrForbidden = errors.New("forbidden")

// Service coordinates document metadata and blob storage. Browsing and
// downloading are open to any authenticated account; edit and delete
// pass the authorization gate against the uploader.
type Service struct {
	docs  Repository
	files *FileStore
}

// NewService creates a Service.
func NewService(docs Repository, files *FileStore) (*Service, error) {
	if docs == nil {
		return nil, oops.Code("LIBRARY_SERVICE_INVALID").Errorf("document repository is required")
	}
	if files == nil {
		return nil, oops.Code("LIBRARY_SERVICE_INVALID").Errorf("file store is required")
	}
	return &Service{docs: docs, files: files}, nil
}

// Upload stores a new document owned by the requester.
func (s *Service) Upload(ctx context.Context, sub access.Subject, title, author string, format Format, r io.Reader) (*Document, error) {
	path, size, err := s.files.Save(r, format)
	if err != nil {
		return nil, err
	}

	doc, err := NewDocument(title, author, format, size, path, sub.UserID)
	if err != nil {
		_ = s.files.Remove(path) //nolint:errcheck // best effort cleanup
		return nil, err
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		_ = s.files.Remove(path) //nolint:errcheck // best effort cleanup
		return nil, oops.Code("DOCUMENT_CREATE_FAILED").
			With("operation", "insert document").
			Wrap(err)
	}
	return doc, nil
}

// Get returns a document's metadata.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.docs.GetByID(ctx, id)
}

// List returns all documents, newest first.
func (s *Service) List(ctx context.Context) ([]*Document, error) {
	return s.docs.List(ctx)
}

// OpenFile returns a reader for the document blob and counts the
// download. The counter update is store-side atomic.
func (s *Service) OpenFile(ctx context.Context, id string) (*Document, io.ReadSeekCloser, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	f, err := s.files.Open(doc.FilePath)
	if err != nil {
		return nil, nil, err
	}

	_ = s.docs.IncrementDownloads(ctx, id) //nolint:errcheck // Best effort, download proceeds regardless
	return doc, f, nil
}

// UpdateMeta changes title and author. Uploader or admin only.
func (s *Service) UpdateMeta(ctx context.Context, sub access.Subject, id, title, author string) error {
	ownerID, err := s.docs.GetOwnerID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccess(sub, access.ActionDocumentEdit, ownerID) {
		return ErrForbidden
	}
	if title == "" {
		return oops.Code("DOCUMENT_INVALID_TITLE").Errorf("title cannot be empty")
	}
	return s.docs.UpdateMeta(ctx, id, title, author)
}

// Delete removes a document, its blob and (via the schema cascade) its
// share links. Uploader or admin only.
func (s *Service) Delete(ctx context.Context, sub access.Subject, id string) error {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccess(sub, access.ActionDocumentDelete, doc.UploaderID) {
		return ErrForbidden
	}

	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	// Blob removal after the row is gone; a stale file is harmless,
	// a dangling row is not.
	return s.files.Remove(doc.FilePath)
}

// GetOwnerID exposes the ownership lookup for the share manager.
func (s *Service) GetOwnerID(ctx context.Context, id string) (string, error) {
	return s.docs.GetOwnerID(ctx, id)
}
