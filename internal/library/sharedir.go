// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package library

import (
	"context"
	"errors"

	"github.com/chicohaager/lectoria/internal/share"
)

// ShareDirectory adapts the library to the share manager's ownership
// lookup, translating this package's not-found error into the one the
// manager expects.
type ShareDirectory struct {
	svc *Service
}

// NewShareDirectory wraps the library service for the share manager.
func NewShareDirectory(svc *Service) *ShareDirectory {
	return &ShareDirectory{svc: svc}
}

// GetOwnerID returns the uploader of a document.
func (d *ShareDirectory) GetOwnerID(ctx context.Context, documentID string) (string, error) {
	ownerID, err := d.svc.GetOwnerID(ctx, documentID)
	if errors.Is(err, ErrNotFound) {
		return "", share.ErrDocumentNotFound
	}
	return ownerID, err
}

var _ share.DocumentDirectory = (*ShareDirectory)(nil)
