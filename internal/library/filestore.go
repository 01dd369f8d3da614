// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package library

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultMaxUploadBytes caps accepted uploads at 256 MB.
const DefaultMaxUploadBytes = 256 << 20

// File format magic bytes.
var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04") // EPUB is a ZIP container
)

// ErrUploadTooLarge is returned when an upload exceeds the size cap.
var ErrUploadTooLarge = oops.Code("FILE_TOO_LARGE").Errorf("upload exceeds size limit")

// ErrFormatMismatch is returned when file content does not match the
// declared format.
var ErrFormatMismatch = oops.Code("FILE_FORMAT_MISMATCH").Errorf("file content does not match declared format")

// FileStore keeps document blobs on the local filesystem under a single
// root directory, one file per document named by a fresh ULID.
type FileStore struct {
	root     string
	maxBytes int64
}

// NewFileStore creates the root directory if needed. A non-positive
// maxBytes falls back to DefaultMaxUploadBytes.
func NewFileStore(root string, maxBytes int64) (*FileStore, error) {
	if root == "" {
		return nil, oops.Code("FILESTORE_INVALID").Errorf("root directory cannot be empty")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, oops.Code("FILESTORE_INIT_FAILED").
			With("root", root).
			Wrap(err)
	}
	return &FileStore{root: root, maxBytes: maxBytes}, nil
}

// Save streams an upload to disk, sniffing the leading bytes against
// the declared format. Returns the stored path (relative to the root)
// and the byte count. Oversized input aborts with ErrUploadTooLarge and
// the partial file is removed.
func (fs *FileStore) Save(r io.Reader, format Format) (path string, size int64, err error) {
	head := make([]byte, 4)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", 0, oops.Code("FILE_SAVE_FAILED").With("operation", "read header").Wrap(err)
	}
	head = head[:n]

	if !formatMatches(head, format) {
		return "", 0, ErrFormatMismatch
	}

	name := ulid.Make().String() + "." + string(format)
	full := filepath.Join(fs.root, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, oops.Code("FILE_SAVE_FAILED").With("operation", "create file").Wrap(err)
	}

	// Read one byte past the cap so an oversized upload is detectable.
	combined := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(f, io.LimitReader(combined, fs.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full) //nolint:errcheck // best effort cleanup
		return "", 0, oops.Code("FILE_SAVE_FAILED").With("operation", "write file").Wrap(err)
	}
	if written > fs.maxBytes {
		_ = os.Remove(full) //nolint:errcheck // best effort cleanup
		return "", 0, ErrUploadTooLarge
	}

	return name, written, nil
}

// Open returns a reader for a stored file.
func (fs *FileStore) Open(path string) (io.ReadSeekCloser, error) {
	f, err := os.Open(filepath.Join(fs.root, filepath.Base(path)))
	if err != nil {
		return nil, oops.Code("FILE_OPEN_FAILED").
			With("path", path).
			Wrap(err)
	}
	return f, nil
}

// Remove deletes a stored file. A missing file is not an error; the
// metadata row is authoritative.
func (fs *FileStore) Remove(path string) error {
	err := os.Remove(filepath.Join(fs.root, filepath.Base(path)))
	if err != nil && !os.IsNotExist(err) {
		return oops.Code("FILE_REMOVE_FAILED").
			With("path", path).
			Wrap(err)
	}
	return nil
}

// formatMatches checks the magic bytes for the declared format.
func formatMatches(head []byte, format Format) bool {
	switch format {
	case FormatPDF:
		return bytes.HasPrefix(head, pdfMagic)
	case FormatEPUB:
		return bytes.HasPrefix(head, zipMagic)
	default:
		return false
	}
}
