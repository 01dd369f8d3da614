// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chicohaager/lectoria/internal/library"
)

type documentResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author,omitempty"`
	Format        string    `json:"format"`
	SizeBytes     int64     `json:"size_bytes"`
	UploaderID    string    `json:"uploader_id"`
	DownloadCount int64     `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func toDocumentResponse(d *library.Document) documentResponse {
	return documentResponse{
		ID:            d.ID,
		Title:         d.Title,
		Author:        d.Author,
		Format:        string(d.Format),
		SizeBytes:     d.SizeBytes,
		UploaderID:    d.UploaderID,
		DownloadCount: d.DownloadCount,
		CreatedAt:     d.CreatedAt,
	}
}

func contentType(format library.Format) string {
	switch format {
	case library.FormatPDF:
		return "application/pdf"
	case library.FormatEPUB:
		return "application/epub+zip"
	default:
		return "application/octet-stream"
	}
}

// handleUpload stores a document from a multipart form. The format is
// taken from the file extension and verified against the content by
// the blob store.
func (a *API) handleUpload(c *gin.Context) {
	claims, ok := sessionClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		renderBadRequest(c, "multipart field 'file' is required")
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	format, ok := library.ParseFormat(ext)
	if !ok {
		renderBadRequest(c, "file must be a .pdf or .epub")
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	}
	author := c.PostForm("author")

	f, err := fileHeader.Open()
	if err != nil {
		renderBadRequest(c, "cannot read uploaded file")
		return
	}
	defer f.Close() //nolint:errcheck // read-only handle

	doc, err := a.library.Upload(c.Request.Context(), claims.Subject(), title, author, format, f)
	if err != nil {
		renderError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

func (a *API) handleListDocuments(c *gin.Context) {
	docs, err := a.library.List(c.Request.Context())
	if err != nil {
		renderError(c, a.logger, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (a *API) handleGetDocument(c *gin.Context) {
	doc, err := a.library.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

// handleDownload streams the document body. Any authenticated user may
// read any document; only mutations are owner-restricted.
func (a *API) handleDownload(c *gin.Context) {
	doc, body, err := a.library.OpenFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, a.logger, err)
		return
	}
	defer body.Close() //nolint:errcheck // read-only handle

	if a.metrics != nil {
		a.metrics.DownloadsTotal.WithLabelValues(string(doc.Format)).Inc()
	}
	serveDocument(c, doc, body)
}

// serveDocument writes the document body with range support.
func serveDocument(c *gin.Context, doc *library.Document, body io.ReadSeeker) {
	filename := fmt.Sprintf("%s.%s", doc.Title, doc.Format)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Header("Content-Type", contentType(doc.Format))
	http.ServeContent(c.Writer, c.Request, filename, doc.UpdatedAt, body)
}

func (a *API) handleUpdateDocument(c *gin.Context) {
	claims, ok := sessionClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, "invalid request body")
		return
	}

	if err := a.library.UpdateMeta(c.Request.Context(), claims.Subject(), c.Param("id"), req.Title, req.Author); err != nil {
		renderError(c, a.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleDeleteDocument(c *gin.Context) {
	claims, ok := sessionClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	if err := a.library.Delete(c.Request.Context(), claims.Subject(), c.Param("id")); err != nil {
		renderError(c, a.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
