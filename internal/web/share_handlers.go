// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chicohaager/lectoria/internal/share"
)

type shareResponse struct {
	ID          string     `json:"id"`
	DocumentID  string     `json:"document_id"`
	Token       string     `json:"token"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	AccessCount int64      `json:"access_count"`
}

func toShareResponse(l *share.Link) shareResponse {
	return shareResponse{
		ID:          l.ID,
		DocumentID:  l.DocumentID,
		Token:       l.Token,
		CreatedAt:   l.CreatedAt,
		ExpiresAt:   l.ExpiresAt,
		AccessCount: l.AccessCount,
	}
}

// handleCreateShare mints a share link for a document. A zero or
// missing ttl_hours makes the link permanent.
func (a *API) handleCreateShare(c *gin.Context) {
	claims, ok := sessionClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req struct {
		TTLHours int `json:"ttl_hours"`
	}
	// Body is optional; an empty body means a permanent link.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			renderBadRequest(c, "invalid request body")
			return
		}
	}
	if req.TTLHours < 0 {
		renderBadRequest(c, "ttl_hours cannot be negative")
		return
	}

	link, err := a.shares.Create(c.Request.Context(), claims.Subject(), c.Param("id"), time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		renderError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusCreated, toShareResponse(link))
}

// handleListShares lists the usable links for a document.
func (a *API) handleListShares(c *gin.Context) {
	claims, ok := sessionClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	links, err := a.shares.ListForDocument(c.Request.Context(), claims.Subject(), c.Param("id"))
	if err != nil {
		renderError(c, a.logger, err)
		return
	}

	out := make([]shareResponse, 0, len(links))
	for _, l := range links {
		out = append(out, toShareResponse(l))
	}
	c.JSON(http.StatusOK, gin.H{"shares": out})
}

// handleRevokeShare deactivates a link. Revoking an already-revoked
// link succeeds.
func (a *API) handleRevokeShare(c *gin.Context) {
	claims, ok := sessionClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	if err := a.shares.Deactivate(c.Request.Context(), claims.Subject(), c.Param("token")); err != nil {
		renderError(c, a.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleResolveShare returns document metadata for a share token.
// Unknown, expired and revoked tokens are indistinguishable: all 404.
func (a *API) handleResolveShare(c *gin.Context) {
	link, err := a.shares.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		if a.metrics != nil {
			a.metrics.ShareResolvesTotal.WithLabelValues("not_found").Inc()
		}
		renderError(c, a.logger, err)
		return
	}

	doc, err := a.library.Get(c.Request.Context(), link.DocumentID)
	if err != nil {
		renderError(c, a.logger, err)
		return
	}

	if a.metrics != nil {
		a.metrics.ShareResolvesTotal.WithLabelValues("ok").Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"title":      doc.Title,
		"author":     doc.Author,
		"format":     string(doc.Format),
		"size_bytes": doc.SizeBytes,
		"expires_at": link.ExpiresAt,
	})
}

// handleFetchShare streams the shared document and bumps the access
// counter. The counter increment happens in the database, so
// concurrent fetches never lose updates.
func (a *API) handleFetchShare(c *gin.Context) {
	token := c.Param("token")

	link, err := a.shares.Resolve(c.Request.Context(), token)
	if err != nil {
		renderError(c, a.logger, err)
		return
	}

	if _, err := a.shares.RecordAccess(c.Request.Context(), token); err != nil {
		// The link can expire or be revoked between Resolve and here.
		renderError(c, a.logger, err)
		return
	}

	doc, body, err := a.library.OpenFile(c.Request.Context(), link.DocumentID)
	if err != nil {
		renderError(c, a.logger, err)
		return
	}
	defer body.Close() //nolint:errcheck // read-only handle

	a.audit.ShareFetched(c.Request.Context(), link.ID, link.DocumentID)
	if a.metrics != nil {
		a.metrics.ShareFetchesTotal.Inc()
	}
	serveDocument(c, doc, body)
}
