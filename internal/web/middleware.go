// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chicohaager/lectoria/internal/auth"
)

// claimsKey is the gin context key holding *auth.SessionClaims.
const claimsKey = "session_claims"

// requestLogger logs every request with method, path, status and latency.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP(),
		)
	}
}

// requireAuth extracts and validates the bearer token, storing the
// session claims in the request context. Rejections are audited with
// the failure reason but never the token itself.
func (a *API) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing authorization header"})
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid authorization header"})
			return
		}

		claims, err := a.validator.Validate(token)
		if err != nil {
			reason := auth.TokenMalformed
			if tokenErr, ok := auth.AsTokenError(err); ok {
				reason = tokenErr.Reason
			}
			a.audit.TokenRejected(c.Request.Context(), reason)
			if a.metrics != nil {
				a.metrics.TokenValidationFailuresTotal.WithLabelValues(string(reason)).Inc()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// sessionClaims returns the claims stored by requireAuth. The bool is
// false only when the middleware did not run, which is a routing bug.
func sessionClaims(c *gin.Context) (*auth.SessionClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.SessionClaims)
	return claims, ok
}
