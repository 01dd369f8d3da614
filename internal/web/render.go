// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package web

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/chicohaager/lectoria/internal/auth"
	"github.com/chicohaager/lectoria/internal/library"
	"github.com/chicohaager/lectoria/internal/share"
	"github.com/chicohaager/lectoria/pkg/errutil"
)

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// validationCodes are oops codes that describe bad client input and
// map to 400 with the code exposed in the body.
var validationCodes = map[string]bool{
	"PASSWORD_TOO_SHORT":      true,
	"PASSWORD_TOO_LONG":       true,
	"PASSWORD_TOO_WEAK":       true,
	"AUTH_PASSWORD_TOO_LONG":  true,
	"AUTH_EMPTY_PASSWORD":     true,
	"USER_INVALID_USERNAME":   true,
	"USER_INVALID_EMAIL":      true,
	"DOCUMENT_INVALID_TITLE":  true,
	"DOCUMENT_INVALID_FORMAT": true,
	"FILE_FORMAT_MISMATCH":    true,
}

// renderError translates a service error into an HTTP response.
// Anything unrecognized is logged and collapsed to a bare 500 so
// internal details never reach clients.
func renderError(c *gin.Context, logger *slog.Logger, err error) {
	if rl, ok := auth.IsRateLimited(err); ok {
		seconds := int64(math.Ceil(rl.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.FormatInt(seconds, 10))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
			Error: "too many failed attempts, try again later",
		})
		return
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})
	case errors.Is(err, auth.ErrDuplicateUsername):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: "username already taken"})
	case errors.Is(err, auth.ErrDuplicateEmail):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: "email already registered"})
	case errors.Is(err, share.ErrForbidden), errors.Is(err, library.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, share.ErrNotFound),
		errors.Is(err, share.ErrDocumentNotFound),
		errors.Is(err, library.ErrNotFound),
		errors.Is(err, auth.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, library.ErrUploadTooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "upload exceeds size limit"})
	default:
		if oopsErr, ok := oops.AsOops(err); ok {
			if code, isStr := oopsErr.Code().(string); isStr && validationCodes[code] {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
					Error: oopsErr.Error(),
					Code:  code,
				})
				return
			}
		}
		errutil.LogError(logger, "request failed", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// renderBadRequest reports a malformed request body or parameter.
func renderBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}
