// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package web

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/chicohaager/lectoria/internal/auth"
	"github.com/chicohaager/lectoria/internal/library"
	"github.com/chicohaager/lectoria/internal/observability"
	"github.com/chicohaager/lectoria/internal/share"
)

// API bundles the domain services behind the HTTP routes.
type API struct {
	auth      *auth.Service
	validator *auth.TokenValidator
	shares    *share.Manager
	library   *library.Service
	audit     *auth.AuditLog
	metrics   *observability.Metrics // nil disables metric recording
	logger    *slog.Logger
}

// NewAPI creates the API. metrics may be nil; everything else is required.
func NewAPI(authSvc *auth.Service, validator *auth.TokenValidator, shares *share.Manager, lib *library.Service, audit *auth.AuditLog, metrics *observability.Metrics, logger *slog.Logger) (*API, error) {
	if authSvc == nil || validator == nil || shares == nil || lib == nil || audit == nil {
		return nil, oops.Code("API_INVALID").Errorf("api requires auth service, validator, share manager, library and audit log")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		auth:      authSvc,
		validator: validator,
		shares:    shares,
		library:   lib,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Router builds the gin engine with all routes registered.
func (a *API) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(a.logger), gin.Recovery())

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", a.handleLogin)
			authGroup.POST("/register", a.handleRegister)

			authGroup.Use(a.requireAuth())
			authGroup.POST("/change-password", a.handleChangePassword)
			authGroup.GET("/me", a.handleMe)
		}

		docs := api.Group("/documents")
		docs.Use(a.requireAuth())
		{
			docs.POST("", a.handleUpload)
			docs.GET("", a.handleListDocuments)
			docs.GET("/:id", a.handleGetDocument)
			docs.GET("/:id/file", a.handleDownload)
			docs.PATCH("/:id", a.handleUpdateDocument)
			docs.DELETE("/:id", a.handleDeleteDocument)

			docs.POST("/:id/share", a.handleCreateShare)
			docs.GET("/:id/shares", a.handleListShares)
		}

		shares := api.Group("/shares")
		shares.Use(a.requireAuth())
		{
			shares.DELETE("/:token", a.handleRevokeShare)
		}
	}

	// Public share endpoints, no authentication.
	router.GET("/share/:token", a.handleResolveShare)
	router.GET("/share/:token/fetch", a.handleFetchShare)

	return router
}
