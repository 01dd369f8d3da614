// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chicohaager/lectoria/internal/auth"
)

type userResponse struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		Role:               string(u.Role),
		MustChangePassword: u.MustChangePassword,
		CreatedAt:          u.CreatedAt,
	}
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// handleLogin authenticates credentials and returns a session token.
// The rate-limit key is the client IP, so lockouts cover username
// guessing from one address without letting an attacker lock out a
// victim's account.
func (a *API) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		renderBadRequest(c, "username and password are required")
		return
	}

	user, token, err := a.auth.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		if a.metrics != nil {
			if _, locked := auth.IsRateLimited(err); locked {
				a.metrics.RateLimitLockoutsTotal.Inc()
			} else {
				a.metrics.LoginsTotal.WithLabelValues("failure").Inc()
			}
		}
		renderError(c, a.logger, err)
		return
	}

	if a.metrics != nil {
		a.metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	c.JSON(http.StatusOK, sessionResponse{Token: token, User: toUserResponse(user)})
}

// handleRegister creates an account and returns a session token. The
// first account on a fresh install becomes the admin.
func (a *API) handleRegister(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, "invalid request body")
		return
	}

	user, token, err := a.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		renderError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{Token: token, User: toUserResponse(user)})
}

// handleChangePassword verifies the current password before accepting
// the new one, and returns a fresh token.
func (a *API) handleChangePassword(c *gin.Context) {
	claims, ok := sessionClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, "invalid request body")
		return
	}

	token, err := a.auth.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		renderError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// handleMe returns the authenticated user's profile.
func (a *API) handleMe(c *gin.Context) {
	claims, ok := sessionClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	user, err := a.auth.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		renderError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}
