// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package auth

import (
	"context"
	"log/slog"
	"time"
)

// AuditLog is an append-only structured record of authentication and
// share-link events. It is write-only from this core; an external
// collector consumes the stream. Plaintext credentials and full tokens
// never reach it.
type AuditLog struct {
	logger *slog.Logger
}

// NewAuditLog creates an AuditLog. A nil logger uses slog.Default().
func NewAuditLog(logger *slog.Logger) *AuditLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLog{logger: logger.With("log", "audit")}
}

// TokenPrefix returns a short non-reversible reference to a share or
// session token for audit records.
func TokenPrefix(token string) string {
	const n = 8
	if len(token) <= n {
		return token
	}
	return token[:n]
}

// LoginSucceeded records a successful login.
func (a *AuditLog) LoginSucceeded(ctx context.Context, clientKey, userID, username string) {
	a.logger.InfoContext(ctx, "login succeeded",
		"event", "login_success",
		"client", clientKey,
		"user_id", userID,
		"username", username,
	)
}

// LoginFailed records a failed login attempt. Only the client key is
// recorded; which credential was wrong is deliberately absent.
func (a *AuditLog) LoginFailed(ctx context.Context, clientKey string, failures int) {
	a.logger.WarnContext(ctx, "login failed",
		"event", "login_failure",
		"client", clientKey,
		"failures", failures,
	)
}

// LoginLocked records a login denied by the rate limiter.
func (a *AuditLog) LoginLocked(ctx context.Context, clientKey string, retryAfter time.Duration) {
	a.logger.WarnContext(ctx, "login locked out",
		"event", "login_lockout",
		"client", clientKey,
		"retry_after", retryAfter.Round(time.Second).String(),
	)
}

// TokenRejected records a session-token validation failure.
func (a *AuditLog) TokenRejected(ctx context.Context, reason TokenReason) {
	a.logger.WarnContext(ctx, "session token rejected",
		"event", "token_rejected",
		"reason", string(reason),
	)
}

// PasswordChanged records a completed password change.
func (a *AuditLog) PasswordChanged(ctx context.Context, userID string) {
	a.logger.InfoContext(ctx, "password changed",
		"event", "password_changed",
		"user_id", userID,
	)
}

// UserRegistered records a new account.
func (a *AuditLog) UserRegistered(ctx context.Context, userID, username string) {
	a.logger.InfoContext(ctx, "user registered",
		"event", "user_registered",
		"user_id", userID,
		"username", username,
	)
}

// ShareCreated records a new share link.
func (a *AuditLog) ShareCreated(ctx context.Context, userID, documentID, shareID string) {
	a.logger.InfoContext(ctx, "share link created",
		"event", "share_created",
		"user_id", userID,
		"document_id", documentID,
		"share_id", shareID,
	)
}

// ShareRevoked records a share-link deactivation.
func (a *AuditLog) ShareRevoked(ctx context.Context, userID, shareID string) {
	a.logger.InfoContext(ctx, "share link revoked",
		"event", "share_revoked",
		"user_id", userID,
		"share_id", shareID,
	)
}

// ShareResolved records a public share-link lookup. The result is
// either "ok" or "not_found"; expired and revoked links are not
// distinguished even here, so the audit stream cannot be used as an
// enumeration oracle by anyone with log access.
func (a *AuditLog) ShareResolved(ctx context.Context, tokenPrefix, result string) {
	a.logger.InfoContext(ctx, "share link resolved",
		"event", "share_resolved",
		"token_prefix", tokenPrefix,
		"result", result,
	)
}

// ShareFetched records a public document fetch through a share link.
func (a *AuditLog) ShareFetched(ctx context.Context, shareID, documentID string) {
	a.logger.InfoContext(ctx, "share link fetched",
		"event", "share_fetched",
		"share_id", shareID,
		"document_id", documentID,
	)
}
