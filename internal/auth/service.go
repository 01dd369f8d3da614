// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/chicohaager/lectoria/internal/access"
)

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates login, registration and password changes.
type Service struct {
	users   UserRepository
	hasher  PasswordHasher
	limiter *Limiter
	issuer  *TokenIssuer
	audit   *AuditLog
	now     func() time.Time
}

// NewService creates a Service. All dependencies are required except
// audit, which defaults to the default slog logger.
func NewService(users UserRepository, hasher PasswordHasher, limiter *Limiter, issuer *TokenIssuer, audit *AuditLog) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if limiter == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("rate limiter is required")
	}
	if issuer == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token issuer is required")
	}
	if audit == nil {
		audit = NewAuditLog(nil)
	}
	return &Service{
		users:   users,
		hasher:  hasher,
		limiter: limiter,
		issuer:  issuer,
		audit:   audit,
		now:     time.Now,
	}, nil
}

// Login authenticates a user and issues a session token. clientKey is a
// best-effort client identity (usually the remote IP) used for rate
// limiting. Uses constant-time operations to prevent timing-based
// username enumeration.
func (s *Service) Login(ctx context.Context, username, password, clientKey string) (*User, string, error) {
	if d := s.limiter.Allow(clientKey); !d.Allowed {
		s.audit.LoginLocked(ctx, clientKey, d.RetryAfter)
		return nil, "", &RateLimitError{RetryAfter: d.RetryAfter}
	}

	user, lookupErr := s.users.GetByUsername(ctx, username)

	// Verify against a dummy hash when the user is unknown so lookup
	// misses cost the same as password mismatches.
	targetHash := dummyPasswordHash
	userExists := false
	if lookupErr == nil {
		targetHash = user.PasswordHash
		userExists = true
	} else if !errors.Is(lookupErr, ErrNotFound) {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && userExists {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !userExists || !valid || !user.Active {
		failures := s.limiter.RecordFailure(clientKey)
		s.audit.LoginFailed(ctx, clientKey, failures)
		return nil, "", ErrInvalidCredentials
	}

	// Transparently upgrade hashes produced with outdated parameters.
	if s.hasher.NeedsRehash(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			if err := s.users.UpdatePassword(ctx, user.ID, newHash, user.PasswordChangedAt); err == nil {
				user.PasswordHash = newHash
			}
		}
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.limiter.RecordSuccess(clientKey)
	s.audit.LoginSucceeded(ctx, clientKey, user.ID, user.Username)
	return user, token, nil
}

// Register creates a new account and issues its first session token.
// The very first account becomes the admin.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, string, error) {
	if err := CheckPasswordStrength(password); err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	role := access.RoleUser
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "count users").
			Wrap(err)
	}
	if count == 0 {
		role = access.RoleAdmin
	}

	user, err := NewUser(username, email, hash, role)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, ErrDuplicateEmail) {
			return nil, "", err
		}
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.audit.UserRegistered(ctx, user.ID, user.Username)
	return user, token, nil
}

// ChangePassword re-verifies the current password, checks the new one
// against the policy and stores its hash. On success a fresh session
// token is issued.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return "", oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "verify current password").
			Wrap(err)
	}
	if !valid {
		return "", ErrInvalidCredentials
	}

	if err := CheckPasswordStrength(newPassword); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", err
	}

	changedAt := s.now()
	if err := s.users.UpdatePassword(ctx, user.ID, hash, changedAt); err != nil {
		return "", oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	user.PasswordHash = hash
	user.PasswordChangedAt = changedAt
	user.MustChangePassword = false

	token, err := s.issuer.Issue(user)
	if err != nil {
		return "", oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.audit.PasswordChanged(ctx, user.ID)
	return token, nil
}

// GetUser returns the account for an authenticated subject.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("AUTH_GET_USER_FAILED").
			With("operation", "get user by id").
			With("user_id", userID).
			Wrap(err)
	}
	return user, nil
}
