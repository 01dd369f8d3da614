// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chicohaager/lectoria/internal/access"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// emailRegex is a deliberately loose shape check; deliverability is not
// this layer's problem.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a library account.
type User struct {
	ID                 string
	Username           string
	Email              string
	PasswordHash       string
	Role               access.Role
	Active             bool
	MustChangePassword bool
	PasswordChangedAt  time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewUser creates a validated User with a fresh ULID. The password hash
// must already be computed; this constructor never sees plaintext.
func NewUser(username, email, passwordHash string, role access.Role) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	if !role.Valid() {
		return nil, oops.Code("USER_INVALID_ROLE").
			With("role", string(role)).
			Errorf("unknown role")
	}

	now := time.Now()
	return &User{
		ID:                ulid.Make().String(),
		Username:          username,
		Email:             email,
		PasswordHash:      passwordHash,
		Role:              role,
		Active:            true,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Subject returns the access-control identity for the user.
func (u *User) Subject() access.Subject {
	return access.Subject{UserID: u.ID, Role: u.Role}
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("USER_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("USER_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("USER_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("USER_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail checks the basic shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return oops.Code("USER_INVALID_EMAIL").Errorf("email address is not valid")
	}
	return nil
}

// UserRepository manages account persistence. Implementations map
// storage-level uniqueness violations to ErrDuplicateUsername and
// ErrDuplicateEmail, and absent rows to ErrNotFound.
type UserRepository interface {
	// Create stores a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByUsername retrieves a user by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Count returns the total number of accounts.
	Count(ctx context.Context) (int64, error)

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]*User, error)

	// UpdatePassword replaces the password hash, records the change time
	// and clears the must-change-password flag.
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error

	// SetActive flips the active flag.
	SetActive(ctx context.Context, id string, active bool) error
}
