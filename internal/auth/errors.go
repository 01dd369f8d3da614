// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package auth

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is the single generic denial for a failed login.
// It deliberately does not distinguish an unknown username from a wrong
// password or a deactivated account.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrDuplicateUsername is returned when the username is already taken.
var ErrDuplicateUsername = errors.New("username already taken")

// ErrDuplicateEmail is returned when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// RateLimitError is returned when a client is inside a lockout window.
type RateLimitError struct {
	// RetryAfter is how long the client must wait before the window
	// elapses.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

// IsRateLimited reports whether err is a RateLimitError and returns it.
func IsRateLimited(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}
