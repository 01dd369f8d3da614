// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package auth

import (
	"unicode"

	"github.com/samber/oops"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// CheckPasswordStrength validates a candidate password against the
// account policy: at least MinPasswordLength characters with at least
// one uppercase letter, one lowercase letter, one digit and one symbol.
// The password itself is never attached to the returned error.
func CheckPasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("PASSWORD_TOO_SHORT").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return oops.Code("PASSWORD_TOO_LONG").
			With("max", MaxPasswordBytes).
			Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	if !upper || !lower || !digit || !symbol {
		return oops.Code("PASSWORD_TOO_WEAK").
			Errorf("password must contain uppercase, lowercase, digit and symbol characters")
	}
	return nil
}
