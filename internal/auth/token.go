// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/chicohaager/lectoria/internal/access"
)

// Session token configuration.
const (
	// DefaultTokenTTL is the session token lifetime.
	DefaultTokenTTL = 24 * time.Hour

	tokenIssuerName = "lectoria"
	tokenAudience   = "lectoria-api"
)

// ErrNoSigningKey is returned when an issuer or validator is constructed
// without a key. There is no fallback key; startup must fail instead.
var ErrNoSigningKey = oops.Code("AUTH_NO_SIGNING_KEY").Errorf("token signing key is not configured")

// TokenReason classifies why a token was rejected, so the transport
// layer can pick a response without inspecting error internals.
type TokenReason string

const (
	TokenExpired        TokenReason = "expired"
	TokenMalformed      TokenReason = "malformed"
	TokenWrongAlgorithm TokenReason = "wrong_algorithm"
	TokenBadSignature   TokenReason = "bad_signature"
	TokenWrongIssuer    TokenReason = "wrong_issuer"
	TokenMissingClaims  TokenReason = "missing_claims"
)

// TokenError is a rejected-token error carrying its reason.
type TokenError struct {
	Reason TokenReason
	cause  error
}

func (e *TokenError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("invalid token: %s", e.Reason)
	}
	return fmt.Sprintf("invalid token (%s): %v", e.Reason, e.cause)
}

func (e *TokenError) Unwrap() error { return e.cause }

// AsTokenError reports whether err is a TokenError and returns it.
func AsTokenError(err error) (*TokenError, bool) {
	var te *TokenError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// SessionClaims is the validated identity carried by a session token.
// Claims are never persisted and never mutated after issuance.
type SessionClaims struct {
	UserID    string
	Username  string
	Role      access.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Subject returns the access-control identity for the claims.
func (c *SessionClaims) Subject() access.Subject {
	return access.Subject{UserID: c.UserID, Role: c.Role}
}

// tokenClaims is the wire shape of the JWT payload.
type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// errUnexpectedAlgorithm is matched after parsing to classify
// algorithm-confusion rejections.
var errUnexpectedAlgorithm = errors.New("unexpected signing algorithm")

// hs256Only rejects every signing method except HS256. This covers both
// "none" tokens and attacker-chosen asymmetric algorithms.
func hs256Only(key []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %s", errUnexpectedAlgorithm, t.Method.Alg())
		}
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("%w: %s", errUnexpectedAlgorithm, t.Method.Alg())
		}
		return key, nil
	}
}

// TokenIssuer mints signed session tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. An empty key is a configuration
// error, never silently defaulted.
func NewTokenIssuer(key []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(key) == 0 {
		return nil, ErrNoSigningKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue creates a signed token for the user. Inactive accounts never
// receive tokens.
func (i *TokenIssuer) Issue(user *User) (string, error) {
	if user == nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Errorf("user cannot be nil")
	}
	if !user.Active {
		return "", ErrInvalidCredentials
	}
	if !user.Role.Valid() {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("role", string(user.Role)).
			Errorf("refusing to issue token for unknown role")
	}

	issuedAt := i.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuerName,
			Audience:  jwt.ClaimStrings{tokenAudience},
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
		Username: user.Username,
		Role:     string(user.Role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Wrap(err)
	}
	return signed, nil
}

// TTL returns the configured token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// TokenValidator checks signed session tokens. It holds no mutable
// state and is safe for unbounded concurrent use.
type TokenValidator struct {
	key []byte
	now func() time.Time
}

// NewTokenValidator creates a TokenValidator.
func NewTokenValidator(key []byte) (*TokenValidator, error) {
	if len(key) == 0 {
		return nil, ErrNoSigningKey
	}
	return &TokenValidator{key: key, now: time.Now}, nil
}

// Validate parses and verifies a token. On failure it returns a
// *TokenError whose reason distinguishes expired, malformed,
// wrong-algorithm, bad-signature, wrong-issuer and missing-claim
// rejections.
func (v *TokenValidator) Validate(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, &TokenError{Reason: TokenMalformed}
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hs256Only(v.key),
		jwt.WithIssuer(tokenIssuerName),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !token.Valid {
		return nil, &TokenError{Reason: TokenBadSignature}
	}

	if claims.Subject == "" || claims.Username == "" || claims.Role == "" || claims.IssuedAt == nil {
		return nil, &TokenError{Reason: TokenMissingClaims}
	}
	role, ok := access.ParseRole(claims.Role)
	if !ok {
		return nil, &TokenError{Reason: TokenMissingClaims, cause: fmt.Errorf("unknown role %q", claims.Role)}
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &SessionClaims{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: expiresAt,
	}, nil
}

func classifyTokenError(err error) *TokenError {
	switch {
	case errors.Is(err, errUnexpectedAlgorithm):
		return &TokenError{Reason: TokenWrongAlgorithm, cause: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Reason: TokenExpired, cause: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &TokenError{Reason: TokenBadSignature, cause: err}
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return &TokenError{Reason: TokenWrongIssuer, cause: err}
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return &TokenError{Reason: TokenMissingClaims, cause: err}
	default:
		return &TokenError{Reason: TokenMalformed, cause: err}
	}
}
