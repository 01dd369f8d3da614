// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

// Package auth provides the authentication core for Lectoria.
//
// # Components
//
//   - PasswordHasher / Argon2idHasher - one-way salted password hashing
//   - Limiter - per-client login failure tracking with timed lockout
//   - TokenIssuer / TokenValidator - signed session tokens (HS256)
//   - Service - login, registration and password-change orchestration
//   - AuditLog - structured record of authentication events
//
// Domain outcomes (bad credentials, lockouts, duplicates) are sentinel
// errors so callers can branch on them; infrastructure failures are
// wrapped with oops codes and context.
//
// The rate-limit state lives behind the AttemptStore interface. The
// default MemoryAttemptStore is process-local: a restart clears all
// lockouts, and horizontal scaling requires swapping in a shared store.
package auth
