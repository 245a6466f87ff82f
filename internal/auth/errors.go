// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import "errors"

// Sentinel errors classifying every failure kind the package raises.
// Callers branch with errors.Is; the oops codes on wrapping errors carry
// structured context for logging.
var (
	// ErrNotFound is returned when a nickname, identity, or token does not
	// exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for missing or malformed registration
	// input, including passwords below MinPasswordLength.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateNickname is returned when registering a nickname that is
	// already taken.
	ErrDuplicateNickname = errors.New("nickname already registered")

	// ErrWrongPassword is returned when a submitted password does not match
	// the stored hash.
	ErrWrongPassword = errors.New("wrong password")

	// ErrTokenExpired is returned when a token exists but its TTL has
	// elapsed. The record may still be present in the store; expiry is
	// judged at read time.
	ErrTokenExpired = errors.New("token expired")
)
