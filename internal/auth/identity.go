// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinPasswordLength is the minimum accepted password length in bytes,
// checked before hashing.
const MinPasswordLength = 6

// Identity represents a registered account.
type Identity struct {
	ID           ulid.ULID
	Nickname     string
	PasswordHash string
	CreatedAt    time.Time
}

// ValidateNickname validates a nickname. Nicknames are case-sensitive and
// matched exactly; the only structural requirement is that they are
// non-empty.
func ValidateNickname(nickname string) error {
	if nickname == "" {
		return oops.Code("AUTH_INVALID_NICKNAME").
			Wrapf(ErrInvalidInput, "nickname cannot be empty")
	}
	return nil
}

// NewIdentity creates a validated Identity with a fresh ULID. The caller
// supplies the already-computed password hash; plaintext passwords never
// reach this constructor.
func NewIdentity(nickname, passwordHash string, now time.Time) (*Identity, error) {
	if err := ValidateNickname(nickname); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	if now.IsZero() {
		return nil, oops.Code("AUTH_INVALID_TIME").Errorf("creation time cannot be zero")
	}
	return &Identity{
		ID:           ulid.Make(),
		Nickname:     nickname,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// IdentityRepository manages identity persistence.
type IdentityRepository interface {
	// Create stores a new identity. Returns ErrDuplicateNickname if the
	// nickname is already registered.
	Create(ctx context.Context, identity *Identity) error

	// GetByID retrieves an identity by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*Identity, error)

	// GetByNickname retrieves an identity by exact, case-sensitive nickname
	// match. Returns ErrNotFound if absent.
	GetByNickname(ctx context.Context, nickname string) (*Identity, error)
}
