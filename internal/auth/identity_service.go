// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// IdentityService provides account registration and password verification.
type IdentityService struct {
	identities IdentityRepository
	hasher     PasswordHasher
	metrics    MetricsRecorder
	now        func() time.Time
}

// IdentityOption configures an IdentityService.
type IdentityOption func(*IdentityService)

// WithIdentityMetrics attaches a metrics recorder.
func WithIdentityMetrics(m MetricsRecorder) IdentityOption {
	return func(s *IdentityService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithIdentityClock overrides the time source. Used in tests.
func WithIdentityClock(now func() time.Time) IdentityOption {
	return func(s *IdentityService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(identities IdentityRepository, hasher PasswordHasher, opts ...IdentityOption) (*IdentityService, error) {
	if identities == nil {
		return nil, oops.Errorf("identity repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	s := &IdentityService{
		identities: identities,
		hasher:     hasher,
		metrics:    nopMetrics{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a new identity from a nickname and plaintext password.
// The password is hashed before anything is persisted and is never stored
// or attached to errors. Fails with ErrInvalidInput for missing or short
// input and ErrDuplicateNickname if the nickname is taken; on failure no
// record is persisted.
func (s *IdentityService) Register(ctx context.Context, nickname, password string) (*Identity, error) {
	if err := ValidateNickname(nickname); err != nil {
		s.metrics.RecordRegistration(StatusInvalid)
		return nil, err
	}
	if password == "" {
		s.metrics.RecordRegistration(StatusInvalid)
		return nil, oops.Code("AUTH_INVALID_PASSWORD").
			Wrapf(ErrInvalidInput, "password cannot be empty")
	}
	if len(password) < MinPasswordLength {
		s.metrics.RecordRegistration(StatusInvalid)
		return nil, oops.Code("AUTH_PASSWORD_TOO_SHORT").
			With("min", MinPasswordLength).
			Wrapf(ErrInvalidInput, "password must be at least %d characters", MinPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.RecordRegistration(StatusError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	identity, err := NewIdentity(nickname, hash, s.now())
	if err != nil {
		s.metrics.RecordRegistration(StatusError)
		return nil, err
	}

	// Uniqueness is enforced by the repository, not check-then-act here,
	// so concurrent registrations of the same nickname cannot both win.
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrDuplicateNickname) {
			s.metrics.RecordRegistration(StatusDuplicate)
			return nil, err
		}
		s.metrics.RecordRegistration(StatusError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "persist identity").
			With("nickname", nickname).
			Wrap(err)
	}

	s.metrics.RecordRegistration(StatusOK)
	return identity, nil
}

// FindByNickname looks up an identity by exact nickname match. Returns
// ErrNotFound if no identity has the nickname.
func (s *IdentityService) FindByNickname(ctx context.Context, nickname string) (*Identity, error) {
	return s.identities.GetByNickname(ctx, nickname)
}

// VerifyPassword reports whether candidate matches the identity's stored
// hash. The default hasher compares in constant time. Any hasher error is
// treated as a mismatch.
func (s *IdentityService) VerifyPassword(identity *Identity, candidate string) bool {
	if identity == nil {
		return false
	}
	ok, err := s.hasher.Verify(candidate, identity.PasswordHash)
	return err == nil && ok
}
