// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionService issues, validates, rotates, and revokes session tokens.
//
// Per-user session state machine: NoSession -> Active -> (Expired | Revoked).
// Active is re-enterable: a login from any state yields a fresh token and
// discards all prior tokens for that user.
type SessionService struct {
	identities IdentityRepository
	sessions   SessionRepository
	hasher     PasswordHasher
	metrics    MetricsRecorder
	now        func() time.Time
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithSessionMetrics attaches a metrics recorder.
func WithSessionMetrics(m MetricsRecorder) SessionOption {
	return func(s *SessionService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the time source. Used in tests to simulate expiry.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionService creates a new SessionService.
func NewSessionService(identities IdentityRepository, sessions SessionRepository, hasher PasswordHasher, opts ...SessionOption) (*SessionService, error) {
	if identities == nil {
		return nil, oops.Errorf("identity repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	s := &SessionService{
		identities: identities,
		sessions:   sessions,
		hasher:     hasher,
		metrics:    nopMetrics{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login authenticates a nickname/password pair and returns a fresh token.
// Fails with ErrNotFound for an unknown nickname and ErrWrongPassword on a
// hash mismatch. On success exactly one live session exists for the user:
// the new token atomically supersedes all prior ones.
func (s *SessionService) Login(ctx context.Context, nickname, password string) (string, error) {
	identity, err := s.identities.GetByNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.RecordLogin(StatusNotFound)
			return "", err
		}
		s.metrics.RecordLogin(StatusError)
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get identity by nickname").
			Wrap(err)
	}

	// An empty candidate can never match a stored hash. Report it as a
	// plain mismatch instead of surfacing the hasher's input error.
	if password == "" {
		s.metrics.RecordLogin(StatusWrongPassword)
		return "", oops.Code("AUTH_WRONG_PASSWORD").
			With("nickname", nickname).
			Wrap(ErrWrongPassword)
	}

	ok, err := s.hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		s.metrics.RecordLogin(StatusError)
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}
	if !ok {
		s.metrics.RecordLogin(StatusWrongPassword)
		return "", oops.Code("AUTH_WRONG_PASSWORD").
			With("nickname", nickname).
			Wrap(ErrWrongPassword)
	}

	token, err := s.issue(ctx, identity.ID)
	if err != nil {
		s.metrics.RecordLogin(StatusError)
		return "", err
	}

	s.metrics.RecordLogin(StatusOK)
	return token, nil
}

// Logout revokes the session matching the token. Revoking an absent or
// already-revoked token is a no-op.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if _, err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return oops.Code("SESSION_LOGOUT_FAILED").
			With("operation", "delete session by token").
			Wrap(err)
	}
	return nil
}

// Check validates a token without refreshing it. Fails with ErrNotFound if
// no session matches and ErrTokenExpired once the session's age reaches
// TokenTTL; otherwise nil. No state is mutated.
func (s *SessionService) Check(ctx context.Context, token string) error {
	if token == "" {
		s.metrics.RecordTokenCheck(StatusNotFound)
		return oops.Code("SESSION_NOT_FOUND").
			Wrapf(ErrNotFound, "session token cannot be empty")
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.RecordTokenCheck(StatusNotFound)
			return err
		}
		s.metrics.RecordTokenCheck(StatusError)
		return oops.Code("SESSION_CHECK_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}

	if session.IsExpiredAt(s.now()) {
		s.metrics.RecordTokenCheck(StatusExpired)
		return oops.Code("SESSION_EXPIRED").
			With("created_at", session.CreatedAt).
			Wrap(ErrTokenExpired)
	}

	s.metrics.RecordTokenCheck(StatusOK)
	return nil
}

// Renew rotates the user's token without re-authenticating: a fresh token
// atomically supersedes all prior sessions for the user and the activity
// timestamps reset.
func (s *SessionService) Renew(ctx context.Context, userID ulid.ULID) (string, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return "", oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	return s.issue(ctx, userID)
}

// Touch stamps the session's last-activity time without rotating the
// token. Returns ErrNotFound if the token is absent.
func (s *SessionService) Touch(ctx context.Context, token string) error {
	if err := s.sessions.UpdateLastActivity(ctx, token, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return oops.Code("SESSION_TOUCH_FAILED").
			With("operation", "update last activity").
			Wrap(err)
	}
	return nil
}

// issue mints a token and atomically replaces the user's sessions with it.
func (s *SessionService) issue(ctx context.Context, userID ulid.ULID) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	session, err := NewSession(userID, token, s.now())
	if err != nil {
		return "", err
	}

	if err := s.sessions.Replace(ctx, session); err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("user_id", userID.String()).
			Wrap(err)
	}

	return token, nil
}
