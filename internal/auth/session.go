// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	// TokenLength is the fixed length of issued tokens. With a 62-character
	// alphabet this gives ~178 bits of entropy, keeping the birthday-bound
	// collision probability far below 1e-9 at any plausible token volume.
	TokenLength = 30

	// TokenTTL is the maximum age after which a token is considered
	// expired. Expiry is checked lazily at validation time.
	TokenTTL = 24 * time.Hour
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Session represents an issued bearer token bound to an identity. The
// UserID is a non-owning reference; deleting an identity does not cascade
// to its sessions.
type Session struct {
	Token        string
	UserID       ulid.ULID
	CreatedAt    time.Time
	LastActivity time.Time
}

// NewSession creates a validated Session issued at the given time.
func NewSession(userID ulid.ULID, token string, now time.Time) (*Session, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if len(token) != TokenLength {
		return nil, oops.Code("SESSION_INVALID_TOKEN").
			With("length", len(token)).
			Errorf("token must be exactly %d characters", TokenLength)
	}
	if now.IsZero() {
		return nil, oops.Code("SESSION_INVALID_TIME").Errorf("issue time cannot be zero")
	}
	return &Session{
		Token:        token,
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
	}, nil
}

// IsExpired returns true if the session's TTL has elapsed.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given
// time. A session is expired once its age reaches TokenTTL exactly.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.Sub(s.CreatedAt) >= TokenTTL
}

// GenerateToken creates an unguessable fixed-length token from crypto/rand.
// Rejection sampling keeps the alphabet distribution uniform.
func GenerateToken() (string, error) {
	out := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength)
	// Largest multiple of len(tokenAlphabet) below 256; bytes at or above
	// it are redrawn to avoid modulo bias.
	const limit = 256 - 256%len(tokenAlphabet)

	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
				With("operation", "crypto/rand.Read").
				Wrap(err)
		}
		for _, b := range buf {
			if len(out) == TokenLength {
				break
			}
			if int(b) >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
		}
	}
	return string(out), nil
}

// SessionRepository manages session persistence. Implementations must make
// Replace atomic so that concurrent logins cannot leave a user with zero or
// two live sessions.
type SessionRepository interface {
	// Replace removes every session owned by the new session's user and
	// inserts the new one, as a single atomic operation.
	Replace(ctx context.Context, session *Session) error

	// GetByToken retrieves a session by its token. Returns ErrNotFound if
	// absent.
	GetByToken(ctx context.Context, token string) (*Session, error)

	// DeleteByToken removes the session with the given token and reports
	// how many records were removed. Deleting an absent token is not an
	// error.
	DeleteByToken(ctx context.Context, token string) (int64, error)

	// DeleteByUser removes every session owned by the user and reports the
	// count.
	DeleteByUser(ctx context.Context, userID ulid.ULID) (int64, error)

	// UpdateLastActivity stamps the session's last-activity time without
	// rotating the token. Returns ErrNotFound if the token is absent.
	UpdateLastActivity(ctx context.Context, token string, at time.Time) error

	// DeleteExpired removes sessions created at or before the cutoff and
	// returns the count of deleted records. The inclusive bound matches
	// IsExpiredAt: a session aged exactly TokenTTL is already expired.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
