// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package memory provides in-process implementations of the auth
// repositories. It is the authoritative store in dev mode and in unit
// tests; there is deliberately no second cache layer beside it.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/parley-chat/parley/internal/auth"
)

// IdentityRepository implements auth.IdentityRepository with a mutex-guarded
// map. Nickname uniqueness is enforced under the same lock as the insert.
type IdentityRepository struct {
	mu         sync.RWMutex
	byID       map[ulid.ULID]auth.Identity
	byNickname map[string]ulid.ULID
}

// NewIdentityRepository creates an empty IdentityRepository.
func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		byID:       make(map[ulid.ULID]auth.Identity),
		byNickname: make(map[string]ulid.ULID),
	}
}

// Create stores a new identity.
func (r *IdentityRepository) Create(_ context.Context, identity *auth.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byNickname[identity.Nickname]; exists {
		return oops.Code("AUTH_DUPLICATE_NICKNAME").
			With("nickname", identity.Nickname).
			Wrap(auth.ErrDuplicateNickname)
	}

	r.byID[identity.ID] = *identity
	r.byNickname[identity.Nickname] = identity.ID
	return nil
}

// GetByID retrieves an identity by ID.
func (r *IdentityRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return &identity, nil
}

// GetByNickname retrieves an identity by exact, case-sensitive nickname.
func (r *IdentityRepository) GetByNickname(_ context.Context, nickname string) (*auth.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNickname[nickname]
	if !ok {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("nickname", nickname).
			Wrap(auth.ErrNotFound)
	}
	identity := r.byID[id]
	return &identity, nil
}

// SessionRepository implements auth.SessionRepository with a mutex-guarded
// map keyed by token. Replace runs delete-and-insert under one lock, which
// makes token rotation atomic with respect to concurrent logins.
type SessionRepository struct {
	mu      sync.RWMutex
	byToken map[string]auth.Session
}

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		byToken: make(map[string]auth.Session),
	}
}

// Replace atomically removes the user's sessions and inserts the new one.
func (r *SessionRepository) Replace(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, s := range r.byToken {
		if s.UserID == session.UserID {
			delete(r.byToken, token)
		}
	}
	r.byToken[session.Token] = *session
	return nil
}

// GetByToken retrieves a session by its token.
func (r *SessionRepository) GetByToken(_ context.Context, token string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.byToken[token]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &session, nil
}

// DeleteByToken removes the session matching the token, if any.
func (r *SessionRepository) DeleteByToken(_ context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[token]; !ok {
		return 0, nil
	}
	delete(r.byToken, token)
	return 1, nil
}

// DeleteByUser removes every session owned by the user.
func (r *SessionRepository) DeleteByUser(_ context.Context, userID ulid.ULID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, s := range r.byToken {
		if s.UserID == userID {
			delete(r.byToken, token)
			n++
		}
	}
	return n, nil
}

// UpdateLastActivity stamps the session's last-activity time.
func (r *SessionRepository) UpdateLastActivity(_ context.Context, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byToken[token]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	session.LastActivity = at
	r.byToken[token] = session
	return nil
}

// DeleteExpired removes sessions created at or before the cutoff.
func (r *SessionRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, s := range r.byToken {
		if !s.CreatedAt.After(cutoff) {
			delete(r.byToken, token)
			n++
		}
	}
	return n, nil
}

// Compile-time interface checks.
var (
	_ auth.IdentityRepository = (*IdentityRepository)(nil)
	_ auth.SessionRepository  = (*SessionRepository)(nil)
)
