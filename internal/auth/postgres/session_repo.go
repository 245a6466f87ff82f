// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/parley-chat/parley/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Replace removes the user's sessions and inserts the new one in a single
// transaction, so concurrent logins for the same user serialize on the
// row locks and the one-live-session invariant holds.
func (r *SessionRepository) Replace(ctx context.Context, session *auth.Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return oops.Code("SESSION_REPLACE_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx, `
		DELETE FROM sessions WHERE user_id = $1
	`, session.UserID.String()); err != nil {
		return oops.Code("SESSION_REPLACE_FAILED").
			With("operation", "delete prior sessions").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO sessions (token, user_id, created_at, last_activity)
		VALUES ($1, $2, $3, $4)
	`,
		session.Token,
		session.UserID.String(),
		session.CreatedAt,
		session.LastActivity,
	); err != nil {
		return oops.Code("SESSION_REPLACE_FAILED").
			With("operation", "insert session").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("SESSION_REPLACE_FAILED").
			With("operation", "commit transaction").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByToken retrieves a session by its token.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT token, user_id, created_at, last_activity
		FROM sessions
		WHERE token = $1
	`, token)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}
	return session, nil
}

// DeleteByToken removes the session matching the token. Zero rows affected
// is a valid outcome; logout is idempotent.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM sessions WHERE token = $1
	`, token)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session by token").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteByUser removes every session owned by the user.
func (r *SessionRepository) DeleteByUser(ctx context.Context, userID ulid.ULID) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM sessions WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_BY_USER_FAILED").
			With("operation", "delete sessions by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// UpdateLastActivity stamps the session's last-activity time.
func (r *SessionRepository) UpdateLastActivity(ctx context.Context, token string, at time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE sessions SET last_activity = $2 WHERE token = $1
	`, token, at)
	if err != nil {
		return oops.Code("SESSION_UPDATE_LAST_ACTIVITY_FAILED").
			With("operation", "update last_activity").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes sessions created at or before the cutoff.
func (r *SessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM sessions WHERE created_at <= $1
	`, cutoff)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanSession scans a single row into a Session. Callers handle
// pgx.ErrNoRows, which is propagated unchanged.
func scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		token        string
		userIDStr    string
		createdAt    time.Time
		lastActivity time.Time
	)

	if err := row.Scan(&token, &userIDStr, &createdAt, &lastActivity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session").
			Wrap(err)
	}

	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").
			With("operation", "parse user id").
			With("user_id", userIDStr).
			Wrap(err)
	}

	return &auth.Session{
		Token:        token,
		UserID:       userID,
		CreatedAt:    createdAt,
		LastActivity: lastActivity,
	}, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
