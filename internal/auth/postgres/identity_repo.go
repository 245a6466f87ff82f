// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package postgres provides PostgreSQL-backed implementations of the auth
// repositories using pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/parley-chat/parley/internal/auth"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock satisfies
// it, which keeps the repositories unit-testable without a database.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IdentityRepository implements auth.IdentityRepository using PostgreSQL.
type IdentityRepository struct {
	db DB
}

// NewIdentityRepository creates a new IdentityRepository.
func NewIdentityRepository(db DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create stores a new identity. The unique constraint on nickname is the
// authoritative uniqueness check; a violation maps to ErrDuplicateNickname.
func (r *IdentityRepository) Create(ctx context.Context, identity *auth.Identity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO identities (id, nickname, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		identity.ID.String(),
		identity.Nickname,
		identity.PasswordHash,
		identity.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("AUTH_DUPLICATE_NICKNAME").
				With("nickname", identity.Nickname).
				Wrap(auth.ErrDuplicateNickname)
		}
		return oops.Code("IDENTITY_CREATE_FAILED").
			With("operation", "insert identity").
			With("nickname", identity.Nickname).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an identity by ID.
func (r *IdentityRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, nickname, password_hash, created_at
		FROM identities
		WHERE id = $1
	`, id.String())

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_BY_ID_FAILED").
			With("operation", "get identity by id").
			With("id", id.String()).
			Wrap(err)
	}
	return identity, nil
}

// GetByNickname retrieves an identity by exact, case-sensitive nickname.
func (r *IdentityRepository) GetByNickname(ctx context.Context, nickname string) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, nickname, password_hash, created_at
		FROM identities
		WHERE nickname = $1
	`, nickname)

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("nickname", nickname).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_BY_NICKNAME_FAILED").
			With("operation", "get identity by nickname").
			With("nickname", nickname).
			Wrap(err)
	}
	return identity, nil
}

// scanIdentity scans a single row into an Identity. Callers handle
// pgx.ErrNoRows, which is propagated unchanged.
func scanIdentity(row pgx.Row) (*auth.Identity, error) {
	var (
		idStr        string
		nickname     string
		passwordHash string
		createdAt    time.Time
	)

	if err := row.Scan(&idStr, &nickname, &passwordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("IDENTITY_SCAN_FAILED").
			With("operation", "scan identity").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("IDENTITY_INVALID_ID").
			With("operation", "parse identity id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Identity{
		ID:           id,
		Nickname:     nickname,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}, nil
}

// Compile-time interface check.
var _ auth.IdentityRepository = (*IdentityRepository)(nil)
