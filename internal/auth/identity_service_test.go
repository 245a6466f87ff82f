// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/auth/memory"
)

func newIdentityService(t *testing.T) (*auth.IdentityService, *memory.IdentityRepository) {
	t.Helper()
	repo := memory.NewIdentityRepository()
	svc, err := auth.NewIdentityService(repo, auth.NewSHA256Hasher())
	require.NoError(t, err)
	return svc, repo
}

func TestNewIdentityService(t *testing.T) {
	t.Run("requires repository", func(t *testing.T) {
		_, err := auth.NewIdentityService(nil, auth.NewSHA256Hasher())
		require.Error(t, err)
	})

	t.Run("requires hasher", func(t *testing.T) {
		_, err := auth.NewIdentityService(memory.NewIdentityRepository(), nil)
		require.Error(t, err)
	})
}

func TestIdentityService_Register(t *testing.T) {
	ctx := t.Context()

	t.Run("registers a new account", func(t *testing.T) {
		svc, repo := newIdentityService(t)

		identity, err := svc.Register(ctx, "alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice", identity.Nickname)
		assert.NotZero(t, identity.ID)
		assert.NotEqual(t, "secret1", identity.PasswordHash)

		stored, err := repo.GetByNickname(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, identity.ID, stored.ID)
	})

	t.Run("rejects duplicate nickname regardless of password", func(t *testing.T) {
		svc, _ := newIdentityService(t)

		_, err := svc.Register(ctx, "alice", "secret1")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "alice", "adifferentpassword")
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrDuplicateNickname))
	})

	t.Run("nicknames differing in case are distinct", func(t *testing.T) {
		svc, _ := newIdentityService(t)

		_, err := svc.Register(ctx, "alice", "secret1")
		require.NoError(t, err)
		_, err = svc.Register(ctx, "Alice", "secret1")
		require.NoError(t, err)
	})

	t.Run("rejects invalid input without persisting", func(t *testing.T) {
		tests := []struct {
			name     string
			nickname string
			password string
		}{
			{name: "empty nickname", nickname: "", password: "secret1"},
			{name: "empty password", nickname: "bob", password: ""},
			{name: "short password", nickname: "bob", password: "12345"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, repo := newIdentityService(t)

				_, err := svc.Register(ctx, tt.nickname, tt.password)
				require.Error(t, err)
				assert.True(t, errors.Is(err, auth.ErrInvalidInput))

				if tt.nickname != "" {
					_, err = repo.GetByNickname(ctx, tt.nickname)
					assert.True(t, errors.Is(err, auth.ErrNotFound))
				}
			})
		}
	})

	t.Run("accepts password at minimum length", func(t *testing.T) {
		svc, _ := newIdentityService(t)

		_, err := svc.Register(ctx, "bob", "123456")
		require.NoError(t, err)
	})

	t.Run("uses injected clock for creation time", func(t *testing.T) {
		repo := memory.NewIdentityRepository()
		frozen := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		svc, err := auth.NewIdentityService(repo, auth.NewSHA256Hasher(),
			auth.WithIdentityClock(func() time.Time { return frozen }))
		require.NoError(t, err)

		identity, err := svc.Register(ctx, "alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, frozen, identity.CreatedAt)
	})
}

func TestIdentityService_FindByNickname(t *testing.T) {
	ctx := t.Context()
	svc, _ := newIdentityService(t)

	registered, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	t.Run("finds registered account", func(t *testing.T) {
		identity, err := svc.FindByNickname(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, identity.ID)
	})

	t.Run("exact match only", func(t *testing.T) {
		_, err := svc.FindByNickname(ctx, "Alice")
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})

	t.Run("unknown nickname", func(t *testing.T) {
		_, err := svc.FindByNickname(ctx, "nobody")
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})
}

func TestIdentityService_VerifyPassword(t *testing.T) {
	ctx := t.Context()
	svc, _ := newIdentityService(t)

	identity, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	assert.True(t, svc.VerifyPassword(identity, "secret1"))
	assert.False(t, svc.VerifyPassword(identity, "secret2"))
	assert.False(t, svc.VerifyPassword(identity, "Secret1"))
	assert.False(t, svc.VerifyPassword(identity, ""))
	assert.False(t, svc.VerifyPassword(nil, "secret1"))
}
