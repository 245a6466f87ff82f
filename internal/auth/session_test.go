// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/auth"
)

const tokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	userID := ulid.Make()
	token := strings.Repeat("a", auth.TokenLength)

	t.Run("creates session stamped at issue time", func(t *testing.T) {
		session, err := auth.NewSession(userID, token, now)
		require.NoError(t, err)
		assert.Equal(t, token, session.Token)
		assert.Equal(t, userID, session.UserID)
		assert.Equal(t, now, session.CreatedAt)
		assert.Equal(t, now, session.LastActivity)
	})

	t.Run("rejects zero user ID", func(t *testing.T) {
		_, err := auth.NewSession(ulid.ULID{}, token, now)
		require.Error(t, err)
	})

	t.Run("rejects short token", func(t *testing.T) {
		_, err := auth.NewSession(userID, "short", now)
		require.Error(t, err)
	})

	t.Run("rejects long token", func(t *testing.T) {
		_, err := auth.NewSession(userID, token+"x", now)
		require.Error(t, err)
	})

	t.Run("rejects zero time", func(t *testing.T) {
		_, err := auth.NewSession(userID, token, time.Time{})
		require.Error(t, err)
	})
}

func TestSession_IsExpiredAt(t *testing.T) {
	issued := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	session, err := auth.NewSession(ulid.Make(), strings.Repeat("a", auth.TokenLength), issued)
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "at issue time", at: issued, want: false},
		{name: "just under TTL", at: issued.Add(auth.TokenTTL - time.Nanosecond), want: false},
		{name: "exactly at TTL", at: issued.Add(auth.TokenTTL), want: true},
		{name: "past TTL", at: issued.Add(auth.TokenTTL + time.Hour), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.IsExpiredAt(tt.at))
		})
	}
}

func TestGenerateToken(t *testing.T) {
	t.Run("has fixed length", func(t *testing.T) {
		token, err := auth.GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, auth.TokenLength)
	})

	t.Run("uses only alphanumeric characters", func(t *testing.T) {
		token, err := auth.GenerateToken()
		require.NoError(t, err)
		for _, c := range token {
			assert.Contains(t, tokenCharset, string(c))
		}
	})

	t.Run("does not repeat", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 100 {
			token, err := auth.GenerateToken()
			require.NoError(t, err)
			assert.False(t, seen[token], "token %q issued twice", token)
			seen[token] = true
		}
	})
}
