// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/parley-chat/parley/pkg/errutil"
)

// Sweeper periodically prunes sessions whose TTL has elapsed. Expiry is
// enforced lazily by SessionService.Check regardless of storage presence;
// sweeping only reclaims storage and is optional for correctness.
type Sweeper struct {
	sessions SessionRepository
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	onPruned func(count int64)
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithPruneCallback registers a callback invoked with the number of
// sessions removed by each successful sweep. Used to feed metrics.
func WithPruneCallback(fn func(count int64)) SweeperOption {
	return func(s *Sweeper) {
		if fn != nil {
			s.onPruned = fn
		}
	}
}

// NewSweeper creates a Sweeper that prunes at the given interval.
func NewSweeper(sessions SessionRepository, interval time.Duration, logger *slog.Logger, opts ...SweeperOption) (*Sweeper, error) {
	if sessions == nil {
		return nil, oops.Errorf("session repository is required")
	}
	if interval <= 0 {
		return nil, oops.Errorf("sweep interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run sweeps until the context is cancelled. Sweep failures are logged and
// the loop continues; stale records are harmless until the next pass.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := s.now().Add(-TokenTTL)
			n, err := s.sessions.DeleteExpired(ctx, cutoff)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errutil.LogError(s.logger, "session sweep failed", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("pruned expired sessions", "count", n)
			}
			if s.onPruned != nil {
				s.onPruned(n)
			}
		}
	}
}
