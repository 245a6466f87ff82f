// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/auth/memory"
	authpg "github.com/parley-chat/parley/internal/auth/postgres"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/logging"
	"github.com/parley-chat/parley/internal/observability"
	"github.com/parley-chat/parley/internal/store"
	"github.com/parley-chat/parley/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the auth maintenance process",
		Long: `Run the auth maintenance process: connects the backing store,
serves metrics and health probes, and periodically prunes expired
sessions. Token expiry itself is enforced at validation time and does
not depend on this process running.`,
		RunE: runServe,
	}

	cmd.Flags().String("metrics-addr", defaults.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("store", defaults.Store, "backing store (postgres or memory)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection string (default: DATABASE_URL env)")
	cmd.Flags().String("log-format", defaults.LogFormat, "log format (json or text)")
	cmd.Flags().Duration("sweep-interval", defaults.SweepInterval, "expired session sweep interval (0 = disabled)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("parley", version, cfg.LogFormat)
	logger := slog.Default()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	var (
		sessions auth.SessionRepository
		ready    atomic.Bool
	)

	switch cfg.Store {
	case config.StorePostgres:
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		sessions = authpg.NewSessionRepository(pool)
	case config.StoreMemory:
		logger.Warn("using in-memory session store for maintenance-loop smoke tests; sessions are lost on exit")
		sessions = memory.NewSessionRepository()
	}

	var obs *observability.Server
	var obsErrCh <-chan error
	if cfg.MetricsAddr != "" {
		obs = observability.NewServer(cfg.MetricsAddr, ready.Load)
		obsErrCh, err = obs.Start()
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := obs.Stop(shutdownCtx); stopErr != nil {
				errutil.LogError(logger, "observability shutdown failed", stopErr)
			}
		}()
	}

	sweepDone := make(chan struct{})
	if cfg.SweepInterval > 0 {
		opts := []auth.SweeperOption{}
		if obs != nil {
			metrics := obs.Metrics()
			opts = append(opts, auth.WithPruneCallback(func(count int64) {
				metrics.SessionsPruned.Add(float64(count))
			}))
		}
		sweeper, err := auth.NewSweeper(sessions, cfg.SweepInterval, logger, opts...)
		if err != nil {
			return err
		}
		go func() {
			defer close(sweepDone)
			sweeper.Run(ctx)
		}()
	} else {
		close(sweepDone)
	}

	ready.Store(true)
	logger.Info("parley auth service ready",
		"store", cfg.Store,
		"metrics_addr", cfg.MetricsAddr,
		"sweep_interval", cfg.SweepInterval.String(),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-obsErrCh:
		if err != nil {
			errutil.LogError(logger, "observability server failed", err)
		}
	}

	ready.Store(false)
	stop()
	<-sweepDone
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
