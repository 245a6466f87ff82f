// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/parley-chat/parley/internal/auth"
	authpg "github.com/parley-chat/parley/internal/auth/postgres"
	"github.com/parley-chat/parley/internal/store"
)

// NewRegisterCmd creates the register subcommand.
func NewRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <nickname>",
		Short: "Register a new account",
		Long: `Register a new account. The password is read from the first line of
stdin so it never appears in argv or shell history:

  printf '%s\n' "$PASSWORD" | parley register alice`,
		Args: cobra.ExactArgs(1),
		RunE: runRegister,
	}
}

func runRegister(cmd *cobra.Command, args []string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	password, err := readLine(cmd.InOrStdin())
	if err != nil {
		return oops.Code("CONFIG_INVALID").
			With("operation", "read password from stdin").
			Wrap(err)
	}

	ctx := cmd.Context()
	pool, err := store.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc, err := auth.NewIdentityService(authpg.NewIdentityRepository(pool), auth.NewSHA256Hasher())
	if err != nil {
		return err
	}

	identity, err := svc.Register(ctx, args[0], password)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateNickname) {
			return oops.Code("AUTH_DUPLICATE_NICKNAME").
				Errorf("nickname %q is already registered", args[0])
		}
		return err
	}

	cmd.Printf("Registered %s (id %s)\n", identity.Nickname, identity.ID)
	return nil
}

// readLine reads the first line from r, without the trailing newline.
func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err //nolint:wrapcheck // caller wraps
		}
		return "", errors.New("no input")
	}
	return scanner.Text(), nil
}
