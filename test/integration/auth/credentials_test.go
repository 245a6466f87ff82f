// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

//go:build integration

package auth_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/parley-chat/parley/internal/auth"
)

var _ = Describe("Credentials", func() {
	var (
		ctx        context.Context
		identitySv *auth.IdentityService
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx, env.pool)
		identitySv, _ = newServices(time.Now)
	})

	Describe("Registration", func() {
		It("persists a new account", func() {
			identity, err := identitySv.Register(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())
			Expect(identity.Nickname).To(Equal("alice"))

			got, err := env.Identities.GetByNickname(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(identity.ID))
			Expect(got.PasswordHash).To(Equal(identity.PasswordHash))
		})

		It("never stores the plaintext password", func() {
			identity, err := identitySv.Register(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())
			Expect(identity.PasswordHash).NotTo(ContainSubstring("secret1"))
		})

		It("rejects a duplicate nickname via the unique constraint", func() {
			_, err := identitySv.Register(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			_, err = identitySv.Register(ctx, "alice", "adifferentpassword")
			Expect(err).To(MatchError(auth.ErrDuplicateNickname))
		})

		It("admits exactly one winner under concurrent registration", func() {
			const attempts = 8

			var wg sync.WaitGroup
			errs := make([]error, attempts)
			for i := range attempts {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_, errs[i] = identitySv.Register(ctx, "alice", "secret1")
				}()
			}
			wg.Wait()

			var won int
			for _, err := range errs {
				if err == nil {
					won++
				} else {
					Expect(err).To(MatchError(auth.ErrDuplicateNickname))
				}
			}
			Expect(won).To(Equal(1))
		})

		It("treats nicknames as case-sensitive", func() {
			_, err := identitySv.Register(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			_, err = identitySv.Register(ctx, "Alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			_, err = identitySv.FindByNickname(ctx, "ALICE")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("rejects a short password without persisting", func() {
			_, err := identitySv.Register(ctx, "bob", "12345")
			Expect(err).To(MatchError(auth.ErrInvalidInput))

			_, err = identitySv.FindByNickname(ctx, "bob")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("Password verification", func() {
		It("accepts only the exact password", func() {
			identity, err := identitySv.Register(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			Expect(identitySv.VerifyPassword(identity, "secret1")).To(BeTrue())
			Expect(identitySv.VerifyPassword(identity, "Secret1")).To(BeFalse())
			Expect(identitySv.VerifyPassword(identity, "secret2")).To(BeFalse())
		})
	})
})
