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

var _ = Describe("Sessions", func() {
	var (
		ctx        context.Context
		clockMu    sync.Mutex
		clockNow   time.Time
		identitySv *auth.IdentityService
		sessionSv  *auth.SessionService
	)

	now := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return clockNow
	}

	advance := func(d time.Duration) {
		clockMu.Lock()
		defer clockMu.Unlock()
		clockNow = clockNow.Add(d)
	}

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx, env.pool)
		clockNow = time.Now().UTC().Truncate(time.Microsecond)
		identitySv, sessionSv = newServices(now)

		_, err := identitySv.Register(ctx, "alice", "secret1")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Login", func() {
		It("issues a validating token for correct credentials", func() {
			token, err := sessionSv.Login(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(HaveLen(auth.TokenLength))
			Expect(sessionSv.Check(ctx, token)).To(Succeed())
		})

		It("rejects an unknown nickname", func() {
			_, err := sessionSv.Login(ctx, "nobody", "secret1")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("rejects a wrong password", func() {
			_, err := sessionSv.Login(ctx, "alice", "secret2")
			Expect(err).To(MatchError(auth.ErrWrongPassword))
		})

		It("atomically supersedes the previous token on relogin", func() {
			first, err := sessionSv.Login(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			second, err := sessionSv.Login(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())
			Expect(second).NotTo(Equal(first))

			Expect(sessionSv.Check(ctx, first)).To(MatchError(auth.ErrNotFound))
			Expect(sessionSv.Check(ctx, second)).To(Succeed())
		})

		It("leaves exactly one row under concurrent logins", func() {
			const attempts = 8

			var wg sync.WaitGroup
			for range attempts {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_, err := sessionSv.Login(ctx, "alice", "secret1")
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			var count int
			err := env.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})

	Describe("Expiry", func() {
		It("expires a token once its age reaches the TTL", func() {
			token, err := sessionSv.Login(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			advance(auth.TokenTTL - time.Second)
			Expect(sessionSv.Check(ctx, token)).To(Succeed())

			advance(time.Second)
			Expect(sessionSv.Check(ctx, token)).To(MatchError(auth.ErrTokenExpired))
		})

		It("sweeps expired rows from storage", func() {
			token, err := sessionSv.Login(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			cutoff := now().Add(time.Hour)
			n, err := env.Sessions.DeleteExpired(ctx, cutoff)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			Expect(sessionSv.Check(ctx, token)).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("Logout", func() {
		It("revokes the token and is idempotent", func() {
			token, err := sessionSv.Login(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			Expect(sessionSv.Logout(ctx, token)).To(Succeed())
			Expect(sessionSv.Check(ctx, token)).To(MatchError(auth.ErrNotFound))
			Expect(sessionSv.Logout(ctx, token)).To(Succeed())
		})
	})

	Describe("Renew", func() {
		It("rotates the token and resets the expiry window", func() {
			identity, err := identitySv.FindByNickname(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())

			old, err := sessionSv.Login(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			advance(23 * time.Hour)
			fresh, err := sessionSv.Renew(ctx, identity.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh).NotTo(Equal(old))

			advance(23 * time.Hour)
			Expect(sessionSv.Check(ctx, fresh)).To(Succeed())
			Expect(sessionSv.Check(ctx, old)).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("Touch", func() {
		It("stamps last activity without rotating the token", func() {
			token, err := sessionSv.Login(ctx, "alice", "secret1")
			Expect(err).NotTo(HaveOccurred())

			advance(10 * time.Minute)
			Expect(sessionSv.Touch(ctx, token)).To(Succeed())

			session, err := env.Sessions.GetByToken(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.LastActivity.Sub(session.CreatedAt)).To(Equal(10 * time.Minute))
		})
	})
})
