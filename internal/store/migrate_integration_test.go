// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/latchkey/latchkey/internal/store"
)

func startPostgres(ctx context.Context) (string, func()) {
	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("latchkey_test"),
		postgres.WithUsername("latchkey"),
		postgres.WithPassword("latchkey"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	return connStr, func() { _ = container.Terminate(ctx) }
}

var _ = Describe("Migrator", func() {
	var (
		ctx      context.Context
		connStr  string
		stop     func()
		migrator *store.Migrator
	)

	BeforeEach(func() {
		ctx = context.Background()
		connStr, stop = startPostgres(ctx)

		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = migrator.Close()
		stop()
	})

	It("starts at version zero with everything pending", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		pending, err := migrator.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(Equal([]uint{1, 2, 3}))
	})

	It("walks up, steps and down", func() {
		latest, err := store.LatestVersion()
		Expect(err).NotTo(HaveOccurred())

		Expect(migrator.Up()).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(latest))
		Expect(dirty).To(BeFalse())

		Expect(migrator.Up()).To(Succeed(), "up is idempotent")

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(latest - 1))

		Expect(migrator.Steps(1)).To(Succeed())
		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})

	It("creates the auth schema", func() {
		Expect(migrator.Up()).To(Succeed())

		pool, err := store.Connect(ctx, connStr, store.DefaultConnectOptions())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		var userID string
		Expect(pool.QueryRow(ctx,
			`INSERT INTO users (username) VALUES ('alice') RETURNING id`).Scan(&userID)).To(Succeed())

		_, err = pool.Exec(ctx,
			`INSERT INTO credentials (user_id, email, password) VALUES ($1, 'a@x.com', 'h')`, userID)
		Expect(err).NotTo(HaveOccurred())

		By("rejecting a second credential with the same email")
		var otherID string
		Expect(pool.QueryRow(ctx,
			`INSERT INTO users (username) VALUES ('bob') RETURNING id`).Scan(&otherID)).To(Succeed())
		_, err = pool.Exec(ctx,
			`INSERT INTO credentials (user_id, email, password) VALUES ($1, 'a@x.com', 'h')`, otherID)
		Expect(err).To(HaveOccurred())

		By("cascading user deletion to sessions")
		_, err = pool.Exec(ctx, `INSERT INTO sessions (user_id) VALUES ($1)`, userID)
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		Expect(err).NotTo(HaveOccurred())
		var n int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM sessions`).Scan(&n)).To(Succeed())
		Expect(n).To(BeZero())
	})

	It("forces a version without running SQL", func() {
		Expect(migrator.Force(2)).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
		Expect(dirty).To(BeFalse())
	})
})

var _ = Describe("Connect", func() {
	It("returns a pool once the database answers", func() {
		ctx := context.Background()
		connStr, stop := startPostgres(ctx)
		DeferCleanup(stop)

		var pool *pgxpool.Pool
		var err error
		pool, err = store.Connect(ctx, connStr, store.ConnectOptions{Attempts: 3, InitialBackoff: 100 * time.Millisecond})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)
		Expect(pool.Ping(ctx)).To(Succeed())
	})
})
