// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

//go:build integration

package auth_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/latchkey/latchkey/internal/auth"
	authpg "github.com/latchkey/latchkey/internal/auth/postgres"
	"github.com/latchkey/latchkey/internal/observability"
	"github.com/latchkey/latchkey/internal/store"
	"github.com/latchkey/latchkey/internal/web"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth HTTP Integration Suite")
}

// testEnv holds the resources shared by the specs.
type testEnv struct {
	ctx       context.Context
	container testcontainers.Container
	pool      *pgxpool.Pool
	server    *httptest.Server
	metrics   *observability.Metrics
}

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupTestEnv() (*testEnv, error) {
	ctx := context.Background()

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
	if err != nil {
		return nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	_ = migrator.Close()

	pool, err := store.Connect(ctx, connStr, store.DefaultConnectOptions())
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.DiscardHandler)
	svc, err := auth.NewService(auth.ServiceDeps{
		Transactor:  authpg.NewTransactor(pool),
		Users:       authpg.NewUserRepository(pool),
		Credentials: authpg.NewCredentialRepository(pool),
		Sessions:    authpg.NewSessionRepository(pool),
		Hasher: auth.NewArgon2idHasherWithParams(auth.Argon2Params{
			MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
		}),
		Strength: auth.NewZxcvbnChecker(),
		Logger:   logger,
		Recorder: metrics,
	})
	if err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}

	server := httptest.NewServer(web.NewServer(web.Options{
		Service:  svc,
		Logger:   logger,
		Recorder: metrics,
	}).Handler())

	return &testEnv{
		ctx:       ctx,
		container: container,
		pool:      pool,
		server:    server,
		metrics:   metrics,
	}, nil
}

func (e *testEnv) cleanup() {
	e.server.Close()
	e.pool.Close()
	_ = e.container.Terminate(e.ctx)
}

// truncate empties every auth table.
func (e *testEnv) truncate() {
	_, err := e.pool.Exec(e.ctx, "TRUNCATE sessions, credentials, users CASCADE")
	Expect(err).NotTo(HaveOccurred())
}

func (e *testEnv) count(table string) int {
	var n int
	Expect(e.pool.QueryRow(e.ctx, "SELECT count(*) FROM "+table).Scan(&n)).To(Succeed())
	return n
}
