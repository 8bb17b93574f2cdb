// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

// Package store owns the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions controls how Connect waits for the database.
type ConnectOptions struct {
	// Attempts is the total number of connection attempts. Values below 1
	// mean a single attempt.
	Attempts uint64
	// InitialBackoff is the first retry delay; later delays double.
	InitialBackoff time.Duration
	// Logger receives one warning per failed attempt.
	Logger *slog.Logger
}

// DefaultConnectOptions returns the options used by the server.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{Attempts: 10, InitialBackoff: 250 * time.Millisecond}
}

// pinger is the pool operation Connect needs to verify a connection.
type pinger interface {
	Ping(ctx context.Context) error
	Close()
}

// newPool is replaced in tests.
var newPool = func(ctx context.Context, url string) (pinger, error) {
	return pgxpool.New(ctx, url)
}

// Connect opens a pgx pool and pings it, retrying with exponential backoff
// while the database is not yet reachable.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	p, err := connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	return p.(*pgxpool.Pool), nil //nolint:forcetypeassert // newPool returns *pgxpool.Pool outside tests
}

func connect(ctx context.Context, databaseURL string, opts ConnectOptions) (pinger, error) {
	if _, err := pgxpool.ParseConfig(databaseURL); err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := max(opts.Attempts, 1)
	base := opts.InitialBackoff
	if base <= 0 {
		base = DefaultConnectOptions().InitialBackoff
	}
	backoff := retry.WithMaxRetries(attempts-1, retry.WithCappedDuration(5*time.Second, retry.NewExponential(base)))

	var (
		pool    pinger
		attempt uint64
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := newPool(ctx, databaseURL)
		if err != nil {
			logger.Warn("database connect failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			logger.Warn("database ping failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "connect to database").
			With("attempts", attempt).
			Wrap(err)
	}
	return pool, nil
}
