// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/latchkey/latchkey/internal/auth"
	"github.com/latchkey/latchkey/internal/auth/postgres"
	"github.com/latchkey/latchkey/internal/config"
	"github.com/latchkey/latchkey/internal/logging"
	"github.com/latchkey/latchkey/internal/store"
	"github.com/latchkey/latchkey/internal/web"
	"github.com/latchkey/latchkey/pkg/errutil"
)

const serviceName = "latchkey"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return newServeCmd(nil)
}

func newServeCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP auth server",
		Long: `Start the HTTP server exposing register, login, logout and the
session-guarded routes. In production, pending migrations run first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, deps)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()

	cfg, err := config.Load(config.LoadOptions{Flags: cmd.Flags(), Environ: deps.Environ})
	if err != nil {
		return oops.With("operation", "load configuration").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate configuration").Wrap(err)
	}

	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	logger := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  format,
		Level:   cfg.Level(),
		Writer:  cmd.ErrOrStderr(),
	})

	logger.Info("starting latchkey",
		"environment", string(cfg.Environment),
		"listen_addr", cfg.ListenAddr(),
		"metrics_addr", cfg.MetricsAddr,
	)

	connectOpts := store.DefaultConnectOptions()
	connectOpts.Attempts = cfg.DBConnectAttempts
	connectOpts.Logger = logger
	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL, connectOpts)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if cfg.IsProduction() {
		if err := autoMigrate(deps, cfg.DatabaseURL, logger); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Keep the recorders as interfaces so a disabled metrics server leaves
	// them nil rather than holding a typed nil pointer.
	var (
		outcomes  auth.OutcomeRecorder
		requests  web.RequestRecorder
		obsServer ObservabilityServer
	)
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, pool.Ping)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.MetricsAddr).Wrap(err)
		}
		go monitorServerErrors(ctx, stop, obsErrCh, "observability")
		metrics := obsServer.Metrics()
		outcomes, requests = metrics, metrics
	}

	svc, err := auth.NewService(auth.ServiceDeps{
		Transactor:  postgres.NewTransactor(pool),
		Users:       postgres.NewUserRepository(pool),
		Credentials: postgres.NewCredentialRepository(pool),
		Sessions:    postgres.NewSessionRepository(pool),
		Hasher:      auth.NewArgon2idHasherWithParams(cfg.Argon2.Params()),
		Strength:    auth.NewZxcvbnChecker(),
		Logger:      logger,
		Recorder:    outcomes,
	})
	if err != nil {
		stopObservability(obsServer, cfg.ShutdownTimeout, logger)
		return err
	}

	handler := web.NewServer(web.Options{
		Service:  svc,
		Cookie:   web.CookieOptions{Secure: cfg.CookieSecure},
		Logger:   logger,
		Recorder: requests,
	}).Handler()

	listener, err := deps.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		stopObservability(obsServer, cfg.ShutdownTimeout, logger)
		return oops.Code("LISTEN_FAILED").With("addr", cfg.ListenAddr()).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	cmd.Println("Latchkey listening on " + listener.Addr().String())
	logger.Info("http server listening", "addr", listener.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		errutil.LogError(ctx, logger, "http server failed", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	stopObservability(obsServer, cfg.ShutdownTimeout, logger)

	logger.Info("shutdown complete")
	return runErr
}

// autoMigrate applies pending migrations before the server accepts traffic.
func autoMigrate(deps *Deps, databaseURL string, logger *slog.Logger) error {
	m, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	logger.Info("running database migrations")
	if err := m.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	version, _, err := m.Version()
	if err != nil {
		return oops.With("operation", "read schema version").Wrap(err)
	}
	logger.Info("database schema up to date", "version", version)
	return nil
}

func stopObservability(s ObservabilityServer, timeout time.Duration, logger *slog.Logger) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels the run when a background server fails.
// It exits when an error arrives, the channel closes, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
