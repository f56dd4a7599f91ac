// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bandmate/harmony/internal/auth"
	authpg "github.com/bandmate/harmony/internal/auth/postgres"
	"github.com/bandmate/harmony/internal/config"
	"github.com/bandmate/harmony/internal/events"
	eventspg "github.com/bandmate/harmony/internal/events/postgres"
	"github.com/bandmate/harmony/internal/httpapi"
	"github.com/bandmate/harmony/internal/logging"
	"github.com/bandmate/harmony/internal/observability"
	"github.com/bandmate/harmony/internal/profile"
	profilepg "github.com/bandmate/harmony/internal/profile/postgres"
	"github.com/bandmate/harmony/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server which handles authentication,
profiles, and event listings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	cmd.Flags().String("server.addr", config.DefaultServerAddr, "API listen address")
	cmd.Flags().String("server.metrics_addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().String("log.format", config.DefaultLogFormat, "log format (json or text)")
	cmd.Flags().String("log.level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	logging.SetDefault("harmony", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"log_format", cfg.Log.Format,
	)

	pool, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("connected to database")

	hasher := auth.NewArgon2idHasher()
	tokens, err := auth.NewTokenIssuer([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	accountRepo := authpg.NewAccountRepository(pool)
	profileRepo := profilepg.NewProfileRepository(pool)
	eventRepo := eventspg.NewEventRepository(pool)

	authSvc, err := auth.NewServiceWithLogger(accountRepo, hasher, tokens, logger)
	if err != nil {
		return err
	}
	profileSvc, err := profile.NewService(profileRepo, logger)
	if err != nil {
		return err
	}
	eventSvc, err := events.NewService(eventRepo, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Server.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.Server.MetricsAddr, func() bool {
			return pool.Ping(ctx) == nil
		})
		metrics = obsServer.Metrics()

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	apiServer, err := httpapi.NewServer(cfg.Server.Addr, httpapi.Deps{
		Auth:     authSvc,
		Tokens:   tokens,
		Profiles: profileSvc,
		Events:   eventSvc,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	apiErrChan, err := apiServer.Start()
	if err != nil {
		if obsServer != nil {
			stopServer(obsServer.Stop, "observability")
		}
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Server started")
	logger.Info("server ready", "addr", apiServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	stopServer(apiServer.Stop, "api")
	if obsServer != nil {
		stopServer(obsServer.Stop, "observability")
	}

	logger.Info("shutdown complete")
	return nil
}

// stopServer stops a server with a bounded timeout, logging failures.
func stopServer(stop func(context.Context) error, name string) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(shutdownCtx); err != nil {
		slog.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors monitors a server's error channel and cancels the
// context on error so server failures trigger graceful shutdown.
// It exits when an error is received, the channel is closed, or the
// context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}
