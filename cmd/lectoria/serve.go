// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chicohaager/lectoria/internal/auth"
	authpg "github.com/chicohaager/lectoria/internal/auth/postgres"
	"github.com/chicohaager/lectoria/internal/config"
	"github.com/chicohaager/lectoria/internal/library"
	librarypg "github.com/chicohaager/lectoria/internal/library/postgres"
	"github.com/chicohaager/lectoria/internal/logging"
	"github.com/chicohaager/lectoria/internal/observability"
	"github.com/chicohaager/lectoria/internal/share"
	sharepg "github.com/chicohaager/lectoria/internal/share/postgres"
	"github.com/chicohaager/lectoria/internal/store"
	lectoriatls "github.com/chicohaager/lectoria/internal/tls"
	"github.com/chicohaager/lectoria/internal/web"
	"github.com/chicohaager/lectoria/internal/xdg"
)

// SchemaMigrator runs pending migrations on startup.
type SchemaMigrator interface {
	Up() error
	Close() error
}

// ServeDeps contains injectable dependencies for the serve command.
// Nil fields use their default implementations.
type ServeDeps struct {
	// LoadConfig loads the server configuration.
	// Default: config.Load
	LoadConfig func(path string, flags *pflag.FlagSet) (*config.Config, error)

	// ConnectDB opens the connection pool.
	// Default: store.Connect
	ConnectDB func(ctx context.Context, databaseURL string) (*pgxpool.Pool, error)

	// NewMigrator creates the startup migrator.
	// Default: store.NewMigrator
	NewMigrator func(databaseURL string) (SchemaMigrator, error)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Lectoria server",
		Long: `Start the API server, apply pending database migrations and serve
metrics and health probes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, nil)
		},
	}

	// Flag names mirror the config keys so koanf can overlay them.
	cmd.Flags().String("listen", "", "API listen address")
	cmd.Flags().String("metrics_listen", "", "metrics/health listen address (empty = disabled)")
	cmd.Flags().String("data_dir", "", "document storage directory")
	cmd.Flags().String("log_format", "", "log format (json or text)")
	cmd.Flags().String("log_level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("environment", "", "environment (development or production)")
	cmd.Flags().Bool("auto_migrate", true, "apply pending migrations on startup")

	return cmd
}

// runServe wires the whole server together and blocks until a shutdown
// signal or a fatal server error.
func runServe(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.LoadConfig == nil {
		deps.LoadConfig = config.Load
	}
	if deps.ConnectDB == nil {
		deps.ConnectDB = store.Connect
	}
	if deps.NewMigrator == nil {
		deps.NewMigrator = func(databaseURL string) (SchemaMigrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}

	cfg, err := deps.LoadConfig(resolveConfigFile(), cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("lectoria", version, cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))

	signingKey := []byte(cfg.Auth.SigningKey)
	if len(signingKey) == 0 {
		// Validate() already refused this in production.
		signingKey = make([]byte, 32)
		if _, err := rand.Read(signingKey); err != nil {
			return oops.Code("AUTH_NO_SIGNING_KEY").With("operation", "generate ephemeral key").Wrap(err)
		}
		slog.Warn("no signing key configured, using an ephemeral one; sessions will not survive a restart")
	}

	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url (or DATABASE_URL) is required")
	}

	pool, err := deps.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if autoMigrate, _ := cmd.Flags().GetBool("auto_migrate"); autoMigrate {
		migrator, err := deps.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		err = migrator.Up()
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
		if err != nil {
			return err
		}
		slog.Info("database migrations applied")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Domain wiring.
	audit := auth.NewAuditLog(slog.Default())

	limiter := auth.NewLimiter(auth.NewMemoryAttemptStore(), cfg.Auth.MaxLoginAttempts, cfg.Auth.LockoutWindow)
	go limiter.SweepLoop(ctx, auth.DefaultSweepInterval)

	issuer, err := auth.NewTokenIssuer(signingKey, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	validator, err := auth.NewTokenValidator(signingKey)
	if err != nil {
		return err
	}

	authSvc, err := auth.NewService(authpg.NewUserRepository(pool), auth.NewArgon2idHasher(), limiter, issuer, audit)
	if err != nil {
		return err
	}

	files, err := library.NewFileStore(cfg.DataDir, cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}
	lib, err := library.NewService(librarypg.NewDocumentRepository(pool), files)
	if err != nil {
		return err
	}

	shares, err := share.NewManager(sharepg.NewShareRepository(pool), library.NewShareDirectory(lib), audit)
	if err != nil {
		return err
	}

	// Observability server first so the API can record metrics.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsListen != "" {
		obsServer = observability.NewServer(cfg.MetricsListen, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()

		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
	}

	api, err := web.NewAPI(authSvc, validator, shares, lib, audit, metrics, slog.Default())
	if err != nil {
		return err
	}

	apiServer := web.NewServer(cfg.Listen, api.Router())
	if cfg.TLS.Enabled {
		certFile, keyFile := cfg.TLS.CertFile, cfg.TLS.KeyFile
		if certFile == "" {
			// Development only; Validate() refuses this in production.
			certFile, keyFile, err = lectoriatls.EnsureServerCert(xdg.CertsDir(), []string{"localhost", "127.0.0.1"})
			if err != nil {
				return err
			}
			slog.Warn("serving with a self-signed certificate", "cert", certFile)
		}
		apiServer.UseTLS(certFile, keyFile)
	}
	apiErrCh, err := apiServer.Start()
	if err != nil {
		if obsServer != nil {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				slog.Warn("failed to stop observability server during cleanup", "error", stopErr)
			}
		}
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Lectoria server started")
	slog.Info("server ready",
		"listen", apiServer.Addr(),
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
	)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors watches a server's error channel and cancels the
// context on error so one failing server takes the process down
// gracefully. It exits when an error arrives, the channel closes, or
// the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
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
	}
}
