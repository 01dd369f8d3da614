// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/chicohaager/lectoria/internal/config"
	"github.com/chicohaager/lectoria/internal/store"
)

// databaseMigrator is the migration surface the CLI drives. It matches
// store.Migrator and exists so tests can inject a mock.
type databaseMigrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Close() error
}

// MigrateDeps contains injectable dependencies for the migrate command.
// Nil fields use their default implementations.
type MigrateDeps struct {
	// NewMigrator creates the migrator for a database URL.
	// Default: store.NewMigrator
	NewMigrator func(databaseURL string) (databaseMigrator, error)
}

// migrateConfig holds flag values for the migrate command.
type migrateConfig struct {
	down bool
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cfg := &migrateConfig{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Run all pending database migrations against the PostgreSQL database.

With --down, roll back ALL migrations instead. This drops every table
and is destructive.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, cfg, nil)
		},
	}

	cmd.Flags().BoolVar(&cfg.down, "down", false, "roll back all migrations (destructive)")

	return cmd
}

func runMigrate(cmd *cobra.Command, cfg *migrateConfig, deps *MigrateDeps) error {
	if deps == nil {
		deps = &MigrateDeps{}
	}
	if deps.NewMigrator == nil {
		deps.NewMigrator = func(databaseURL string) (databaseMigrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}

	databaseURL, err := resolveDatabaseURL(resolveConfigFile())
	if err != nil {
		return err
	}

	migrator, err := deps.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			cmd.PrintErrln("warning: failed to close migrator:", err)
		}
	}()

	if cfg.down {
		cmd.Println("Rolling back all migrations...")
		if err := migrator.Down(); err != nil {
			return err
		}
		cmd.Println("Rollback completed successfully")
		return nil
	}

	cmd.Println("Running migrations...")
	if err := migrator.Up(); err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	if dirty {
		return oops.Code("MIGRATION_DIRTY").
			With("version", version).
			Errorf("schema is dirty at version %d; manual intervention required", version)
	}

	cmd.Printf("Migrations completed successfully (schema version %d)\n", version)
	return nil
}

// resolveDatabaseURL finds the database URL for CLI commands. The
// DATABASE_URL environment variable wins; otherwise the config file
// named by --config is consulted.
func resolveDatabaseURL(path string) (string, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	if path != "" {
		cfg, err := config.Load(path, nil)
		if err != nil {
			return "", err
		}
		if cfg.DatabaseURL != "" {
			return cfg.DatabaseURL, nil
		}
	}
	return "", oops.Code("CONFIG_INVALID").
		Errorf("database URL is required: set DATABASE_URL or database_url in the config file")
}
