// Package main applies the SQL migrations under migrations/ that create the
// key storage tables used by the server.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/liamcoop/dichotomous/internal/logger"
)

type config struct {
	databaseURL    string
	migrationsPath string
}

func (c *config) open() (*migrate.Migrate, error) {
	if c.databaseURL == "" {
		c.databaseURL = os.Getenv("DATABASE_URL")
	}
	if c.databaseURL == "" {
		return nil, errors.New("database URL is required: use --database or DATABASE_URL")
	}

	logger.Info("connecting to database", "migrations", c.migrationsPath)
	m, err := migrate.New("file://"+c.migrationsPath, c.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// withMigrate opens a migration instance for the duration of fn
func (c *config) withMigrate(fn func(m *migrate.Migrate) error) error {
	m, err := c.open()
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func rootCmd() *cobra.Command {
	cfg := &config{}

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the key storage schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfg.databaseURL, "database", "", "Database URL (defaults to DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&cfg.migrationsPath, "path", "migrations", "Path to migrations directory")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cfg.withMigrate(func(m *migrate.Migrate) error {
					err := m.Up()
					if errors.Is(err, migrate.ErrNoChange) {
						logger.Info("database is up to date")
						return nil
					}
					if err != nil {
						return fmt.Errorf("failed to run migrations: %w", err)
					}
					logger.Info("migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cfg.withMigrate(func(m *migrate.Migrate) error {
					if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
						return fmt.Errorf("failed to roll back migrations: %w", err)
					}
					logger.Info("rollback completed")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cfg.withMigrate(func(m *migrate.Migrate) error {
					version, dirty, err := m.Version()
					if errors.Is(err, migrate.ErrNilVersion) {
						fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
						return nil
					}
					if err != nil {
						return fmt.Errorf("failed to get version: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version number %q: %w", args[0], err)
				}
				return cfg.withMigrate(func(m *migrate.Migrate) error {
					if err := m.Force(version); err != nil {
						return fmt.Errorf("failed to force version: %w", err)
					}
					logger.Info("version forced", "version", version)
					return nil
				})
			},
		},
	)

	return cmd
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		logger.Fatal("migration failed", "error", err)
	}
}
