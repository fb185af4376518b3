package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"prdtool/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		migrateCommand("up", "Apply all pending migrations", false, func(c *cobra.Command, m *migrate.Migrator) error {
			return m.Up(c.Context())
		}),
		migrateCommand("down", "Roll back the most recent migration", true, func(c *cobra.Command, m *migrate.Migrator) error {
			return m.Down(c.Context())
		}),
		migrateCommand("reset", "Roll back every migration (drops all tables for the prefix)", true, func(c *cobra.Command, m *migrate.Migrator) error {
			return m.Reset(c.Context())
		}),
		migrateCommand("status", "Show applied and pending migrations", false, func(c *cobra.Command, m *migrate.Migrator) error {
			return m.Status(c.Context(), c.OutOrStdout())
		}),
		migrateCommand("version", "Print the current schema version", false, func(c *cobra.Command, m *migrate.Migrator) error {
			v, err := m.Version(c.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), v)
			return nil
		}),
	)
	return cmd
}

// migrateCommand opens a migrator for the configured database and runs fn.
// Destructive commands are refused in production.
func migrateCommand(use, short string, destructive bool, fn func(*cobra.Command, *migrate.Migrator) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if destructive && cfg.Environment == "prod" {
				return errors.New("refusing to run a destructive migration in the prod environment")
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}

			m, err := migrate.Open(cfg.DatabaseURL, cfg.TablePrefix)
			if err != nil {
				return err
			}
			defer m.Close()

			logger.Info("migrate", "command", use, "table_prefix", cfg.TablePrefix)
			return fn(cmd, m)
		},
	}
}
