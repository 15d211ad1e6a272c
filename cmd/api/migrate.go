package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/meditrack-api/internal/config"
	"github.com/redmonkez12/meditrack-api/internal/database"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) (string, error) {
					return m.Up(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration group",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) (string, error) {
					return m.Down(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) (string, error) {
					return m.Status(ctx)
				})
			},
		},
	)

	return migrateCmd
}

func withMigrator(cmd *cobra.Command, run func(context.Context, *database.Migrator) (string, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cmd.Println("Connecting to database...")
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	summary, err := run(ctx, database.NewMigrator(db))
	if err != nil {
		return err
	}

	cmd.Println(summary)
	return nil
}
