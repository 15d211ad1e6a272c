package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/redmonkez12/meditrack-api/internal/database/migrations"
)

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m *migrate.Migrator
}

func NewMigrator(db *bun.DB) *Migrator {
	return &Migrator{m: migrate.NewMigrator(db, migrations.Migrations)}
}

// Up applies all pending migrations as one group and returns a summary.
func (m *Migrator) Up(ctx context.Context) (string, error) {
	if err := m.m.Init(ctx); err != nil {
		return "", fmt.Errorf("failed to init migration tables: %w", err)
	}

	if err := m.m.Lock(ctx); err != nil {
		return "", fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer m.m.Unlock(ctx) //nolint:errcheck

	group, err := m.m.Migrate(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to migrate: %w", err)
	}
	if group.IsZero() {
		return "no new migrations", nil
	}

	return fmt.Sprintf("migrated to %s", group), nil
}

// Down rolls back the most recent migration group.
func (m *Migrator) Down(ctx context.Context) (string, error) {
	if err := m.m.Lock(ctx); err != nil {
		return "", fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer m.m.Unlock(ctx) //nolint:errcheck

	group, err := m.m.Rollback(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to rollback: %w", err)
	}
	if group.IsZero() {
		return "no groups to roll back", nil
	}

	return fmt.Sprintf("rolled back %s", group), nil
}

// Status lists applied and pending migrations.
func (m *Migrator) Status(ctx context.Context) (string, error) {
	if err := m.m.Init(ctx); err != nil {
		return "", fmt.Errorf("failed to init migration tables: %w", err)
	}

	ms, err := m.m.MigrationsWithStatus(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read migration status: %w", err)
	}

	return fmt.Sprintf("migrations: %s\nunapplied: %s\nlast group: %s", ms, ms.Unapplied(), ms.LastGroup()), nil
}
