package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsTable keeps the bootstrap's bookkeeping apart from any other
// migrate user in the same warehouse.
const migrationsTable = "claimsdash_schema_migrations"

// ConnConfig returns a single-connection configuration using password as the credential.
func (p ConnParams) ConnConfig(password string) (*pgx.ConnConfig, error) {
	cfg, err := p.poolConfig(password)
	if err != nil {
		return nil, err
	}
	return cfg.ConnConfig, nil
}

// RunMigrations creates the reporting schema and claims table for development
// and demo warehouses. It is safe to call repeatedly; applied migrations are skipped.
// Canceling ctx stops the run between migrations.
func RunMigrations(ctx context.Context, connCfg *pgx.ConnConfig) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	db := stdlib.OpenDB(*connCfg)
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}

	dbDriver, err := migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "pgx5", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
