// Package db owns the single pgxpool.Pool shared by every repository and the
// goose-driven schema migrator. It is constructed once per process and
// handed down; repositories never open their own connections.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/shifthive/capturequeue/pkg/errors"
	"github.com/shifthive/capturequeue/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pool is an alias for pgxpool.Pool, the type Connect returns and every
// repository constructor accepts.
type Pool = pgxpool.Pool

// Connect builds a connection pool for databaseURL. Callers own the
// returned pool's lifetime and must call Close.
func Connect(ctx context.Context, databaseURL string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.NewInternal("parse database url", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.NewTransient("connect to database", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.NewTransient("ping database", err)
	}
	return pool, nil
}

// Migrate runs every pending embedded migration against databaseURL. It
// opens its own short-lived database/sql connection because goose drives
// migrations through that interface, not pgx's native one; this connection
// is closed before Migrate returns and is never shared with the pool used
// for request traffic.
func Migrate(databaseURL string) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.NewInternal("set goose dialect", err)
	}

	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return errors.NewTransient("open migration connection", err)
	}
	defer func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Warnw("close migration connection", "error", closeErr)
		}
	}()

	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return errors.NewInternal("run migrations", err)
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return errors.NewInternal("read migration version", err)
	}
	logger.Infow("migrations applied", "version", version)
	return nil
}

// EnsureSchema is the idempotent entry point used by serve and the
// dispatcher commands before they begin accepting work. Callers log and
// refuse to start on error rather than panicking, per the config loader's
// "disabled, not panicked" rule.
func EnsureSchema(databaseURL string) error {
	if err := Migrate(databaseURL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
