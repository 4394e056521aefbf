//go:build integration

// Package dbtest spins up a disposable Postgres container for integration
// tests shared across pkg/session, pkg/image, pkg/notification, and
// pkg/dispatcher.
package dbtest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/shifthive/capturequeue/pkg/db"
)

// NewPool starts a postgres:16-alpine container, runs every embedded
// migration against it, and returns a pool pointed at the container. The
// container and pool are torn down when the test completes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("capturequeue"),
		postgres.WithUsername("capturequeue"),
		postgres.WithPassword("capturequeue"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.Migrate(connStr))

	pool, err := db.Connect(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}
