//go:build integration

package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/shifthive/capturequeue/pkg/db"
)

func TestMigrate_IsIdempotent(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("capturequeue"),
		postgres.WithUsername("capturequeue"),
		postgres.WithPassword("capturequeue"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(context.Background())) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.Migrate(connStr))
	require.NoError(t, db.Migrate(connStr), "re-running migrations must be a no-op")

	pool, err := db.Connect(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	var tableCount int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name IN (
			'capture_session', 'capture_image', 'schedule_notification', 'day_schedule_version'
		)`).Scan(&tableCount)
	require.NoError(t, err)
	require.Equal(t, 4, tableCount)
}
