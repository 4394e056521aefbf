//go:build integration

package notification_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shifthive/capturequeue/internal/dbtest"
	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
	"github.com/shifthive/capturequeue/pkg/notification"
)

func TestDispatchPending_DeliversAndCommitsStatus(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.NewPool(t)
	repo := notification.New(pool)

	for i := 0; i < 3; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO schedule_notification (user_id, message) VALUES ($1, $2)`,
			100, fmt.Sprintf("message-%d", i))
		require.NoError(t, err)
	}

	var delivered []string
	claimed, sent, failed, err := repo.DispatchPending(ctx, func(_ context.Context, n *notification.Notification) error {
		delivered = append(delivered, n.Message)
		return nil
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, claimed)
	assert.Equal(t, 3, sent)
	assert.Equal(t, 0, failed)
	assert.Len(t, delivered, 3)

	claimedAgain, _, _, err := repo.DispatchPending(ctx, func(context.Context, *notification.Notification) error {
		t.Fatal("no pending rows should remain")
		return nil
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, claimedAgain)
}

func TestDispatchPending_MarksFailedOnSendError(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.NewPool(t)
	repo := notification.New(pool)

	_, err := pool.Exec(ctx, `INSERT INTO schedule_notification (user_id, message) VALUES ($1, $2)`, 101, "will fail")
	require.NoError(t, err)

	claimed, sent, failed, err := repo.DispatchPending(ctx, func(context.Context, *notification.Notification) error {
		return errors.New("delivery failed")
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, claimed)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, failed)

	var status string
	require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM schedule_notification WHERE user_id = $1`, 101).Scan(&status))
	assert.Equal(t, "failed", status)
}

func TestDispatchPending_CancellationLeavesRowsPending(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.NewPool(t)
	repo := notification.New(pool)

	_, err := pool.Exec(ctx, `INSERT INTO schedule_notification (user_id, message) VALUES ($1, $2)`, 102, "cancel me")
	require.NoError(t, err)

	_, _, _, err = repo.DispatchPending(ctx, func(ctx context.Context, _ *notification.Notification) error {
		return context.Canceled
	}, 10)
	assert.True(t, cqerrors.IsCancelled(err))

	var status string
	require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM schedule_notification WHERE user_id = $1`, 102).Scan(&status))
	assert.Equal(t, "pending", status, "cancellation must not commit any status write")
}
