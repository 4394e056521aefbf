//go:build integration

package session_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shifthive/capturequeue/internal/dbtest"
	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
	"github.com/shifthive/capturequeue/pkg/session"
)

func mustRandomUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return id
}

func newRepo(t *testing.T) *session.Repository {
	t.Helper()
	return session.New(dbtest.NewPool(t))
}

func TestCreate_RejectsSecondOpenSession(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	first, err := repo.Create(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.Open, first.State)

	_, err = repo.Create(ctx, 1)
	assert.True(t, cqerrors.IsUniquenessConflict(err))
}

func TestGetOrCreateOpen_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	first, err := repo.GetOrCreateOpen(ctx, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := repo.GetOrCreateOpen(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestCloseOpen_NoOpenSessionReturnsNil(t *testing.T) {
	repo := newRepo(t)
	s, err := repo.CloseOpen(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestCloseOpen_ClosesMostRecentOpenSession(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created, err := repo.Create(ctx, 3)
	require.NoError(t, err)

	closed, err := repo.CloseOpen(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, created.ID, closed.ID)
	assert.Equal(t, session.Closed, closed.State)
	assert.NotNil(t, closed.ClosedAt)

	again, err := repo.CloseOpen(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestClaimNextClosedForProcessing_SkipsSessionsWithoutImages(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Create(ctx, 4)
	require.NoError(t, err)
	_, err = repo.CloseOpen(ctx, 4)
	require.NoError(t, err)

	claimed, err := repo.ClaimNextClosedForProcessing(ctx)
	require.NoError(t, err)
	assert.Nil(t, claimed, "closed session with zero images must never be claimed")
}

func TestUpdateState_RejectsIllegalTransition(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created, err := repo.Create(ctx, 5)
	require.NoError(t, err)

	_, err = repo.UpdateState(ctx, created.ID, session.Done, nil)
	assert.True(t, cqerrors.IsIllegalTransition(err))
}

func TestUpdateState_ToFailedStampsError(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created, err := repo.Create(ctx, 6)
	require.NoError(t, err)

	msg := "boom"
	failed, err := repo.UpdateState(ctx, created.ID, session.Failed, &msg)
	require.NoError(t, err)
	assert.Equal(t, session.Failed, failed.State)
	require.NotNil(t, failed.Error)
	assert.Equal(t, msg, *failed.Error)
}

func TestGetByID_NotFound(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.GetByID(context.Background(), mustRandomUUID(t))
	assert.True(t, cqerrors.IsNotFound(err))
}

func TestGetOpen_CancelledContextIsCancelled(t *testing.T) {
	repo := newRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetOpen(ctx, 7)
	assert.True(t, cqerrors.IsCancelled(err))
}

func TestGetByID_CancelledContextIsCancelled(t *testing.T) {
	repo := newRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetByID(ctx, mustRandomUUID(t))
	assert.True(t, cqerrors.IsCancelled(err))
}
