package notification

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shifthive/capturequeue/pkg/db"
	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
)

// Repository is the notification store. Construct with New.
type Repository struct {
	pool *pgxpool.Pool
}

// New builds a Repository backed by pool. The pool is owned by the caller.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SendFunc performs the external delivery call for one notification. It is
// injected so the repository never depends on a transport client directly.
type SendFunc func(ctx context.Context, n *Notification) error

const selectColumns = `
	id, user_id, message, status, created_at, sent_at,
	schedule_date, source_session_id::text, notification_type, event_ids`

func scanNotification(row interface{ Scan(dest ...any) error }) (*Notification, error) {
	var n Notification
	if err := row.Scan(
		&n.ID, &n.UserID, &n.Message, &n.Status, &n.CreatedAt, &n.SentAt,
		&n.ScheduleDate, &n.SourceSessionID, &n.NotificationType, &n.EventIDs,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

// DispatchPending claims up to batchSize pending rows, invokes send for
// each in (created_at, id) order, and commits the resulting sent/failed
// status updates atomically. Concurrent dispatchers never observe the same
// row because the claim read skips already-locked rows.
//
// Cancellation propagated from send aborts the transaction: the returned
// counts describe what ran before cancellation, but nothing is persisted
// (the batch remains pending for the next poll). On any other per-row
// failure the row is marked failed and the loop continues.
func (r *Repository) DispatchPending(ctx context.Context, send SendFunc, batchSize int) (claimed, sent, failed int, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, 0, cqerrors.NewTransient("dispatch_pending: begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT `+selectColumns+`
		FROM schedule_notification
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		batchSize,
	)
	if err != nil {
		if db.IsCancellation(err) {
			return 0, 0, 0, cqerrors.NewCancelled("dispatch_pending: claim batch", err)
		}
		return 0, 0, 0, cqerrors.NewInternal("dispatch_pending: claim batch", err)
	}

	var batch []*Notification
	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			rows.Close()
			if db.IsCancellation(scanErr) {
				return 0, 0, 0, cqerrors.NewCancelled("dispatch_pending: scan", scanErr)
			}
			return 0, 0, 0, cqerrors.NewInternal("dispatch_pending: scan", scanErr)
		}
		batch = append(batch, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		if db.IsCancellation(err) {
			return 0, 0, 0, cqerrors.NewCancelled("dispatch_pending: iterate", err)
		}
		return 0, 0, 0, cqerrors.NewInternal("dispatch_pending: iterate", err)
	}
	claimed = len(batch)

	for _, n := range batch {
		sendErr := send(ctx, n)
		if sendErr != nil && (errors.Is(sendErr, context.Canceled) || cqerrors.IsCancelled(sendErr)) {
			return claimed, sent, failed, cqerrors.NewCancelled("dispatch_pending: cancelled", sendErr)
		}

		if sendErr != nil {
			if _, updateErr := tx.Exec(ctx,
				`UPDATE schedule_notification SET status = 'failed' WHERE id = $1`,
				n.ID,
			); updateErr != nil {
				return claimed, sent, failed, cqerrors.NewInternal("dispatch_pending: mark failed", updateErr)
			}
			failed++
			continue
		}

		if _, updateErr := tx.Exec(ctx,
			`UPDATE schedule_notification SET status = 'sent', sent_at = now() WHERE id = $1`,
			n.ID,
		); updateErr != nil {
			return claimed, sent, failed, cqerrors.NewInternal("dispatch_pending: mark sent", updateErr)
		}
		sent++
	}

	if err := tx.Commit(ctx); err != nil {
		return claimed, sent, failed, cqerrors.NewTransient("dispatch_pending: commit", err)
	}
	return claimed, sent, failed, nil
}
