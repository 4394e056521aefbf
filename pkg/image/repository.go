package image

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shifthive/capturequeue/pkg/db"
	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
)

// Repository is the image store. Construct with New.
type Repository struct {
	pool *pgxpool.Pool
}

// New builds a Repository backed by pool. The pool is owned by the caller.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const selectColumns = `id, session_id, sequence, object_key, external_message_id, created_at`

func scanImage(row rowScanner) (*Image, error) {
	var img Image
	if err := row.Scan(&img.ID, &img.SessionID, &img.Sequence, &img.ObjectKey, &img.ExternalMessageID, &img.CreatedAt); err != nil {
		return nil, err
	}
	return &img, nil
}

// AppendNext allocates the next gap-free sequence number for sessionID and
// inserts the image under a row lock on the parent session, so concurrent
// appends to the same session never race on the sequence. The session-open
// guard trigger rejects the insert if the session is not Open.
func (r *Repository) AppendNext(ctx context.Context, sessionID uuid.UUID, objectKey string, externalMessageID *int64) (*Image, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		if db.IsCancellation(err) {
			return nil, cqerrors.NewCancelled("append_next: begin tx", err)
		}
		return nil, cqerrors.NewTransient("append_next: begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lockedID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM capture_session WHERE id = $1 FOR UPDATE`, sessionID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cqerrors.NewNotFound(fmt.Sprintf("session %s", sessionID), err)
		}
		if db.IsCancellation(err) {
			return nil, cqerrors.NewCancelled("append_next: lock session", err)
		}
		return nil, cqerrors.NewInternal("append_next: lock session", err)
	}

	var nextSequence int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(sequence), 0) + 1
		FROM capture_image
		WHERE session_id = $1`,
		sessionID,
	).Scan(&nextSequence)
	if err != nil {
		if db.IsCancellation(err) {
			return nil, cqerrors.NewCancelled("append_next: compute next sequence", err)
		}
		return nil, cqerrors.NewInternal("append_next: compute next sequence", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO capture_image (session_id, sequence, object_key, external_message_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+selectColumns,
		sessionID, nextSequence, objectKey, externalMessageID,
	)
	img, err := scanImage(row)
	if err != nil {
		return nil, db.TranslateWriteError(err, "append_next: insert")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, cqerrors.NewTransient("append_next: commit", err)
	}
	return img, nil
}

// CountBySession returns the number of images belonging to sessionID.
func (r *Repository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM capture_image WHERE session_id = $1`,
		sessionID,
	).Scan(&count)
	if err != nil {
		if db.IsCancellation(err) {
			return 0, cqerrors.NewCancelled("count_by_session", err)
		}
		return 0, cqerrors.NewInternal("count_by_session", err)
	}
	return count, nil
}

// ListBySession returns every image belonging to sessionID, ordered by
// ascending sequence.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Image, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM capture_image
		WHERE session_id = $1
		ORDER BY sequence ASC`,
		sessionID,
	)
	if err != nil {
		if db.IsCancellation(err) {
			return nil, cqerrors.NewCancelled("list_by_session: query", err)
		}
		return nil, cqerrors.NewInternal("list_by_session: query", err)
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			if db.IsCancellation(err) {
				return nil, cqerrors.NewCancelled("list_by_session: scan", err)
			}
			return nil, cqerrors.NewInternal("list_by_session: scan", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		if db.IsCancellation(err) {
			return nil, cqerrors.NewCancelled("list_by_session: iterate", err)
		}
		return nil, cqerrors.NewInternal("list_by_session: iterate", err)
	}
	return images, nil
}
