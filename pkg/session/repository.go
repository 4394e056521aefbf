package session

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

// Repository is the session store. A zero value is not usable; construct
// with New.
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

func scanSession(row rowScanner) (*Session, error) {
	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.State, &s.CreatedAt, &s.ClosedAt, &s.Error); err != nil {
		return nil, err
	}
	return &s, nil
}

const selectColumns = `id, user_id, state, created_at, closed_at, error`

// Create inserts a new Open row for userID. Fails with UniquenessConflict if
// the user already has an Open session; the caller recovers via GetOpen.
func (r *Repository) Create(ctx context.Context, userID int64) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO capture_session (user_id, state)
		VALUES ($1, 'open')
		RETURNING `+selectColumns,
		userID,
	)
	s, err := scanSession(row)
	if err != nil {
		return nil, db.TranslateWriteError(err, "create session")
	}
	return s, nil
}

// GetOrCreateOpen returns the user's Open session, creating one if absent.
// Races are resolved with a single re-read; a second collision is Internal.
func (r *Repository) GetOrCreateOpen(ctx context.Context, userID int64) (*Session, error) {
	if s, err := r.GetOpen(ctx, userID); err != nil {
		return nil, err
	} else if s != nil {
		return s, nil
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO capture_session (user_id, state)
		VALUES ($1, 'open')
		ON CONFLICT (user_id) WHERE state = 'open' DO NOTHING
		RETURNING `+selectColumns,
		userID,
	)
	s, err := scanSession(row)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, db.TranslateWriteError(err, "get_or_create_open: insert")
	}

	// Lost the insert race to a concurrent caller; the row must exist now.
	s, err = r.GetOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, cqerrors.NewInternal("get_or_create_open: no open session after insert race", nil)
	}
	return s, nil
}

// GetOpen returns the user's Open session, or nil if none exists.
func (r *Repository) GetOpen(ctx context.Context, userID int64) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+selectColumns+`
		FROM capture_session
		WHERE user_id = $1 AND state = 'open'
		ORDER BY created_at DESC
		LIMIT 1`,
		userID,
	)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if db.IsCancellation(err) {
			return nil, cqerrors.NewCancelled("get_open: scan", err)
		}
		return nil, cqerrors.NewInternal("get_open: scan", err)
	}
	return s, nil
}

// CloseOpen locks and closes the user's Open session in one statement,
// returning the closed row. Returns nil if the user has no Open session.
func (r *Repository) CloseOpen(ctx context.Context, userID int64) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE capture_session
		SET state = 'closed'
		WHERE id = (
			SELECT id FROM capture_session
			WHERE user_id = $1 AND state = 'open'
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING `+selectColumns,
		userID,
	)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.TranslateWriteError(err, "close_open")
	}
	return s, nil
}

// ClaimNextClosedForProcessing atomically claims one Closed session that has
// at least one image, skipping rows already locked by a competing claimer,
// and promotes it to Processing. Returns nil if no claimable session exists.
// Ties break on ascending closed_at, then ascending created_at.
func (r *Repository) ClaimNextClosedForProcessing(ctx context.Context) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		WITH candidate AS (
			SELECT cs.id
			FROM capture_session cs
			WHERE cs.state = 'closed'
			  AND EXISTS (SELECT 1 FROM capture_image ci WHERE ci.session_id = cs.id)
			ORDER BY cs.closed_at ASC, cs.created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE capture_session
		SET state = 'processing'
		FROM candidate
		WHERE capture_session.id = candidate.id
		RETURNING `+selectColumns,
	)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.TranslateWriteError(err, "claim_next_closed_for_processing")
	}
	return s, nil
}

// GetByID returns the session with id, or NotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+selectColumns+`
		FROM capture_session
		WHERE id = $1`,
		id,
	)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cqerrors.NewNotFound(fmt.Sprintf("session %s", id), err)
		}
		if db.IsCancellation(err) {
			return nil, cqerrors.NewCancelled("get_by_id: scan", err)
		}
		return nil, cqerrors.NewInternal("get_by_id: scan", err)
	}
	return s, nil
}

// UpdateState applies a direct state transition. errMessage is stamped when
// transitioning to Failed and cleared otherwise. Illegal transitions are
// rejected by the store trigger and surface as IllegalTransition.
func (r *Repository) UpdateState(ctx context.Context, id uuid.UUID, newState State, errMessage *string) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE capture_session
		SET state = $2, error = $3
		WHERE id = $1
		RETURNING `+selectColumns,
		id, newState, errMessage,
	)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cqerrors.NewNotFound(fmt.Sprintf("session %s", id), err)
		}
		return nil, db.TranslateWriteError(err, "update_state")
	}
	return s, nil
}
