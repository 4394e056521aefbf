package db

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
)

// Custom SQLSTATEs raised by the domain guard triggers in migrations
// 001 and 002. Postgres accepts any 5-character code for RAISE EXCEPTION
// ... USING ERRCODE, so these never collide with a real server-assigned
// class.
const (
	sqlstateIllegalImageInsert       = "TRIG1"
	sqlstateIllegalSessionTransition = "TRIG2"
)

// TranslateWriteError maps a pgx/pgconn error from an insert or update into
// the capturequeue error taxonomy. The session and image repositories' insert
// and update statements funnel their errors through this function so callers
// see a taxonomy Kind rather than a bare *pgconn.PgError.
func TranslateWriteError(err error, message string) error {
	if err == nil {
		return nil
	}
	if IsCancellation(err) {
		return cqerrors.NewCancelled(message, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return cqerrors.NewUniquenessConflict(message, err)
		case pgErr.Code == sqlstateIllegalImageInsert:
			return cqerrors.NewIllegalState(message, err)
		case pgErr.Code == sqlstateIllegalSessionTransition:
			return cqerrors.NewIllegalTransition(message, err)
		}
	}
	return cqerrors.NewInternal(message, err)
}

// IsCancellation reports whether err is (or wraps) context cancellation,
// which pgx surfaces directly rather than as a *pgconn.PgError. Exported so
// repository read paths that don't go through TranslateWriteError (a scan
// against a context-cancelled query) can still translate it to Cancelled.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
