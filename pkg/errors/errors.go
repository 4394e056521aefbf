// Package errors defines the error taxonomy shared by every repository and
// dispatcher in capturequeue. Repositories translate driver-specific errors
// (pgx/pgconn codes, missing rows) into one of the Kinds below and never let
// a *pgconn.PgError or pgx.ErrNoRows escape their package boundary.
package errors

import "fmt"

// Kind enumerates the taxonomy callers pattern-match on. It is a string so
// log lines and error messages carry it for free.
type Kind string

const (
	// UniquenessConflict means a store uniqueness constraint fired. Callers
	// treat this as a signal to reconcile (re-read state), not a fatal error.
	UniquenessConflict Kind = "uniqueness_conflict"
	// IllegalState means a domain trigger rejected the write, e.g. an append
	// against a session that is no longer open. Never retried by the core.
	IllegalState Kind = "illegal_state"
	// IllegalTransition means the session transition trigger rejected an
	// update. Fatal for the current operation.
	IllegalTransition Kind = "illegal_transition"
	// NotFound means the targeted id does not exist.
	NotFound Kind = "not_found"
	// Transient means a connection reset or timeout. Dispatchers swallow and
	// retry on the next tick; request handlers surface a generic retry reply.
	Transient Kind = "transient"
	// Cancelled means cooperative cancellation unwound the call. Never
	// written as a status.
	Cancelled Kind = "cancelled"
	// Internal means an invariant was violated, e.g. a RETURNING clause
	// produced no row when one was guaranteed. Fatal for the operation.
	Internal Kind = "internal"
)

// Error is the concrete error type every repository returns. Message is the
// human-readable context; Cause, when set, is the underlying driver error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an *Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NewUniquenessConflict builds a UniquenessConflict error.
func NewUniquenessConflict(message string, cause error) *Error {
	return New(UniquenessConflict, message, cause)
}

// NewIllegalState builds an IllegalState error.
func NewIllegalState(message string, cause error) *Error {
	return New(IllegalState, message, cause)
}

// NewIllegalTransition builds an IllegalTransition error.
func NewIllegalTransition(message string, cause error) *Error {
	return New(IllegalTransition, message, cause)
}

// NewNotFound builds a NotFound error.
func NewNotFound(message string, cause error) *Error {
	return New(NotFound, message, cause)
}

// NewTransient builds a Transient error.
func NewTransient(message string, cause error) *Error {
	return New(Transient, message, cause)
}

// NewCancelled builds a Cancelled error.
func NewCancelled(message string, cause error) *Error {
	return New(Cancelled, message, cause)
}

// NewInternal builds an Internal error.
func NewInternal(message string, cause error) *Error {
	return New(Internal, message, cause)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !asError(err, &e) {
		return false
	}
	return e.Kind == kind
}

// IsUniquenessConflict reports whether err is a UniquenessConflict error.
func IsUniquenessConflict(err error) bool { return Is(err, UniquenessConflict) }

// IsIllegalState reports whether err is an IllegalState error.
func IsIllegalState(err error) bool { return Is(err, IllegalState) }

// IsIllegalTransition reports whether err is an IllegalTransition error.
func IsIllegalTransition(err error) bool { return Is(err, IllegalTransition) }

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return Is(err, NotFound) }

// IsTransient reports whether err is a Transient error.
func IsTransient(err error) bool { return Is(err, Transient) }

// IsCancelled reports whether err is a Cancelled error.
func IsCancelled(err error) bool { return Is(err, Cancelled) }

// IsInternal reports whether err is an Internal error.
func IsInternal(err error) bool { return Is(err, Internal) }

// Code maps a Kind to an HTTP-ish status, for pkg/ingress's response writer.
// The core itself never branches on these.
func Code(err error) int {
	var e *Error
	if !asError(err, &e) {
		return 500
	}
	switch e.Kind {
	case UniquenessConflict:
		return 409
	case NotFound:
		return 404
	case IllegalState:
		return 400
	case Transient:
		return 503
	case Cancelled:
		return 499
	case IllegalTransition, Internal:
		return 500
	default:
		return 500
	}
}

// asError walks err's single-error Unwrap chain and reports the first
// *Error it finds, in place of the standard errors.As (this package's own
// name shadows the standard errors package).
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
