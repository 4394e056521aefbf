// Package session implements the capture-session state machine: per-user
// single-writer creation, the closed-session claim queue, and direct state
// transitions. All transition legality is enforced by the capture_session
// table's trigger; this package only shapes queries and translates errors.
package session

import (
	"time"

	"github.com/google/uuid"
)

// State mirrors the capture_session_state enum.
type State string

// The five states and the transition graph they form:
// Open -> {Closed, Failed}, Closed -> {Processing, Failed},
// Processing -> {Done, Failed}. All other edges are rejected by the
// database trigger, not by this package.
const (
	Open       State = "open"
	Closed     State = "closed"
	Processing State = "processing"
	Done       State = "done"
	Failed     State = "failed"
)

// Session is one row of capture_session.
type Session struct {
	ID        uuid.UUID
	UserID    int64
	State     State
	CreatedAt time.Time
	ClosedAt  *time.Time
	Error     *string
}
