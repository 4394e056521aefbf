// Package notification implements the outbound notification dispatcher:
// skip-locked batch claim with at-least-once delivery and at-most-once
// status commit.
package notification

import "time"

// Status mirrors the schedule_notification_status enum.
type Status string

const (
	Pending Status = "pending"
	Sent    Status = "sent"
	Failed  Status = "failed"
)

// Notification is one row of schedule_notification. The core never
// interprets the payload fields below; they pass through to the send
// callback untouched.
type Notification struct {
	ID               string
	UserID           int64
	Message          string
	Status           Status
	CreatedAt        time.Time
	SentAt           *time.Time
	ScheduleDate     *time.Time
	SourceSessionID  *string
	NotificationType *string
	EventIDs         []string
}
