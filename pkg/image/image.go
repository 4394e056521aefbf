// Package image implements the image-append protocol: gap-free per-session
// sequence allocation serialized by a row lock on the parent session.
package image

import (
	"time"

	"github.com/google/uuid"
)

// Image is one row of capture_image. Append-only: never mutated after
// insert, removed only by a cascading delete of the parent session.
type Image struct {
	ID                uuid.UUID
	SessionID         uuid.UUID
	Sequence          int
	ObjectKey         string
	ExternalMessageID *int64
	CreatedAt         time.Time
}
