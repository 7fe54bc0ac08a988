// Package audit defines the security audit trail for file-manager
// operations.
//
// One event is recorded per completed logical unit of work: a batch delete
// of three items produces three events, each after its storage call
// succeeded. Audit is best-effort observability for security review, not a
// transactional participant; a sink failure is reported to the operator log
// but never rolls back or fails the storage operation it describes.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one immutable audit record.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Timestamp is the event creation time, UTC.
	Timestamp time.Time `json:"timestamp"`

	// UserID identifies the acting user; "anonymous" when unauthenticated.
	UserID string `json:"user_id"`

	// Action is the logical operation: list, download, create, upload,
	// delete, rename, move.
	Action string `json:"action"`

	// Path is the canonical path the action applied to.
	Path string `json:"path"`

	// Details carries operation specifics, e.g. the move destination.
	Details string `json:"details,omitempty"`
}

// NewEvent builds an event stamped with the current time and a fresh ID.
func NewEvent(userID, action, path, details string) Event {
	if userID == "" {
		userID = "anonymous"
	}

	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Action:    action,
		Path:      path,
		Details:   details,
	}
}

// Sink persists audit events.
//
// Record must be safe for concurrent use. Implementations decide their own
// durability; callers treat any error as non-fatal.
type Sink interface {
	Record(ctx context.Context, event Event) error
	Close() error
}
