package notify

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a cursor or notification ID matches nothing.
var ErrNotFound = errors.New("notify: notification not found")

// Notification is one item of the auditor's activity feed. IDs are sortable
// (ULID), so "newer than" is a plain string comparison against a cursor.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is durable storage behind a Feed. Implementations assign the cursor
// IDs, and those IDs must sort lexicographically in arrival order.
type Log interface {
	InsertNotification(ctx context.Context, kind, message string) (Notification, error)
	NotificationsAfter(ctx context.Context, cursor string, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}
