package domain

import (
	"fmt"
	"strings"
	"time"
)

// StatusUpdate represents a single free-text progress report submitted by a
// team member. Immutable once created, except for deletion.
type StatusUpdate struct {
	ID         string
	MemberID   string
	TaskID     string // Optional link to a task
	Body       string
	RecordedAt time.Time // Server-assigned, immutable
	CreatedAt  time.Time
}

// StatusUpdateWithMember pairs an update with its author for display and
// prompt assembly.
type StatusUpdateWithMember struct {
	StatusUpdate
	MemberName  string
	MemberEmail string
}

// NewStatusUpdate creates a new StatusUpdate instance
func NewStatusUpdate(id, memberID, taskID, body string, recordedAt, createdAt time.Time) *StatusUpdate {
	return &StatusUpdate{
		ID:         id,
		MemberID:   memberID,
		TaskID:     taskID,
		Body:       body,
		RecordedAt: recordedAt,
		CreatedAt:  createdAt,
	}
}

// ValidateStatusUpdate validates a StatusUpdate instance
func ValidateStatusUpdate(u *StatusUpdate) error {
	if u == nil {
		return fmt.Errorf("status update cannot be nil")
	}

	if u.ID == "" {
		return fmt.Errorf("status update ID is required")
	}

	if u.MemberID == "" {
		return fmt.Errorf("status update MemberID is required")
	}

	if strings.TrimSpace(u.Body) == "" {
		return fmt.Errorf("status update Body is required")
	}

	if u.RecordedAt.IsZero() {
		return fmt.Errorf("status update RecordedAt is required")
	}

	return nil
}
