package domain

import (
	"fmt"
	"time"
)

// VectorRecord is the derived copy of a status update held in the vector
// index. It is never authoritative: the relational status_updates table is
// the source of truth and the index may lag behind it until the next write
// or resync.
type VectorRecord struct {
	UpdateID   string
	MemberID   string
	MemberName string
	Body       string
	Embedding  []float32
	RecordedAt time.Time
	UpdatedAt  time.Time
}

// VectorMatch is one similarity-search hit. Score is cosine similarity
// clamped to [0, 1], higher is more relevant.
type VectorMatch struct {
	UpdateID   string
	MemberID   string
	MemberName string
	Body       string
	RecordedAt time.Time
	Score      float32
}

// IndexJobStatus represents the status of a vector index job
type IndexJobStatus string

const (
	IndexJobStatusPending    IndexJobStatus = "pending"
	IndexJobStatusProcessing IndexJobStatus = "processing"
	IndexJobStatusCompleted  IndexJobStatus = "completed"
	IndexJobStatusFailed     IndexJobStatus = "failed"
)

// IndexJob represents an async request to (re)index one status update.
// Index failures never roll back the relational write; the job is retried
// and, past the retry budget, left failed until a manual resync.
type IndexJob struct {
	ID          string
	UpdateID    string
	Status      IndexJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewIndexJob creates a new IndexJob instance
func NewIndexJob(id, updateID string, status IndexJobStatus, retries int32, errMsg string, createdAt time.Time, processedAt *time.Time) *IndexJob {
	return &IndexJob{
		ID:          id,
		UpdateID:    updateID,
		Status:      status,
		Retries:     retries,
		Error:       errMsg,
		CreatedAt:   createdAt,
		ProcessedAt: processedAt,
	}
}

// ValidateIndexJob validates an IndexJob instance
func ValidateIndexJob(j *IndexJob) error {
	if j == nil {
		return fmt.Errorf("index job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("index job ID is required")
	}

	if j.UpdateID == "" {
		return fmt.Errorf("index job UpdateID is required")
	}

	if !isValidIndexJobStatus(j.Status) {
		return fmt.Errorf("index job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("index job Retries cannot be negative")
	}

	return nil
}

// isValidIndexJobStatus checks if an IndexJobStatus is valid
func isValidIndexJobStatus(s IndexJobStatus) bool {
	switch s {
	case IndexJobStatusPending, IndexJobStatusProcessing,
		IndexJobStatusCompleted, IndexJobStatusFailed:
		return true
	}
	return false
}
