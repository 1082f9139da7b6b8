package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/vector"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3

	claimBatchSize = 50
)

// IndexJobRepository defines the interface for index job persistence
type IndexJobRepository interface {
	// ClaimPending atomically claims pending index jobs for processing
	ClaimPending(ctx context.Context, limit int) ([]*domain.IndexJob, error)

	// UpdateStatus updates the status of an index job
	UpdateStatus(ctx context.Context, jobID string, status domain.IndexJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error
}

// StatusUpdateReader loads the update a job points at.
type StatusUpdateReader interface {
	GetByID(ctx context.Context, id string) (*domain.StatusUpdateWithMember, error)
}

// VectorIndex is the index the worker writes into.
type VectorIndex interface {
	Upsert(ctx context.Context, input vector.UpsertInput) error
	Delete(ctx context.Context, updateID string) error
}

// IndexWorker processes index jobs: it embeds the referenced status update
// and upserts it into the vector index. A job whose update has been deleted
// in the meantime removes the stale index record and completes.
type IndexWorker struct {
	repo    IndexJobRepository
	updates StatusUpdateReader
	index   VectorIndex
}

// NewIndexWorker creates a new IndexWorker instance
func NewIndexWorker(repo IndexJobRepository, updates StatusUpdateReader, index VectorIndex) *IndexWorker {
	return &IndexWorker{
		repo:    repo,
		updates: updates,
		index:   index,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IndexWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending index jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IndexWorker) processJob(ctx context.Context, job *domain.IndexJob) error {
	update, err := w.updates.GetByID(ctx, job.UpdateID)
	if err != nil {
		if errors.Is(err, domain.ErrUpdateNotFound) {
			// Update deleted after the job was queued. Drop any stale
			// index record and finish the job.
			if delErr := w.index.Delete(ctx, job.UpdateID); delErr != nil {
				return w.handleJobFailure(ctx, job, delErr)
			}
			return w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusCompleted, "")
		}
		return w.handleJobFailure(ctx, job, err)
	}

	err = w.index.Upsert(ctx, vector.UpsertInput{
		UpdateID:   update.ID,
		MemberID:   update.MemberID,
		MemberName: update.MemberName,
		Body:       update.Body,
		RecordedAt: update.RecordedAt,
	})
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *IndexWorker) handleJobFailure(ctx context.Context, job *domain.IndexJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	// Reset to pending for the next poll
	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
