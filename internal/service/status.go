package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/pagination"
	"github.com/cloo-solutions/pulsetrack/internal/telemetry"
)

// StatusUpdateRepositoryInterface defines the repository interface for status update persistence
type StatusUpdateRepositoryInterface interface {
	Create(ctx context.Context, u *domain.StatusUpdate) error
	GetByID(ctx context.Context, id string) (*domain.StatusUpdateWithMember, error)
	ListWithCursor(ctx context.Context, filter StatusUpdateFilter, cursor *pagination.Cursor, limit int) (*StatusUpdatePageResult, error)
	ListRange(ctx context.Context, start, end time.Time, memberID string) ([]*domain.StatusUpdateWithMember, error)
	ListAll(ctx context.Context) ([]*domain.StatusUpdateWithMember, error)
	ListByMember(ctx context.Context, memberID string) ([]*domain.StatusUpdateWithMember, error)
	Delete(ctx context.Context, id string) error
}

type StatusUpdatePageResult struct {
	Items      []*domain.StatusUpdateWithMember
	NextCursor string
	HasMore    bool
}

// StatusUpdateFilter narrows update listings. Zero values mean "no filter".
type StatusUpdateFilter struct {
	MemberID string
	Start    time.Time
	End      time.Time
}

// IndexJobRepositoryInterface defines the repository interface for index job persistence
type IndexJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IndexJob) error
}

// StatusUpdateService handles business logic for status updates. Creating an
// update also enqueues an index job in the same transaction; the worker picks
// the job up asynchronously, so the write never waits on the index.
type StatusUpdateService struct {
	updateRepo StatusUpdateRepositoryInterface
	memberRepo MemberRepositoryInterface
	taskRepo   TaskRepositoryInterface
	txRunner   TxRunner
	uuidGen    UUIDGenerator
}

// NewStatusUpdateService creates a new StatusUpdateService instance
func NewStatusUpdateService(
	updateRepo StatusUpdateRepositoryInterface,
	memberRepo MemberRepositoryInterface,
	taskRepo TaskRepositoryInterface,
	txRunner TxRunner,
) *StatusUpdateService {
	return &StatusUpdateService{
		updateRepo: updateRepo,
		memberRepo: memberRepo,
		taskRepo:   taskRepo,
		txRunner:   txRunner,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewStatusUpdateServiceWithUUIDGen creates a new StatusUpdateService with custom UUID generator (for testing)
func NewStatusUpdateServiceWithUUIDGen(
	updateRepo StatusUpdateRepositoryInterface,
	memberRepo MemberRepositoryInterface,
	taskRepo TaskRepositoryInterface,
	txRunner TxRunner,
	uuidGen UUIDGenerator,
) *StatusUpdateService {
	return &StatusUpdateService{
		updateRepo: updateRepo,
		memberRepo: memberRepo,
		taskRepo:   taskRepo,
		txRunner:   txRunner,
		uuidGen:    uuidGen,
	}
}

// CreateUpdateInput represents the input for recording a status update
type CreateUpdateInput struct {
	MemberID string
	TaskID   string
	Body     string
}

type ListUpdatesInput struct {
	MemberID string
	Start    time.Time
	End      time.Time
	Cursor   string
	Limit    int
}

type ListUpdatesOutput struct {
	Items   []*domain.StatusUpdateWithMember
	Cursor  string
	HasMore bool
}

// Create records a status update and queues it for indexing. The recorded
// timestamp is server-assigned.
func (s *StatusUpdateService) Create(ctx context.Context, input CreateUpdateInput) (*domain.StatusUpdateWithMember, error) {
	ctx, span := telemetry.StartSpan(ctx, "StatusUpdateService.Create", telemetry.SpanAttributes{
		MemberID:  input.MemberID,
		Operation: "create",
	})
	defer span.End()

	member, err := s.memberRepo.GetByID(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}

	if input.TaskID != "" {
		if _, err := s.taskRepo.GetByID(ctx, input.TaskID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	update := &domain.StatusUpdate{
		ID:         s.uuidGen.NewString(),
		MemberID:   input.MemberID,
		TaskID:     input.TaskID,
		Body:       strings.TrimSpace(input.Body),
		RecordedAt: now,
		CreatedAt:  now,
	}

	if err := domain.ValidateStatusUpdate(update); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid status update", err)
	}

	job := &domain.IndexJob{
		ID:        s.uuidGen.NewString(),
		UpdateID:  update.ID,
		Status:    domain.IndexJobStatusPending,
		Retries:   0,
		Error:     "",
		CreatedAt: now,
	}

	// Update and job commit together so no accepted update can miss
	// indexing.
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.StatusUpdates().Create(ctx, update); err != nil {
			return err
		}
		return repos.IndexJobs().Create(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	return &domain.StatusUpdateWithMember{
		StatusUpdate: *update,
		MemberName:   member.Name,
		MemberEmail:  member.Email,
	}, nil
}

// GetByID retrieves a status update by ID
func (s *StatusUpdateService) GetByID(ctx context.Context, id string) (*domain.StatusUpdateWithMember, error) {
	ctx, span := telemetry.StartSpan(ctx, "StatusUpdateService.GetByID", telemetry.SpanAttributes{
		UpdateID:  id,
		Operation: "get",
	})
	defer span.End()

	return s.updateRepo.GetByID(ctx, id)
}

// List returns status updates newest first, optionally filtered by member
// and recorded-at range.
func (s *StatusUpdateService) List(ctx context.Context, input ListUpdatesInput) (*ListUpdatesOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "StatusUpdateService.List", telemetry.SpanAttributes{
		MemberID:  input.MemberID,
		Operation: "list",
	})
	defer span.End()

	if input.MemberID != "" {
		if _, err := s.memberRepo.GetByID(ctx, input.MemberID); err != nil {
			return nil, err
		}
	}

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	filter := StatusUpdateFilter{
		MemberID: input.MemberID,
		Start:    input.Start,
		End:      input.End,
	}

	result, err := s.updateRepo.ListWithCursor(ctx, filter, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListUpdatesOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// Delete removes a status update. The index record goes with it via the
// database cascade.
func (s *StatusUpdateService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "StatusUpdateService.Delete", telemetry.SpanAttributes{
		UpdateID:  id,
		Operation: "delete",
	})
	defer span.End()

	return s.updateRepo.Delete(ctx, id)
}
