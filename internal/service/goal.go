package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/pagination"
	"github.com/cloo-solutions/pulsetrack/internal/telemetry"
)

// GoalRepositoryInterface defines the repository interface for goal persistence
type GoalRepositoryInterface interface {
	Create(ctx context.Context, g *domain.Goal) error
	GetByID(ctx context.Context, id string) (*domain.Goal, error)
	Update(ctx context.Context, g *domain.Goal) error
	ListWithCursor(ctx context.Context, status domain.GoalStatus, cursor *pagination.Cursor, limit int) (*GoalPageResult, error)
	Progress(ctx context.Context, goalID string) (*domain.GoalProgress, error)
	Delete(ctx context.Context, id string) error
}

type GoalPageResult struct {
	Items      []*domain.Goal
	NextCursor string
	HasMore    bool
}

// GoalService handles business logic for goals
type GoalService struct {
	goalRepo GoalRepositoryInterface
	uuidGen  UUIDGenerator
}

// NewGoalService creates a new GoalService instance
func NewGoalService(goalRepo GoalRepositoryInterface) *GoalService {
	return &GoalService{
		goalRepo: goalRepo,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// NewGoalServiceWithUUIDGen creates a new GoalService with custom UUID generator (for testing)
func NewGoalServiceWithUUIDGen(goalRepo GoalRepositoryInterface, uuidGen UUIDGenerator) *GoalService {
	return &GoalService{
		goalRepo: goalRepo,
		uuidGen:  uuidGen,
	}
}

// CreateGoalInput represents the input for creating a goal
type CreateGoalInput struct {
	Title       string
	Description string
	StartDate   *time.Time
	TargetDate  *time.Time
}

// UpdateGoalInput represents the input for updating a goal. Nil pointers
// leave the current value untouched.
type UpdateGoalInput struct {
	GoalID      string
	Title       *string
	Description *string
	Status      *domain.GoalStatus
	StartDate   *time.Time
	TargetDate  *time.Time
}

type ListGoalsInput struct {
	Status domain.GoalStatus
	Cursor string
	Limit  int
}

type ListGoalsOutput struct {
	Items   []*domain.Goal
	Cursor  string
	HasMore bool
}

// GoalWithProgress pairs a goal with its derived task counters.
type GoalWithProgress struct {
	Goal     *domain.Goal
	Progress *domain.GoalProgress
}

// Create creates a new goal in the not_started state.
func (s *GoalService) Create(ctx context.Context, input CreateGoalInput) (*domain.Goal, error) {
	ctx, span := telemetry.StartSpan(ctx, "GoalService.Create", telemetry.SpanAttributes{
		Operation: "create",
	})
	defer span.End()

	now := time.Now().UTC()
	goal := &domain.Goal{
		ID:          s.uuidGen.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.GoalStatusNotStarted,
		StartDate:   input.StartDate,
		TargetDate:  input.TargetDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := domain.ValidateGoal(goal); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid goal", err)
	}

	if err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

// GetByID retrieves a goal with its progress counters.
func (s *GoalService) GetByID(ctx context.Context, id string) (*GoalWithProgress, error) {
	ctx, span := telemetry.StartSpan(ctx, "GoalService.GetByID", telemetry.SpanAttributes{
		GoalID:    id,
		Operation: "get",
	})
	defer span.End()

	goal, err := s.goalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	progress, err := s.goalRepo.Progress(ctx, id)
	if err != nil {
		return nil, err
	}

	return &GoalWithProgress{Goal: goal, Progress: progress}, nil
}

// Update applies a partial update to a goal. Moving to completed stamps the
// completion date; moving away clears it.
func (s *GoalService) Update(ctx context.Context, input UpdateGoalInput) (*domain.Goal, error) {
	ctx, span := telemetry.StartSpan(ctx, "GoalService.Update", telemetry.SpanAttributes{
		GoalID:    input.GoalID,
		Operation: "update",
	})
	defer span.End()

	goal, err := s.goalRepo.GetByID(ctx, input.GoalID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if input.Title != nil {
		goal.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		goal.Description = strings.TrimSpace(*input.Description)
	}
	if input.StartDate != nil {
		goal.StartDate = input.StartDate
	}
	if input.TargetDate != nil {
		goal.TargetDate = input.TargetDate
	}
	if input.Status != nil && *input.Status != goal.Status {
		goal.Status = *input.Status
		if goal.Status == domain.GoalStatusCompleted {
			goal.CompletedDate = &now
		} else {
			goal.CompletedDate = nil
		}
	}
	goal.UpdatedAt = now

	if err := domain.ValidateGoal(goal); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid goal", err)
	}

	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

func (s *GoalService) List(ctx context.Context, input ListGoalsInput) (*ListGoalsOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "GoalService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	if input.Status != "" && !domain.IsValidGoalStatus(input.Status) {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid goal status filter")
	}

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.goalRepo.ListWithCursor(ctx, input.Status, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListGoalsOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// Delete removes a goal and, via the database cascade, its tasks.
func (s *GoalService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "GoalService.Delete", telemetry.SpanAttributes{
		GoalID:    id,
		Operation: "delete",
	})
	defer span.End()

	return s.goalRepo.Delete(ctx, id)
}
