package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/pagination"
	"github.com/cloo-solutions/pulsetrack/internal/telemetry"
)

// TaskRepositoryInterface defines the repository interface for task persistence
type TaskRepositoryInterface interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	ListWithCursor(ctx context.Context, filter TaskFilter, cursor *pagination.Cursor, limit int) (*TaskPageResult, error)
	MemberProgress(ctx context.Context, memberID string, now time.Time) (*domain.MemberProgress, error)
	Delete(ctx context.Context, id string) error
}

type TaskPageResult struct {
	Items      []*domain.Task
	NextCursor string
	HasMore    bool
}

// TaskFilter narrows task listings. Zero values mean no filtering on that
// dimension.
type TaskFilter struct {
	GoalID     string
	AssignedTo string
	Status     domain.TaskStatus
	Priority   domain.TaskPriority
}

// TaskService handles business logic for tasks
type TaskService struct {
	taskRepo   TaskRepositoryInterface
	goalRepo   GoalRepositoryInterface
	memberRepo MemberRepositoryInterface
	uuidGen    UUIDGenerator
}

// NewTaskService creates a new TaskService instance
func NewTaskService(
	taskRepo TaskRepositoryInterface,
	goalRepo GoalRepositoryInterface,
	memberRepo MemberRepositoryInterface,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		goalRepo:   goalRepo,
		memberRepo: memberRepo,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewTaskServiceWithUUIDGen creates a new TaskService with custom UUID generator (for testing)
func NewTaskServiceWithUUIDGen(
	taskRepo TaskRepositoryInterface,
	goalRepo GoalRepositoryInterface,
	memberRepo MemberRepositoryInterface,
	uuidGen UUIDGenerator,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		goalRepo:   goalRepo,
		memberRepo: memberRepo,
		uuidGen:    uuidGen,
	}
}

// CreateTaskInput represents the input for creating a task
type CreateTaskInput struct {
	GoalID      string
	Title       string
	Description string
	AssignedTo  string
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

// UpdateTaskInput represents the input for updating a task. Nil pointers
// leave the current value untouched.
type UpdateTaskInput struct {
	TaskID      string
	Title       *string
	Description *string
	AssignedTo  *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDate     *time.Time
}

type ListTasksInput struct {
	GoalID     string
	AssignedTo string
	Status     domain.TaskStatus
	Priority   domain.TaskPriority
	Cursor     string
	Limit      int
}

type ListTasksOutput struct {
	Items   []*domain.Task
	Cursor  string
	HasMore bool
}

// Create creates a new task under a goal. The goal and the assignee, when
// set, must exist.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	ctx, span := telemetry.StartSpan(ctx, "TaskService.Create", telemetry.SpanAttributes{
		GoalID:    input.GoalID,
		Operation: "create",
	})
	defer span.End()

	if _, err := s.goalRepo.GetByID(ctx, input.GoalID); err != nil {
		return nil, err
	}
	if input.AssignedTo != "" {
		if _, err := s.memberRepo.GetByID(ctx, input.AssignedTo); err != nil {
			return nil, err
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          s.uuidGen.NewString(),
		GoalID:      input.GoalID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		AssignedTo:  input.AssignedTo,
		Status:      domain.TaskStatusTodo,
		Priority:    priority,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := domain.ValidateTask(task); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid task", err)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// GetByID retrieves a task by ID
func (s *TaskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	ctx, span := telemetry.StartSpan(ctx, "TaskService.GetByID", telemetry.SpanAttributes{
		TaskID:    id,
		Operation: "get",
	})
	defer span.End()

	return s.taskRepo.GetByID(ctx, id)
}

// Update applies a partial update to a task. Moving to completed stamps the
// completion date; moving away clears it.
func (s *TaskService) Update(ctx context.Context, input UpdateTaskInput) (*domain.Task, error) {
	ctx, span := telemetry.StartSpan(ctx, "TaskService.Update", telemetry.SpanAttributes{
		TaskID:    input.TaskID,
		Operation: "update",
	})
	defer span.End()

	task, err := s.taskRepo.GetByID(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.AssignedTo != nil {
		if *input.AssignedTo != "" {
			if _, err := s.memberRepo.GetByID(ctx, *input.AssignedTo); err != nil {
				return nil, err
			}
		}
		task.AssignedTo = *input.AssignedTo
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Status != nil && *input.Status != task.Status {
		task.Status = *input.Status
		if task.Status == domain.TaskStatusCompleted {
			task.CompletedDate = &now
		} else {
			task.CompletedDate = nil
		}
	}
	task.UpdatedAt = now

	if err := domain.ValidateTask(task); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid task", err)
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskService) List(ctx context.Context, input ListTasksInput) (*ListTasksOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "TaskService.List", telemetry.SpanAttributes{
		GoalID:    input.GoalID,
		Operation: "list",
	})
	defer span.End()

	if input.Status != "" && !domain.IsValidTaskStatus(input.Status) {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid task status filter")
	}
	if input.Priority != "" && !domain.IsValidTaskPriority(input.Priority) {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid task priority filter")
	}

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	filter := TaskFilter{
		GoalID:     input.GoalID,
		AssignedTo: input.AssignedTo,
		Status:     input.Status,
		Priority:   input.Priority,
	}

	result, err := s.taskRepo.ListWithCursor(ctx, filter, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListTasksOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// MemberProgress returns derived task counters for one member.
func (s *TaskService) MemberProgress(ctx context.Context, memberID string) (*domain.MemberProgress, error) {
	ctx, span := telemetry.StartSpan(ctx, "TaskService.MemberProgress", telemetry.SpanAttributes{
		MemberID:  memberID,
		Operation: "get",
	})
	defer span.End()

	if _, err := s.memberRepo.GetByID(ctx, memberID); err != nil {
		return nil, err
	}

	return s.taskRepo.MemberProgress(ctx, memberID, time.Now().UTC())
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "TaskService.Delete", telemetry.SpanAttributes{
		TaskID:    id,
		Operation: "delete",
	})
	defer span.End()

	return s.taskRepo.Delete(ctx, id)
}
