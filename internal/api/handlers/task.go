package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/api"
	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type TaskService interface {
	Create(ctx context.Context, input service.CreateTaskInput) (*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, input service.UpdateTaskInput) (*domain.Task, error)
	List(ctx context.Context, input service.ListTasksInput) (*service.ListTasksOutput, error)
	MemberProgress(ctx context.Context, memberID string) (*domain.MemberProgress, error)
	Delete(ctx context.Context, id string) error
}

type TaskHandler struct {
	svc TaskService
}

func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

type CreateTaskRequest struct {
	GoalID      string `json:"goal_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assigned_to"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
}

type TaskResponse struct {
	ID            string `json:"id"`
	GoalID        string `json:"goal_id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	AssignedTo    string `json:"assigned_to,omitempty"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	DueDate       string `json:"due_date,omitempty"`
	CompletedDate string `json:"completed_date,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func taskToResponse(t *domain.Task) *TaskResponse {
	return &TaskResponse{
		ID:            t.ID,
		GoalID:        t.GoalID,
		Title:         t.Title,
		Description:   t.Description,
		AssignedTo:    t.AssignedTo,
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		DueDate:       formatOptionalDate(t.DueDate),
		CompletedDate: formatOptionalDate(t.CompletedDate),
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     t.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.GoalID == "" {
		api.Error(w, http.StatusBadRequest, "goal_id is required")
		return
	}
	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	priority := domain.TaskPriority(req.Priority)
	if req.Priority != "" && !domain.IsValidTaskPriority(priority) {
		api.Error(w, http.StatusBadRequest, "invalid task priority")
		return
	}

	input := service.CreateTaskInput{
		GoalID:      req.GoalID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Priority:    priority,
	}

	if req.DueDate != "" {
		due, err := parseDateParam(req.DueDate)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid due_date")
			return
		}
		input.DueDate = &due
	}

	task, err := h.svc.Create(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, taskToResponse(task))
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	task, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, taskToResponse(task))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.UpdateTaskInput{
		TaskID:      id,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}

	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		if !domain.IsValidTaskStatus(status) {
			api.Error(w, http.StatusBadRequest, "invalid task status")
			return
		}
		input.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		if !domain.IsValidTaskPriority(priority) {
			api.Error(w, http.StatusBadRequest, "invalid task priority")
			return
		}
		input.Priority = &priority
	}
	if req.DueDate != nil {
		due, err := parseDateParam(*req.DueDate)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid due_date")
			return
		}
		input.DueDate = &due
	}

	task, err := h.svc.Update(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, taskToResponse(task))
}

type TaskListResponse struct {
	Items   []*TaskResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 20
	if limitStr := q.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	output, err := h.svc.List(r.Context(), service.ListTasksInput{
		GoalID:     q.Get("goal_id"),
		AssignedTo: q.Get("assigned_to"),
		Status:     domain.TaskStatus(q.Get("status")),
		Priority:   domain.TaskPriority(q.Get("priority")),
		Cursor:     q.Get("cursor"),
		Limit:      limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*TaskResponse, len(output.Items))
	for i, t := range output.Items {
		responses[i] = taskToResponse(t)
	}

	api.Success(w, http.StatusOK, TaskListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

// ListAssigned returns a member's tasks, reusing the list path with an
// assignee filter.
func (h *TaskHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "id")
	if memberID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	output, err := h.svc.List(r.Context(), service.ListTasksInput{
		AssignedTo: memberID,
		Cursor:     r.URL.Query().Get("cursor"),
		Limit:      limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*TaskResponse, len(output.Items))
	for i, t := range output.Items {
		responses[i] = taskToResponse(t)
	}

	api.Success(w, http.StatusOK, TaskListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

type MemberProgressResponse struct {
	AssignedTasks   int     `json:"assigned_tasks"`
	CompletedTasks  int     `json:"completed_tasks"`
	InProgressTasks int     `json:"in_progress_tasks"`
	OverdueTasks    int     `json:"overdue_tasks"`
	CompletionRate  float64 `json:"completion_rate"`
}

func (h *TaskHandler) MemberProgress(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "id")
	if memberID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	progress, err := h.svc.MemberProgress(r.Context(), memberID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, MemberProgressResponse{
		AssignedTasks:   progress.AssignedTasks,
		CompletedTasks:  progress.CompletedTasks,
		InProgressTasks: progress.InProgressTasks,
		OverdueTasks:    progress.OverdueTasks,
		CompletionRate:  progress.CompletionRate,
	})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
