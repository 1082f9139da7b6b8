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

type GoalService interface {
	Create(ctx context.Context, input service.CreateGoalInput) (*domain.Goal, error)
	GetByID(ctx context.Context, id string) (*service.GoalWithProgress, error)
	Update(ctx context.Context, input service.UpdateGoalInput) (*domain.Goal, error)
	List(ctx context.Context, input service.ListGoalsInput) (*service.ListGoalsOutput, error)
	Delete(ctx context.Context, id string) error
}

type GoalHandler struct {
	svc GoalService
}

func NewGoalHandler(svc GoalService) *GoalHandler {
	return &GoalHandler{svc: svc}
}

type CreateGoalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date,omitempty"`
	TargetDate  string `json:"target_date,omitempty"`
}

type UpdateGoalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	StartDate   *string `json:"start_date"`
	TargetDate  *string `json:"target_date"`
}

type GoalProgressResponse struct {
	TaskCount          int     `json:"task_count"`
	CompletedTaskCount int     `json:"completed_task_count"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

type GoalResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description,omitempty"`
	Status        string                `json:"status"`
	StartDate     string                `json:"start_date,omitempty"`
	TargetDate    string                `json:"target_date,omitempty"`
	CompletedDate string                `json:"completed_date,omitempty"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
	Progress      *GoalProgressResponse `json:"progress,omitempty"`
}

func goalToResponse(g *domain.Goal) *GoalResponse {
	return &GoalResponse{
		ID:            g.ID,
		Title:         g.Title,
		Description:   g.Description,
		Status:        string(g.Status),
		StartDate:     formatOptionalDate(g.StartDate),
		TargetDate:    formatOptionalDate(g.TargetDate),
		CompletedDate: formatOptionalDate(g.CompletedDate),
		CreatedAt:     g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     g.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	input := service.CreateGoalInput{
		Title:       req.Title,
		Description: req.Description,
	}

	if req.StartDate != "" {
		start, err := parseDateParam(req.StartDate)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		input.StartDate = &start
	}
	if req.TargetDate != "" {
		target, err := parseDateParam(req.TargetDate)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid target_date")
			return
		}
		input.TargetDate = &target
	}

	goal, err := h.svc.Create(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, goalToResponse(goal))
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	result, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := goalToResponse(result.Goal)
	resp.Progress = &GoalProgressResponse{
		TaskCount:          result.Progress.TaskCount,
		CompletedTaskCount: result.Progress.CompletedTaskCount,
		ProgressPercentage: result.Progress.ProgressPercentage,
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.UpdateGoalInput{
		GoalID:      id,
		Title:       req.Title,
		Description: req.Description,
	}

	if req.Status != nil {
		status := domain.GoalStatus(*req.Status)
		if !domain.IsValidGoalStatus(status) {
			api.Error(w, http.StatusBadRequest, "invalid goal status")
			return
		}
		input.Status = &status
	}
	if req.StartDate != nil {
		start, err := parseDateParam(*req.StartDate)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		input.StartDate = &start
	}
	if req.TargetDate != nil {
		target, err := parseDateParam(*req.TargetDate)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid target_date")
			return
		}
		input.TargetDate = &target
	}

	goal, err := h.svc.Update(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, goalToResponse(goal))
}

type GoalListResponse struct {
	Items   []*GoalResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	output, err := h.svc.List(r.Context(), service.ListGoalsInput{
		Status: domain.GoalStatus(r.URL.Query().Get("status")),
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*GoalResponse, len(output.Items))
	for i, g := range output.Items {
		responses[i] = goalToResponse(g)
	}

	api.Success(w, http.StatusOK, GoalListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
