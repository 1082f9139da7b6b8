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

type StatusUpdateService interface {
	Create(ctx context.Context, input service.CreateUpdateInput) (*domain.StatusUpdateWithMember, error)
	GetByID(ctx context.Context, id string) (*domain.StatusUpdateWithMember, error)
	List(ctx context.Context, input service.ListUpdatesInput) (*service.ListUpdatesOutput, error)
	Delete(ctx context.Context, id string) error
}

type StatusUpdateHandler struct {
	svc StatusUpdateService
}

func NewStatusUpdateHandler(svc StatusUpdateService) *StatusUpdateHandler {
	return &StatusUpdateHandler{svc: svc}
}

type CreateUpdateRequest struct {
	MemberID string `json:"member_id"`
	TaskID   string `json:"task_id,omitempty"`
	Body     string `json:"body"`
}

type StatusUpdateResponse struct {
	ID          string `json:"id"`
	MemberID    string `json:"member_id"`
	MemberName  string `json:"member_name"`
	MemberEmail string `json:"member_email"`
	TaskID      string `json:"task_id,omitempty"`
	Body        string `json:"body"`
	RecordedAt  string `json:"recorded_at"`
	CreatedAt   string `json:"created_at"`
}

func updateToResponse(u *domain.StatusUpdateWithMember) *StatusUpdateResponse {
	return &StatusUpdateResponse{
		ID:          u.ID,
		MemberID:    u.MemberID,
		MemberName:  u.MemberName,
		MemberEmail: u.MemberEmail,
		TaskID:      u.TaskID,
		Body:        u.Body,
		RecordedAt:  u.RecordedAt.Format(time.RFC3339),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

func (h *StatusUpdateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.MemberID == "" {
		api.Error(w, http.StatusBadRequest, "member_id is required")
		return
	}
	if req.Body == "" {
		api.Error(w, http.StatusBadRequest, "body is required")
		return
	}

	update, err := h.svc.Create(r.Context(), service.CreateUpdateInput{
		MemberID: req.MemberID,
		TaskID:   req.TaskID,
		Body:     req.Body,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, updateToResponse(update))
}

func (h *StatusUpdateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	update, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, updateToResponse(update))
}

type StatusUpdateListResponse struct {
	Items   []*StatusUpdateResponse `json:"items"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"has_more"`
}

func (h *StatusUpdateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 20
	if limitStr := q.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	input := service.ListUpdatesInput{
		MemberID: q.Get("member_id"),
		Cursor:   q.Get("cursor"),
		Limit:    limit,
	}

	if startStr := q.Get("start"); startStr != "" {
		start, err := parseDateParam(startStr)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid start date")
			return
		}
		input.Start = start
	}
	if endStr := q.Get("end"); endStr != "" {
		end, err := parseDateParam(endStr)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid end date")
			return
		}
		input.End = end
	}

	output, err := h.svc.List(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*StatusUpdateResponse, len(output.Items))
	for i, u := range output.Items {
		responses[i] = updateToResponse(u)
	}

	api.Success(w, http.StatusOK, StatusUpdateListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func (h *StatusUpdateHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// parseDateParam accepts either a date or a full RFC 3339 timestamp.
func parseDateParam(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
