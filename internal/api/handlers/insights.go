package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/api"
	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/service"
)

type InsightsService interface {
	Answer(ctx context.Context, input service.AnswerInput) (*service.AnswerOutput, error)
	Summarize(ctx context.Context, input service.SummarizeInput) (*service.SummarizeOutput, error)
	Resync(ctx context.Context, input service.ResyncInput) (*service.ResyncOutput, error)
	Health(ctx context.Context) (*service.HealthOutput, error)
}

type InsightsHandler struct {
	svc InsightsService
}

func NewInsightsHandler(svc InsightsService) *InsightsHandler {
	return &InsightsHandler{svc: svc}
}

type SearchRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	MemberID string `json:"member_id,omitempty"`
}

type SourceResponse struct {
	UpdateID   string  `json:"update_id"`
	MemberID   string  `json:"member_id"`
	MemberName string  `json:"member_name"`
	Body       string  `json:"body"`
	RecordedAt string  `json:"recorded_at"`
	Score      float32 `json:"score"`
}

type SearchResponse struct {
	Answer   string            `json:"answer"`
	Sources  []*SourceResponse `json:"sources"`
	Degraded bool              `json:"degraded"`
	AIStatus string            `json:"ai_status"`
}

func (h *InsightsHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	output, err := h.svc.Answer(r.Context(), service.AnswerInput{
		Question: req.Question,
		TopK:     req.TopK,
		MemberID: req.MemberID,
	})
	if err != nil {
		if isInferenceError(err) {
			api.Success(w, http.StatusOK, SearchResponse{
				Sources:  []*SourceResponse{},
				AIStatus: "unavailable",
			})
			return
		}
		api.HandleError(w, err)
		return
	}

	sources := make([]*SourceResponse, len(output.Sources))
	for i, s := range output.Sources {
		sources[i] = &SourceResponse{
			UpdateID:   s.UpdateID,
			MemberID:   s.MemberID,
			MemberName: s.MemberName,
			Body:       s.Body,
			RecordedAt: s.RecordedAt.Format(time.RFC3339),
			Score:      s.Score,
		}
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Answer:   output.Answer,
		Sources:  sources,
		Degraded: output.Degraded,
		AIStatus: "ok",
	})
}

type SummaryRequest struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	MemberID string `json:"member_id,omitempty"`
}

type SummaryResponse struct {
	Summary     string `json:"summary"`
	UpdateCount int    `json:"update_count"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AIStatus    string `json:"ai_status"`
}

func (h *InsightsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Start == "" {
		api.Error(w, http.StatusBadRequest, "start is required")
		return
	}

	start, err := parseDateParam(req.Start)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid start date")
		return
	}

	input := service.SummarizeInput{
		Start:    start,
		MemberID: req.MemberID,
	}
	if req.End != "" {
		end, err := parseDateParam(req.End)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid end date")
			return
		}
		input.End = end
	}

	output, err := h.svc.Summarize(r.Context(), input)
	if err != nil {
		if isInferenceError(err) {
			api.Success(w, http.StatusOK, SummaryResponse{AIStatus: "unavailable"})
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SummaryResponse{
		Summary:     output.Summary,
		UpdateCount: output.UpdateCount,
		Start:       output.Start.Format("2006-01-02"),
		End:         output.End.Format("2006-01-02"),
		AIStatus:    "ok",
	})
}

type ResyncRequest struct {
	MemberID string `json:"member_id,omitempty"`
}

type ResyncResponse struct {
	Total  int `json:"total"`
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

func (h *InsightsHandler) Resync(w http.ResponseWriter, r *http.Request) {
	var req ResyncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	output, err := h.svc.Resync(r.Context(), service.ResyncInput{MemberID: req.MemberID})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ResyncResponse{
		Total:  output.Total,
		Synced: output.Synced,
		Failed: output.Failed,
	})
}

type AIHealthResponse struct {
	Status       string `json:"status"`
	LLMAvailable bool   `json:"llm_available"`
	VectorCount  int64  `json:"vector_count"`
}

func (h *InsightsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	output, err := h.svc.Health(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AIHealthResponse{
		Status:       output.Status,
		LLMAvailable: output.LLMAvailable,
		VectorCount:  output.VectorCount,
	})
}

// isInferenceError reports whether the error came from the LLM backend.
// Those surface as a successful response with ai_status set, so a flaky
// model endpoint never reads as an API outage.
func isInferenceError(err error) bool {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == domain.ErrCodeInferenceDown || de.Code == domain.ErrCodeInferenceTimeout
}
