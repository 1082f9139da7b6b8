package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/llm"
	"github.com/cloo-solutions/pulsetrack/internal/telemetry"
	"github.com/cloo-solutions/pulsetrack/internal/vector"
)

const (
	defaultAnswerTopK = 5
	maxAnswerTopK     = 10

	answerTemperature  = 0.2
	summaryTemperature = 0.3
	answerMaxTokens    = 1024
	summaryMaxTokens   = 1536

	// Summaries default to a one-week window when no end date is given.
	defaultSummaryWindow = 7 * 24 * time.Hour
)

// VectorIndexInterface defines the similarity index the orchestrator queries
type VectorIndexInterface interface {
	Upsert(ctx context.Context, input vector.UpsertInput) error
	Query(ctx context.Context, text string, memberID string, limit int) ([]*domain.VectorMatch, error)
	DeleteByMember(ctx context.Context, memberID string) error
	Count(ctx context.Context) (int64, error)
}

// GeneratorInterface defines the inference backend the orchestrator prompts
type GeneratorInterface interface {
	Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error)
	CheckConnection(ctx context.Context) bool
}

// InsightsService answers questions over indexed status updates and writes
// period summaries. Questions go through the vector index; summaries read
// the relational store directly so they stay exact even when the index lags.
type InsightsService struct {
	updateRepo StatusUpdateRepositoryInterface
	memberRepo MemberRepositoryInterface
	index      VectorIndexInterface
	generator  GeneratorInterface
}

// NewInsightsService creates a new InsightsService instance
func NewInsightsService(
	updateRepo StatusUpdateRepositoryInterface,
	memberRepo MemberRepositoryInterface,
	index VectorIndexInterface,
	generator GeneratorInterface,
) *InsightsService {
	return &InsightsService{
		updateRepo: updateRepo,
		memberRepo: memberRepo,
		index:      index,
		generator:  generator,
	}
}

// AnswerInput represents the input for answering a question
type AnswerInput struct {
	Question string
	TopK     int
	MemberID string
}

// AnswerSource is one indexed update that informed an answer.
type AnswerSource struct {
	UpdateID   string
	MemberID   string
	MemberName string
	Body       string
	RecordedAt time.Time
	Score      float32
}

// AnswerOutput carries the generated answer and its supporting sources.
// Degraded is set when the vector index could not be queried; the answer is
// then generated without retrieved context.
type AnswerOutput struct {
	Answer   string
	Sources  []AnswerSource
	Degraded bool
}

// SummarizeInput represents the input for a period summary
type SummarizeInput struct {
	Start    time.Time
	End      time.Time
	MemberID string
}

// SummarizeOutput carries the generated summary and the covered range.
type SummarizeOutput struct {
	Summary     string
	UpdateCount int
	Start       time.Time
	End         time.Time
}

// ResyncInput scopes a resync. Empty MemberID means the whole index.
type ResyncInput struct {
	MemberID string
}

// ResyncOutput reports how many updates were re-indexed.
type ResyncOutput struct {
	Total  int
	Synced int
	Failed int
}

// HealthOutput reports the state of the AI path.
type HealthOutput struct {
	LLMAvailable bool
	VectorCount  int64
	Status       string
}

// Answer retrieves the most relevant status updates for the question and
// prompts the LLM with them. Index failures degrade the answer instead of
// failing the request.
func (s *InsightsService) Answer(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "InsightsService.Answer", telemetry.SpanAttributes{
		MemberID:  input.MemberID,
		Operation: "answer",
	})
	defer span.End()

	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "question is required")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = defaultAnswerTopK
	}
	if topK > maxAnswerTopK {
		topK = maxAnswerTopK
	}

	if input.MemberID != "" {
		if _, err := s.memberRepo.GetByID(ctx, input.MemberID); err != nil {
			return nil, err
		}
	}

	degraded := false
	matches, err := s.index.Query(ctx, question, input.MemberID, topK)
	if err != nil {
		// Inference-side failures abort; an unreachable index does not.
		var de *domain.DomainError
		if errors.As(err, &de) && de.Code != domain.ErrCodeIndexDown {
			return nil, err
		}
		log.Printf("insights: vector query failed, answering without context: %v", err)
		telemetry.CaptureError(ctx, err)
		degraded = true
		matches = nil
	}

	prompt := buildAnswerPrompt(question, matches, degraded)

	answer, err := s.generator.Generate(ctx, prompt, llm.GenerateOptions{
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	sources := make([]AnswerSource, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, AnswerSource{
			UpdateID:   m.UpdateID,
			MemberID:   m.MemberID,
			MemberName: m.MemberName,
			Body:       m.Body,
			RecordedAt: m.RecordedAt,
			Score:      m.Score,
		})
	}

	return &AnswerOutput{
		Answer:   strings.TrimSpace(answer),
		Sources:  sources,
		Degraded: degraded,
	}, nil
}

// Summarize writes a narrative summary of the updates recorded in a date
// range. The range is read from the relational store, never the index, so
// the count is exact. An empty range short-circuits without an LLM call.
func (s *InsightsService) Summarize(ctx context.Context, input SummarizeInput) (*SummarizeOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "InsightsService.Summarize", telemetry.SpanAttributes{
		MemberID:  input.MemberID,
		Operation: "summarize",
	})
	defer span.End()

	if input.Start.IsZero() {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "start date is required")
	}

	end := input.End
	if end.IsZero() {
		end = input.Start.Add(defaultSummaryWindow)
	}
	if end.Before(input.Start) {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "end date precedes start date")
	}

	if input.MemberID != "" {
		if _, err := s.memberRepo.GetByID(ctx, input.MemberID); err != nil {
			return nil, err
		}
	}

	updates, err := s.updateRepo.ListRange(ctx, input.Start, end, input.MemberID)
	if err != nil {
		return nil, err
	}

	if len(updates) == 0 {
		return &SummarizeOutput{
			Summary:     "No status updates were recorded in this period.",
			UpdateCount: 0,
			Start:       input.Start,
			End:         end,
		}, nil
	}

	prompt := buildSummaryPrompt(updates, input.Start, end)

	summary, err := s.generator.Generate(ctx, prompt, llm.GenerateOptions{
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &SummarizeOutput{
		Summary:     strings.TrimSpace(summary),
		UpdateCount: len(updates),
		Start:       input.Start,
		End:         end,
	}, nil
}

// Resync rebuilds the vector index from the relational store. Upserts are
// last-write-wins by update ID, so re-running is always safe. A member scope
// first drops that member's records to clear orphans.
func (s *InsightsService) Resync(ctx context.Context, input ResyncInput) (*ResyncOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "InsightsService.Resync", telemetry.SpanAttributes{
		MemberID:  input.MemberID,
		Operation: "resync",
	})
	defer span.End()

	var updates []*domain.StatusUpdateWithMember
	var err error

	if input.MemberID != "" {
		if _, err := s.memberRepo.GetByID(ctx, input.MemberID); err != nil {
			return nil, err
		}
		if err := s.index.DeleteByMember(ctx, input.MemberID); err != nil {
			return nil, err
		}
		updates, err = s.updateRepo.ListByMember(ctx, input.MemberID)
	} else {
		updates, err = s.updateRepo.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := &ResyncOutput{Total: len(updates)}
	for _, u := range updates {
		err := s.index.Upsert(ctx, vector.UpsertInput{
			UpdateID:   u.ID,
			MemberID:   u.MemberID,
			MemberName: u.MemberName,
			Body:       u.Body,
			RecordedAt: u.RecordedAt,
		})
		if err != nil {
			log.Printf("insights: resync failed for update %s: %v", u.ID, err)
			out.Failed++
			continue
		}
		out.Synced++
	}

	return out, nil
}

// Health probes the inference backend and counts indexed records. The index
// count doubles as a database reachability check for the AI path.
func (s *InsightsService) Health(ctx context.Context) (*HealthOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "InsightsService.Health", telemetry.SpanAttributes{
		Operation: "health",
	})
	defer span.End()

	out := &HealthOutput{
		LLMAvailable: s.generator.CheckConnection(ctx),
	}

	count, err := s.index.Count(ctx)
	if err != nil {
		out.Status = "degraded"
		return out, nil
	}
	out.VectorCount = count

	if out.LLMAvailable {
		out.Status = "healthy"
	} else {
		out.Status = "degraded"
	}
	return out, nil
}

// buildAnswerPrompt assembles the retrieval-augmented prompt. Context lines
// carry the author and date so the model can attribute statements.
func buildAnswerPrompt(question string, matches []*domain.VectorMatch, degraded bool) string {
	var b strings.Builder

	b.WriteString("You are an assistant for a team status tracker. ")
	b.WriteString("Answer the question using only the status updates below. ")
	b.WriteString("If the updates do not contain the answer, say so.\n\n")

	if len(matches) == 0 {
		if degraded {
			b.WriteString("Status updates: unavailable (semantic search is temporarily down).\n")
		} else {
			b.WriteString("Status updates: none matched the question.\n")
		}
	} else {
		b.WriteString("Status updates:\n")
		for i, m := range matches {
			fmt.Fprintf(&b, "%d. [%s] on %s: %s\n", i+1, m.MemberName, m.RecordedAt.Format("2006-01-02"), m.Body)
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

// buildSummaryPrompt assembles the period-summary prompt, grouping updates
// by member and keeping each member's updates chronological.
func buildSummaryPrompt(updates []*domain.StatusUpdateWithMember, start, end time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a concise progress summary for the period %s to %s ",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	b.WriteString("based on the team status updates below. ")
	b.WriteString("Cover what each person worked on, shared themes, and any blockers mentioned.\n\n")

	// ListRange orders by member name then recorded_at, so one pass groups
	// correctly.
	currentMember := ""
	for _, u := range updates {
		if u.MemberName != currentMember {
			currentMember = u.MemberName
			fmt.Fprintf(&b, "%s:\n", currentMember)
		}
		fmt.Fprintf(&b, "- %s: %s\n", u.RecordedAt.Format("2006-01-02"), u.Body)
	}

	b.WriteString("\nSummary:")
	return b.String()
}
