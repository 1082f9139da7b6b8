package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/llm"
	"github.com/cloo-solutions/pulsetrack/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVectorIndex is a mock implementation of VectorIndexInterface
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) Upsert(ctx context.Context, input vector.UpsertInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockVectorIndex) Query(ctx context.Context, text string, memberID string, limit int) ([]*domain.VectorMatch, error) {
	args := m.Called(ctx, text, memberID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.VectorMatch), args.Error(1)
}

func (m *MockVectorIndex) DeleteByMember(ctx context.Context, memberID string) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

func (m *MockVectorIndex) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockGenerator is a mock implementation of GeneratorInterface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) CheckConnection(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func TestInsightsService_Answer(t *testing.T) {
	ctx := context.Background()

	recorded := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	matches := []*domain.VectorMatch{
		{UpdateID: "update-1", MemberID: "member-1", MemberName: "Ada", Body: "Finished the parser", RecordedAt: recorded, Score: 0.91},
		{UpdateID: "update-2", MemberID: "member-2", MemberName: "Grace", Body: "Blocked on reviews", RecordedAt: recorded, Score: 0.84},
	}

	t.Run("retrieves context and answers with sources", func(t *testing.T) {
		mockIndex := new(MockVectorIndex)
		mockGen := new(MockGenerator)
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), mockIndex, mockGen)

		mockIndex.On("Query", mock.Anything, "Who finished the parser?", "", 5).Return(matches, nil)
		mockGen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "1. [Ada] on 2026-08-20: Finished the parser") &&
				strings.Contains(prompt, "Question: Who finished the parser?")
		}), mock.Anything).Return("Ada finished the parser.", nil)

		result, err := service.Answer(ctx, AnswerInput{Question: "Who finished the parser?"})

		require.NoError(t, err)
		assert.Equal(t, "Ada finished the parser.", result.Answer)
		assert.False(t, result.Degraded)
		require.Len(t, result.Sources, 2)
		assert.Equal(t, "update-1", result.Sources[0].UpdateID)
		assert.InDelta(t, 0.91, result.Sources[0].Score, 0.001)
		mockIndex.AssertExpectations(t)
		mockGen.AssertExpectations(t)
	})

	t.Run("clamps top_k to the maximum", func(t *testing.T) {
		mockIndex := new(MockVectorIndex)
		mockGen := new(MockGenerator)
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), mockIndex, mockGen)

		mockIndex.On("Query", mock.Anything, "anything new?", "", 10).Return([]*domain.VectorMatch{}, nil)
		mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("Nothing relevant.", nil)

		_, err := service.Answer(ctx, AnswerInput{Question: "anything new?", TopK: 50})

		require.NoError(t, err)
		mockIndex.AssertExpectations(t)
	})

	t.Run("degrades when the vector index is unavailable", func(t *testing.T) {
		mockIndex := new(MockVectorIndex)
		mockGen := new(MockGenerator)
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), mockIndex, mockGen)

		mockIndex.On("Query", mock.Anything, mock.Anything, "", 5).Return(nil, domain.ErrIndexUnavailable)
		mockGen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "semantic search is temporarily down")
		}), mock.Anything).Return("I cannot see recent updates right now.", nil)

		result, err := service.Answer(ctx, AnswerInput{Question: "What happened this week?"})

		require.NoError(t, err)
		assert.True(t, result.Degraded)
		assert.Empty(t, result.Sources)
		mockGen.AssertExpectations(t)
	})

	t.Run("propagates inference errors from the embedder", func(t *testing.T) {
		mockIndex := new(MockVectorIndex)
		mockGen := new(MockGenerator)
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), mockIndex, mockGen)

		mockIndex.On("Query", mock.Anything, mock.Anything, "", 5).Return(nil, domain.ErrInferenceTimeout)

		result, err := service.Answer(ctx, AnswerInput{Question: "What happened?"})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, domain.ErrInferenceTimeout, err)
		mockGen.AssertNotCalled(t, "Generate")
	})

	t.Run("returns validation error on empty question", func(t *testing.T) {
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), new(MockVectorIndex), new(MockGenerator))

		result, err := service.Answer(ctx, AnswerInput{Question: "   "})

		require.Error(t, err)
		assert.Nil(t, result)
		var de *domain.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, domain.ErrCodeValidation, de.Code)
	})

	t.Run("validates member scope", func(t *testing.T) {
		mockMemberRepo := new(MockMemberRepository)
		service := NewInsightsService(new(MockStatusUpdateRepository), mockMemberRepo, new(MockVectorIndex), new(MockGenerator))

		mockMemberRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrMemberNotFound)

		result, err := service.Answer(ctx, AnswerInput{Question: "What?", MemberID: "missing"})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, domain.ErrMemberNotFound, err)
	})
}

func TestInsightsService_Summarize(t *testing.T) {
	ctx := context.Background()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)

	t.Run("summarizes updates grouped by member", func(t *testing.T) {
		mockUpdateRepo := new(MockStatusUpdateRepository)
		mockGen := new(MockGenerator)
		service := NewInsightsService(mockUpdateRepo, new(MockMemberRepository), new(MockVectorIndex), mockGen)

		updates := []*domain.StatusUpdateWithMember{
			{StatusUpdate: domain.StatusUpdate{ID: "u1", Body: "Started the migration", RecordedAt: start}, MemberName: "Ada"},
			{StatusUpdate: domain.StatusUpdate{ID: "u2", Body: "Finished the migration", RecordedAt: start.Add(24 * time.Hour)}, MemberName: "Ada"},
			{StatusUpdate: domain.StatusUpdate{ID: "u3", Body: "Reviewed PRs", RecordedAt: start}, MemberName: "Grace"},
		}
		mockUpdateRepo.On("ListRange", mock.Anything, start, end, "").Return(updates, nil)
		mockGen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "Ada:") &&
				strings.Contains(prompt, "Grace:") &&
				strings.Contains(prompt, "2026-08-01 to 2026-08-08")
		}), mock.Anything).Return("The team migrated things.", nil)

		result, err := service.Summarize(ctx, SummarizeInput{Start: start, End: end})

		require.NoError(t, err)
		assert.Equal(t, "The team migrated things.", result.Summary)
		assert.Equal(t, 3, result.UpdateCount)
		mockGen.AssertExpectations(t)
	})

	t.Run("defaults the end date to one week after start", func(t *testing.T) {
		mockUpdateRepo := new(MockStatusUpdateRepository)
		mockGen := new(MockGenerator)
		service := NewInsightsService(mockUpdateRepo, new(MockMemberRepository), new(MockVectorIndex), mockGen)

		mockUpdateRepo.On("ListRange", mock.Anything, start, start.Add(7*24*time.Hour), "").
			Return([]*domain.StatusUpdateWithMember{}, nil)

		result, err := service.Summarize(ctx, SummarizeInput{Start: start})

		require.NoError(t, err)
		assert.Equal(t, start.Add(7*24*time.Hour), result.End)
		mockUpdateRepo.AssertExpectations(t)
	})

	t.Run("short-circuits an empty range without calling the LLM", func(t *testing.T) {
		mockUpdateRepo := new(MockStatusUpdateRepository)
		mockGen := new(MockGenerator)
		service := NewInsightsService(mockUpdateRepo, new(MockMemberRepository), new(MockVectorIndex), mockGen)

		mockUpdateRepo.On("ListRange", mock.Anything, start, end, "").Return([]*domain.StatusUpdateWithMember{}, nil)

		result, err := service.Summarize(ctx, SummarizeInput{Start: start, End: end})

		require.NoError(t, err)
		assert.Equal(t, "No status updates were recorded in this period.", result.Summary)
		assert.Equal(t, 0, result.UpdateCount)
		mockGen.AssertNotCalled(t, "Generate")
	})

	t.Run("rejects a missing start date", func(t *testing.T) {
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), new(MockVectorIndex), new(MockGenerator))

		result, err := service.Summarize(ctx, SummarizeInput{})

		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), new(MockVectorIndex), new(MockGenerator))

		result, err := service.Summarize(ctx, SummarizeInput{Start: end, End: start})

		require.Error(t, err)
		assert.Nil(t, result)
		var de *domain.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, domain.ErrCodeValidation, de.Code)
	})
}

func TestInsightsService_Resync(t *testing.T) {
	ctx := context.Background()

	updates := []*domain.StatusUpdateWithMember{
		{StatusUpdate: domain.StatusUpdate{ID: "u1", MemberID: "member-1", Body: "a"}, MemberName: "Ada"},
		{StatusUpdate: domain.StatusUpdate{ID: "u2", MemberID: "member-1", Body: "b"}, MemberName: "Ada"},
	}

	t.Run("rebuilds the whole index", func(t *testing.T) {
		mockUpdateRepo := new(MockStatusUpdateRepository)
		mockIndex := new(MockVectorIndex)
		service := NewInsightsService(mockUpdateRepo, new(MockMemberRepository), mockIndex, new(MockGenerator))

		mockUpdateRepo.On("ListAll", mock.Anything).Return(updates, nil)
		mockIndex.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		result, err := service.Resync(ctx, ResyncInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 2, result.Synced)
		assert.Equal(t, 0, result.Failed)
		mockIndex.AssertNumberOfCalls(t, "Upsert", 2)
	})

	t.Run("member scope drops stale records first", func(t *testing.T) {
		mockUpdateRepo := new(MockStatusUpdateRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockIndex := new(MockVectorIndex)
		service := NewInsightsService(mockUpdateRepo, mockMemberRepo, mockIndex, new(MockGenerator))

		mockMemberRepo.On("GetByID", mock.Anything, "member-1").Return(&domain.TeamMember{ID: "member-1"}, nil)
		mockIndex.On("DeleteByMember", mock.Anything, "member-1").Return(nil)
		mockUpdateRepo.On("ListByMember", mock.Anything, "member-1").Return(updates, nil)
		mockIndex.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		result, err := service.Resync(ctx, ResyncInput{MemberID: "member-1"})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Synced)
		mockIndex.AssertExpectations(t)
		mockUpdateRepo.AssertNotCalled(t, "ListAll")
	})

	t.Run("counts per-update failures without aborting", func(t *testing.T) {
		mockUpdateRepo := new(MockStatusUpdateRepository)
		mockIndex := new(MockVectorIndex)
		service := NewInsightsService(mockUpdateRepo, new(MockMemberRepository), mockIndex, new(MockGenerator))

		mockUpdateRepo.On("ListAll", mock.Anything).Return(updates, nil)
		mockIndex.On("Upsert", mock.Anything, mock.MatchedBy(func(in vector.UpsertInput) bool {
			return in.UpdateID == "u1"
		})).Return(domain.ErrIndexUnavailable)
		mockIndex.On("Upsert", mock.Anything, mock.MatchedBy(func(in vector.UpsertInput) bool {
			return in.UpdateID == "u2"
		})).Return(nil)

		result, err := service.Resync(ctx, ResyncInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 1, result.Synced)
		assert.Equal(t, 1, result.Failed)
	})
}

func TestInsightsService_Health(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy when LLM and index respond", func(t *testing.T) {
		mockIndex := new(MockVectorIndex)
		mockGen := new(MockGenerator)
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), mockIndex, mockGen)

		mockGen.On("CheckConnection", mock.Anything).Return(true)
		mockIndex.On("Count", mock.Anything).Return(int64(42), nil)

		result, err := service.Health(ctx)

		require.NoError(t, err)
		assert.True(t, result.LLMAvailable)
		assert.Equal(t, int64(42), result.VectorCount)
		assert.Equal(t, "healthy", result.Status)
	})

	t.Run("degraded when the LLM is unreachable", func(t *testing.T) {
		mockIndex := new(MockVectorIndex)
		mockGen := new(MockGenerator)
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), mockIndex, mockGen)

		mockGen.On("CheckConnection", mock.Anything).Return(false)
		mockIndex.On("Count", mock.Anything).Return(int64(0), nil)

		result, err := service.Health(ctx)

		require.NoError(t, err)
		assert.False(t, result.LLMAvailable)
		assert.Equal(t, "degraded", result.Status)
	})

	t.Run("degraded when the index count fails", func(t *testing.T) {
		mockIndex := new(MockVectorIndex)
		mockGen := new(MockGenerator)
		service := NewInsightsService(new(MockStatusUpdateRepository), new(MockMemberRepository), mockIndex, mockGen)

		mockGen.On("CheckConnection", mock.Anything).Return(true)
		mockIndex.On("Count", mock.Anything).Return(int64(0), domain.ErrIndexUnavailable)

		result, err := service.Health(ctx)

		require.NoError(t, err)
		assert.Equal(t, "degraded", result.Status)
	})
}
