package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAPI is a mock for the inference backend API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func (m *MockAPI) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.EmbeddingResponse), args.Error(1)
}

func (m *MockAPI) ListModels(ctx context.Context) (openai.ModelsList, error) {
	args := m.Called(ctx)
	return args.Get(0).(openai.ModelsList), args.Error(1)
}

func newTestClient(api API) *Client {
	return NewClientWithAPI(api, Config{
		Model:               "llama3.1",
		EmbeddingModel:      "nomic-embed-text",
		EmbeddingDimensions: 4,
	})
}

func TestClient_Generate_Success(t *testing.T) {
	mockAPI := new(MockAPI)
	client := newTestClient(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "llama3.1" &&
			len(req.Messages) == 1 &&
			req.Messages[0].Content == "Say hello"
	})).Return(openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Hello!"}},
		},
	}, nil)

	result, err := client.Generate(context.Background(), "Say hello", GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Hello!", result)
	mockAPI.AssertExpectations(t)
}

func TestClient_Generate_EmptyPrompt(t *testing.T) {
	client := newTestClient(new(MockAPI))

	result, err := client.Generate(context.Background(), "", GenerateOptions{})

	assert.Error(t, err)
	assert.Empty(t, result)
	assert.Equal(t, ErrEmptyPrompt, err)
}

func TestClient_Generate_ModelOverride(t *testing.T) {
	mockAPI := new(MockAPI)
	client := newTestClient(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "mistral"
	})).Return(openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "ok"}},
		},
	}, nil)

	_, err := client.Generate(context.Background(), "hi", GenerateOptions{Model: "mistral"})

	require.NoError(t, err)
	mockAPI.AssertExpectations(t)
}

func TestClient_Generate_BackendDown(t *testing.T) {
	mockAPI := new(MockAPI)
	client := newTestClient(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("connection refused"))

	result, err := client.Generate(context.Background(), "hi", GenerateOptions{})

	require.Error(t, err)
	assert.Empty(t, result)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeInferenceDown, de.Code)
}

func TestClient_Generate_Timeout(t *testing.T) {
	mockAPI := new(MockAPI)
	client := newTestClient(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, context.DeadlineExceeded)

	_, err := client.Generate(context.Background(), "hi", GenerateOptions{})

	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeInferenceTimeout, de.Code)
}

func TestClient_Generate_NoChoices(t *testing.T) {
	mockAPI := new(MockAPI)
	client := newTestClient(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, nil)

	_, err := client.Generate(context.Background(), "hi", GenerateOptions{})

	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeInferenceDown, de.Code)
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockAPI)
	client := newTestClient(mockAPI)

	mockAPI.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{
		Data: []openai.Embedding{
			{Embedding: []float32{0.1, 0.2, 0.3, 0.4}},
		},
	}, nil)

	embedding, err := client.GenerateEmbedding(context.Background(), "status update text")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	client := newTestClient(new(MockAPI))

	embedding, err := client.GenerateEmbedding(context.Background(), "")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockAPI)
	client := newTestClient(mockAPI)

	mockAPI.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{
		Data: []openai.Embedding{
			{Embedding: []float32{0.1, 0.2}},
		},
	}, nil)

	embedding, err := client.GenerateEmbedding(context.Background(), "text")

	require.Error(t, err)
	assert.Nil(t, embedding)
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockAPI)
	client := newTestClient(mockAPI)

	mockAPI.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return(openai.EmbeddingResponse{}, errors.New("rate limit exceeded"))

	embedding, err := client.GenerateEmbedding(context.Background(), "text")

	require.Error(t, err)
	assert.Nil(t, embedding)
	assert.Contains(t, err.Error(), "failed to create embedding")
}

func TestClient_CheckConnection(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		mockAPI := new(MockAPI)
		client := newTestClient(mockAPI)

		mockAPI.On("ListModels", mock.Anything).Return(openai.ModelsList{}, nil)

		assert.True(t, client.CheckConnection(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		mockAPI := new(MockAPI)
		client := newTestClient(mockAPI)

		mockAPI.On("ListModels", mock.Anything).Return(openai.ModelsList{}, errors.New("connection refused"))

		assert.False(t, client.CheckConnection(context.Background()))
	})
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{})

	assert.NotNil(t, client)
	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())
}
