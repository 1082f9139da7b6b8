// Package llm wraps an OpenAI-compatible inference endpoint for text
// generation and embeddings. A local Ollama server exposing /v1 works the
// same as the hosted API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingDimensions is the expected embedding width when none
	// is configured (nomic-embed-text).
	DefaultEmbeddingDimensions = 768
	// DefaultTimeout bounds every outbound call; the backend may be cold
	// and take a long time to load a model.
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrEmptyText is returned when text to embed is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrEmptyPrompt is returned when a generation prompt is empty
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected width
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
)

// GenerateOptions carries per-call generation parameters.
type GenerateOptions struct {
	Model       string // Overrides the configured default when set
	Temperature float32
	MaxTokens   int
}

// API defines the subset of the inference backend the client depends on
type API interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Config holds client configuration
type Config struct {
	BaseURL             string
	APIKey              string
	Model               string
	EmbeddingModel      string
	EmbeddingDimensions int
	Timeout             time.Duration
}

// Client wraps the inference backend. All calls carry an explicit timeout.
type Client struct {
	api        API
	model      string
	embedModel openai.EmbeddingModel
	dimensions int
	timeout    time.Duration
}

// NewClient creates a new Client from configuration.
func NewClient(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		embedModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		dimensions: dimensions,
		timeout:    timeout,
	}
}

// NewClientWithAPI creates a Client around an explicit API implementation (for testing).
func NewClientWithAPI(api API, cfg Config) *Client {
	c := NewClient(cfg)
	c.api = api
	return c
}

// Generate produces text for the given prompt. Timeouts map to
// domain.ErrInferenceTimeout; any other transport failure maps to
// domain.ErrInferenceUnavailable.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	model := opts.Model
	if model == "" {
		model = c.model
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", classifyTransportError(err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInferenceDown, "llm backend unavailable", errors.New("no choices returned"))
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.embedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", classifyTransportError(err))
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	embedding := resp.Data[0].Embedding
	if len(embedding) != c.dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(embedding))
	}

	return embedding, nil
}

// Dimensions returns the configured embedding width.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// CheckConnection reports whether the inference backend is reachable.
// Used by the AI health-check endpoint.
func (c *Client) CheckConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.api.ListModels(ctx)
	return err == nil
}

// classifyTransportError maps a backend failure onto the AI error taxonomy.
// A context deadline means the backend was reachable but too slow; anything
// else counts as unreachable.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInferenceTimeout, "llm request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInferenceTimeout, "llm request timed out", err)
	}

	return domain.NewDomainErrorWithCause(domain.ErrCodeInferenceDown, "llm backend unavailable", err)
}
