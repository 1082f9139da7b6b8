package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// LLM backend: any OpenAI-compatible endpoint, e.g. a local
	// Ollama server at http://localhost:11434/v1.
	LLMBaseURL        string `envconfig:"LLM_BASE_URL" default:"http://localhost:11434/v1"`
	LLMAPIKey         string `envconfig:"LLM_API_KEY"`
	LLMModel          string `envconfig:"LLM_MODEL" default:"llama3.1"`
	EmbeddingModel    string `envconfig:"EMBEDDING_MODEL" default:"nomic-embed-text"`
	EmbeddingDims     int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	LLMTimeoutSeconds int    `envconfig:"LLM_TIMEOUT_SECONDS" default:"60"`

	// Vector index job worker
	IndexPollSeconds int `envconfig:"INDEX_POLL_SECONDS" default:"5"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PULSETRACK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) LLMTimeout() time.Duration {
	if c.LLMTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c *Config) IndexPollInterval() time.Duration {
	if c.IndexPollSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.IndexPollSeconds) * time.Second
}
