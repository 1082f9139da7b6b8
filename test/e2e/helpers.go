//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/api/handlers"
	"github.com/cloo-solutions/pulsetrack/internal/jobs"
	"github.com/cloo-solutions/pulsetrack/internal/llm"
	"github.com/cloo-solutions/pulsetrack/internal/repository"
	"github.com/cloo-solutions/pulsetrack/internal/server"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/cloo-solutions/pulsetrack/internal/testutil"
	"github.com/cloo-solutions/pulsetrack/internal/vector"
	"github.com/jackc/pgx/v5/pgxpool"
)

const embeddingDims = 768

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	LLMStub      *httptest.Server
	ServerURL    string
	ServerCloser func()
	IndexWorker  *jobs.Worker
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full test environment: Postgres container, a stub
// OpenAI-compatible backend, the HTTP server, and a running index worker.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	llmStub := newLLMStub()

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser, indexWorker := startServer(t, pool, llmStub.URL+"/v1", port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		LLMStub:      llmStub,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		IndexWorker:  indexWorker,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.IndexWorker != nil {
		e.IndexWorker.Stop()
	}
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.LLMStub != nil {
		e.LLMStub.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// WaitForVectorCount polls until the vector index holds exactly n records.
func (e *E2ETestEnv) WaitForVectorCount(n int64, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		var count int64
		if err := e.Pool.QueryRow(e.Ctx, "SELECT COUNT(*) FROM vector_records").Scan(&count); err == nil && count == n {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	e.T.Fatalf("vector record count did not reach %d within %v", n, timeout)
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) Put(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("PUT", path, body)
}

func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return &APIResponse{}, nil
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// newLLMStub stands in for an OpenAI-compatible backend. Embeddings are
// deterministic per input text; completions echo a canned answer.
func newLLMStub() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-stub",
			"object": "chat.completion",
			"model":  "llama3.1",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]string{
						"role":    "assistant",
						"content": "Stubbed answer based on the provided status updates.",
					},
				},
			},
		})
	})

	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		data := make([]map[string]interface{}, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": stubEmbedding(text),
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"model":  "nomic-embed-text",
			"data":   data,
		})
	})

	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   []interface{}{},
		})
	})

	return httptest.NewServer(mux)
}

// stubEmbedding derives a deterministic unit-ish vector from the text so
// identical texts are nearest neighbors of each other.
func stubEmbedding(text string) []float32 {
	hash := sha256.Sum256([]byte(text))
	v := make([]float32, embeddingDims)
	for i := range v {
		v[i] = float32(hash[i%len(hash)])/255.0 - 0.5
	}
	return v
}

// startServer wires the full application against the test containers.
func startServer(t *testing.T, pool *pgxpool.Pool, llmBaseURL string, port int) (string, func(), *jobs.Worker) {
	memberRepo := repository.NewMemberRepository(pool)
	updateRepo := repository.NewStatusUpdateRepository(pool)
	goalRepo := repository.NewGoalRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	vectorRepo := repository.NewVectorRecordRepository(pool)
	indexJobRepo := repository.NewIndexJobRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	llmClient := llm.NewClient(llm.Config{
		BaseURL:             llmBaseURL,
		Model:               "llama3.1",
		EmbeddingModel:      "nomic-embed-text",
		EmbeddingDimensions: embeddingDims,
		Timeout:             10 * time.Second,
	})
	index := vector.NewIndex(llmClient, vectorRepo)

	memberSvc := service.NewMemberService(memberRepo)
	statusSvc := service.NewStatusUpdateService(updateRepo, memberRepo, taskRepo, txRunner)
	goalSvc := service.NewGoalService(goalRepo)
	taskSvc := service.NewTaskService(taskRepo, goalRepo, memberRepo)
	insightsSvc := service.NewInsightsService(updateRepo, memberRepo, index, llmClient)

	indexWorker := jobs.NewWorker(jobs.NewIndexWorker(indexJobRepo, updateRepo, index), 200*time.Millisecond)
	go indexWorker.Start(context.Background())

	cfg := server.RouterConfig{
		MemberHandler:   handlers.NewMemberHandler(memberSvc),
		StatusHandler:   handlers.NewStatusUpdateHandler(statusSvc),
		GoalHandler:     handlers.NewGoalHandler(goalSvc),
		TaskHandler:     handlers.NewTaskHandler(taskSvc),
		InsightsHandler: handlers.NewInsightsHandler(insightsSvc),
	}

	router := server.NewRouter(cfg)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, indexWorker
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
