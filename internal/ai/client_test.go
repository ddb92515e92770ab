package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nomadcxx/vidmeta/internal/config"
	"github.com/Nomadcxx/vidmeta/internal/database"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockOllama answers /api/generate with reply(prompt) and counts calls.
func newMockOllama(t *testing.T, reply func(prompt string) (int, string)) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[]}`))
		case "/api/generate":
			calls.Add(1)
			var req GenerateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if req.Stream {
				t.Errorf("expected stream=false")
			}
			status, body := reply(req.Prompt)
			if status != http.StatusOK {
				w.WriteHeader(status)
				w.Write([]byte(body))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(GenerateResponse{Model: req.Model, Response: body, Done: true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testAIConfig(endpoint string) config.AIConfig {
	cfg := config.DefaultAIConfig()
	cfg.Enabled = true
	cfg.Model = "test-model"
	cfg.OllamaEndpoint = endpoint
	cfg.TimeoutSeconds = 5
	return cfg
}

func TestNewClient_Validation(t *testing.T) {
	cfg := testAIConfig("http://localhost:1")
	cfg.Model = ""
	_, err := NewClient(cfg)
	assert.Error(t, err)

	cfg = testAIConfig("")
	_, err = NewClient(cfg)
	assert.Error(t, err)

	cfg = testAIConfig("http://localhost:1")
	cfg.TimeoutSeconds = 0
	_, err = NewClient(cfg)
	assert.Error(t, err)
}

func TestClient_AnalyzeSendsFramedPrompt(t *testing.T) {
	var gotPrompt string
	srv, _ := newMockOllama(t, func(prompt string) (int, string) {
		gotPrompt = prompt
		return http.StatusOK, "```\n\"Lonely Robot\"\n```"
	})

	client, err := NewClient(testAIConfig(srv.URL))
	require.NoError(t, err)

	answer, err := client.Analyze(context.Background(), TaskTitle, "a robot wanders alone")
	require.NoError(t, err)
	assert.Equal(t, "Lonely Robot", answer)
	assert.True(t, strings.HasPrefix(gotPrompt, TaskTitle.Instruction+"\n\n---\nText to analyze:\n\"\"\"a robot wanders alone\n\"\"\""))
	assert.True(t, strings.HasSuffix(gotPrompt, "Response:"))
	assert.EqualValues(t, 1, client.Metrics().Calls.Load())
}

func TestClient_Disabled(t *testing.T) {
	cfg := testAIConfig("http://localhost:1")
	cfg.Enabled = false
	client, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = client.Analyze(context.Background(), TaskTitle, "x")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = client.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	srv, calls := newMockOllama(t, func(string) (int, string) {
		return http.StatusInternalServerError, "boom"
	})

	cfg := testAIConfig(srv.URL)
	cfg.CircuitBreaker.FailureThreshold = 2
	cfg.CircuitBreaker.CooldownSeconds = 60
	client, err := NewClient(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.Analyze(ctx, TaskPublisher, "studio")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}
	assert.Equal(t, "open", client.BreakerState())

	_, err = client.Analyze(ctx, TaskPublisher, "studio")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load(), "open breaker must not reach Ollama")
	assert.EqualValues(t, 2, client.Metrics().Errors.Load())
	assert.EqualValues(t, 1, client.Metrics().Rejected.Load())
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := NewClient(testAIConfig(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Analyze(ctx, TaskTitle, "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 1, client.Metrics().Timeouts.Load())
}

func TestClient_Ping(t *testing.T) {
	srv, _ := newMockOllama(t, func(string) (int, string) { return http.StatusOK, "" })
	client, err := NewClient(testAIConfig(srv.URL + "/"))
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))
	assert.True(t, client.IsAvailable(context.Background()))

	down, err := NewClient(testAIConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	assert.False(t, down.IsAvailable(context.Background()))
}

func TestClient_CacheServesRepeatQuestions(t *testing.T) {
	db, err := database.OpenPath(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	srv, calls := newMockOllama(t, func(string) (int, string) { return http.StatusOK, "Studio X" })
	cache := NewCache(db.DB())
	client, err := NewClient(testAIConfig(srv.URL), WithCache(cache))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := client.Analyze(ctx, TaskPublisher, "Studio_X.Clip")
	require.NoError(t, err)
	second, err := client.Analyze(ctx, TaskPublisher, "studio x clip")
	require.NoError(t, err)

	assert.Equal(t, "Studio X", first)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1, client.Metrics().CacheHits.Load())

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	removed, err := cache.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed, "fresh entries survive cleanup")
}

func TestInsight_Fields(t *testing.T) {
	srv, _ := newMockOllama(t, func(prompt string) (int, string) {
		switch {
		case strings.HasPrefix(prompt, TaskActors.Instruction):
			return http.StatusOK, "1. Jane Smith\n- John Doe\nNone"
		case strings.HasPrefix(prompt, TaskPublisher.Instruction):
			return http.StatusOK, "N/A"
		default:
			return http.StatusOK, "Lonely Robot"
		}
	})
	client, err := NewClient(testAIConfig(srv.URL))
	require.NoError(t, err)
	insight := NewInsight(client, nil)
	ctx := context.Background()

	title, ok := insight.SuggestTitle(ctx, "text")
	assert.True(t, ok)
	assert.Equal(t, "Lonely Robot", title)

	actors, ok := insight.ExtractActorNames(ctx, "text")
	assert.True(t, ok)
	assert.Equal(t, []string{"Jane Smith", "John Doe"}, actors)

	publisher, ok := insight.SuggestPublisher(ctx, "text")
	assert.False(t, ok, "n/a means not provided")
	assert.Empty(t, publisher)
}

func TestInsight_FailureIsNotProvided(t *testing.T) {
	srv, _ := newMockOllama(t, func(string) (int, string) { return http.StatusBadGateway, "" })
	client, err := NewClient(testAIConfig(srv.URL))
	require.NoError(t, err)
	insight := NewInsight(client, nil)

	_, ok := insight.SuggestTitle(context.Background(), "x")
	assert.False(t, ok)
	names, ok := insight.ExtractActorNames(context.Background(), "x")
	assert.False(t, ok)
	assert.Nil(t, names)
}
