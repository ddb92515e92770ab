// Package ai asks a local Ollama model for titles, performer names and
// publishers found in free text.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nomadcxx/vidmeta/internal/config"
	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrDisabled is returned when content analysis is switched off.
	ErrDisabled = errors.New("ai: content analysis disabled")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("ai: circuit breaker open")
)

// GenerateRequest is the request structure for the Ollama generate API
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse is the response structure from the Ollama generate API
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Client sends prompts to Ollama behind a circuit breaker
type Client struct {
	config  config.AIConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	cache   *Cache
	metrics *Metrics
	logger  *logging.Logger
}

// Option configures a Client
type Option func(*Client)

// WithCache enables the answer cache
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for breaker transitions and failures
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the configured endpoint and model
func NewClient(cfg config.AIConfig, opts ...Option) (*Client, error) {
	if cfg.Enabled && cfg.Model == "" {
		return nil, fmt.Errorf("AI enabled but no model specified")
	}
	if cfg.Enabled && cfg.OllamaEndpoint == "" {
		return nil, fmt.Errorf("AI enabled but no Ollama endpoint specified")
	}
	if cfg.TimeoutSeconds < 1 {
		return nil, fmt.Errorf("timeout must be at least 1 second")
	}

	c := &Client{
		config:  cfg,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		metrics: &Metrics{},
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker(cfg.CircuitBreaker, c.logger)
	return c, nil
}

// Generate sends a raw prompt and returns the model's response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.config.Enabled {
		return "", ErrDisabled
	}

	out, err := c.breaker.Execute(func() (string, error) {
		return c.generate(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrCircuitOpen
	}
	return out, err
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	reqJSON, err := json.Marshal(GenerateRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(c.config.TimeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint("/api/generate"), bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return genResp.Response, nil
}

// Analyze runs one task over text and returns the cleaned answer, which is
// "" when the model declined to answer. Answers are cached when a cache is
// configured.
func (c *Client) Analyze(ctx context.Context, task Task, text string) (string, error) {
	if !c.config.Enabled {
		return "", ErrDisabled
	}

	key := NormalizeForCache(text)
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key, task.Name, c.config.Model)
		if err != nil {
			c.logger.Warn("ai", "Cache lookup failed", logging.F("task", task.Name), logging.F("error", err.Error()))
		} else if ok {
			c.metrics.RecordCacheHit()
			return cached, nil
		}
	}

	start := time.Now()
	raw, err := c.Generate(ctx, BuildPrompt(task, text))
	latency := time.Since(start)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			c.metrics.RecordTimeout()
		case errors.Is(err, ErrCircuitOpen):
			c.metrics.RecordRejected()
		default:
			c.metrics.RecordError()
		}
		return "", err
	}
	c.metrics.RecordCall(latency)

	answer := CleanAnswer(raw)
	if c.cache != nil && answer != "" {
		if err := c.cache.Put(ctx, key, task.Name, c.config.Model, answer, latency); err != nil {
			c.logger.Warn("ai", "Cache store failed", logging.F("task", task.Name), logging.F("error", err.Error()))
		}
	}
	return answer, nil
}

// Ping checks that Ollama answers on /api/tags.
func (c *Client) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.endpoint("/api/tags"), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned %d", resp.StatusCode)
	}
	return nil
}

// IsAvailable reports whether Ping succeeds
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.Ping(ctx) == nil
}

// BreakerState returns the breaker state name: closed, half-open or open.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Metrics returns the live usage counters
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// GetConfig returns the client's configuration
func (c *Client) GetConfig() config.AIConfig {
	return c.config
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.config.OllamaEndpoint, "/") + path
}
