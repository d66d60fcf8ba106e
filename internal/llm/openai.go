package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// OpenAIClient provides access to the OpenAI chat completions API with rate
// limiting, response caching and usage metrics. The API key passed per call
// takes precedence over the configured fallback key, so user-supplied keys
// flow through without rebuilding the client.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client

	// Rate limiting
	rateLimiter *rate.Limiter

	// Caching
	cache         *Cache
	cacheTTL      time.Duration
	enableCaching bool

	// Metrics
	metrics *Metrics
	mu      sync.RWMutex
}

// Config for the OpenAI client
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
	RateLimitRPM  int // Requests per minute
	CacheTTL      time.Duration
	EnableCaching bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://api.openai.com",
		Model:         "gpt-3.5-turbo-0125",
		MaxTokens:     800,
		Temperature:   0.7,
		Timeout:       60 * time.Second,
		RateLimitRPM:  50,
		CacheTTL:      time.Hour,
		EnableCaching: true,
	}
}

// Metrics tracks API usage
type Metrics struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalTokensIn   int64
	TotalTokensOut  int64
	TotalCost       float64
	TotalLatencyMs  int64
	CacheHits       int64
	CacheMisses     int64
}

// Cache for LLM responses
type Cache struct {
	data map[string]cacheEntry
	mu   sync.RWMutex
}

type cacheEntry struct {
	response  []byte
	expiresAt time.Time
}

// NewCache creates a new cache
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]cacheEntry),
	}
}

// Get retrieves from cache
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.response, true
}

// Set stores in cache
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		response:  value,
		expiresAt: time.Now().Add(ttl),
	}
}

// NewOpenAIClient creates a new OpenAI API client. A missing API key is not
// an error here: callers may supply per-request keys.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaults.Temperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RateLimitRPM == 0 {
		cfg.RateLimitRPM = defaults.RateLimitRPM
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}

	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPM)/60.0), 1)

	return &OpenAIClient{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter:   limiter,
		cache:         NewCache(),
		cacheTTL:      cfg.CacheTTL,
		enableCaching: cfg.EnableCaching,
		metrics:       &Metrics{},
	}
}

// Request represents a chat completions request
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a conversation message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response represents a chat completions response
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one completion alternative
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage contains token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrMissingKey is returned when neither a per-request key nor a configured
// fallback key is available.
var ErrMissingKey = errors.New("API key is required")

// APIError is a non-2xx reply from the API. The orchestrator folds it into
// a user-facing "Error: HTTP <status>" result string.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Complete sends a chat completion and returns the assistant reply text.
// apiKey overrides the configured fallback key when non-empty.
func (c *OpenAIClient) Complete(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, *Usage, error) {
	atomic.AddInt64(&c.metrics.TotalRequests, 1)

	key := apiKey
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		atomic.AddInt64(&c.metrics.FailedRequests, 1)
		return "", nil, ErrMissingKey
	}

	cacheKey := c.cacheKey(systemPrompt, userPrompt)
	if c.enableCaching {
		if cached, ok := c.cache.Get(cacheKey); ok {
			atomic.AddInt64(&c.metrics.CacheHits, 1)
			return string(cached), nil, nil
		}
		atomic.AddInt64(&c.metrics.CacheMisses, 1)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		atomic.AddInt64(&c.metrics.FailedRequests, 1)
		return "", nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()

	req := Request{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	resp, err := c.doRequest(ctx, key, req)
	if err != nil {
		atomic.AddInt64(&c.metrics.FailedRequests, 1)
		return "", nil, err
	}

	atomic.AddInt64(&c.metrics.SuccessRequests, 1)
	atomic.AddInt64(&c.metrics.TotalTokensIn, int64(resp.Usage.PromptTokens))
	atomic.AddInt64(&c.metrics.TotalTokensOut, int64(resp.Usage.CompletionTokens))
	atomic.AddInt64(&c.metrics.TotalLatencyMs, time.Since(start).Milliseconds())

	c.mu.Lock()
	c.metrics.TotalCost += c.calculateCost(resp.Usage)
	c.mu.Unlock()

	if len(resp.Choices) == 0 {
		return "", &resp.Usage, fmt.Errorf("empty response")
	}

	text := resp.Choices[0].Message.Content

	if c.enableCaching {
		c.cache.Set(cacheKey, []byte(text), c.cacheTTL)
	}

	return text, &resp.Usage, nil
}

// TestKey checks an API key against the models listing endpoint.
func (c *OpenAIClient) TestKey(ctx context.Context, apiKey string) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}

	return nil
}

// doRequest performs the HTTP request
func (c *OpenAIClient) doRequest(ctx context.Context, apiKey string, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var apiResp Response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return &apiResp, nil
}

// calculateCost calculates the cost of a request
func (c *OpenAIClient) calculateCost(usage Usage) float64 {
	// gpt-3.5-turbo pricing: $0.50 per million input tokens,
	// $1.50 per million output tokens
	inputCost := float64(usage.PromptTokens) / 1000000 * 0.50
	outputCost := float64(usage.CompletionTokens) / 1000000 * 1.50
	return inputCost + outputCost
}

// cacheKey hashes both prompts so distinct analyses never collide.
func (c *OpenAIClient) cacheKey(systemPrompt, userPrompt string) string {
	h := sha256.Sum256([]byte(c.model + "|" + systemPrompt + "|" + userPrompt))
	return hex.EncodeToString(h[:])
}

// GetMetrics returns current metrics
func (c *OpenAIClient) GetMetrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Metrics{
		TotalRequests:   atomic.LoadInt64(&c.metrics.TotalRequests),
		SuccessRequests: atomic.LoadInt64(&c.metrics.SuccessRequests),
		FailedRequests:  atomic.LoadInt64(&c.metrics.FailedRequests),
		TotalTokensIn:   atomic.LoadInt64(&c.metrics.TotalTokensIn),
		TotalTokensOut:  atomic.LoadInt64(&c.metrics.TotalTokensOut),
		TotalCost:       c.metrics.TotalCost,
		TotalLatencyMs:  atomic.LoadInt64(&c.metrics.TotalLatencyMs),
		CacheHits:       atomic.LoadInt64(&c.metrics.CacheHits),
		CacheMisses:     atomic.LoadInt64(&c.metrics.CacheMisses),
	}
}

// GetModel returns the model being used
func (c *OpenAIClient) GetModel() string {
	return c.model
}
