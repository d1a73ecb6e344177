// Package llm wraps an OpenAI-compatible chat completion API with
// API key rotation for rate-limited providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/metrics"
)

// chatCaller is the slice of the OpenAI client the rotation needs.
type chatCaller interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds chat model settings.
type Config struct {
	APIKeys     []string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      *zap.Logger
}

// Client calls the chat model, rotating through API keys when one is
// rate limited. The rotation position survives across requests so a
// throttled key is not retried first every time.
type Client struct {
	callers     []chatCaller
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger

	mu   sync.Mutex
	next int
}

// New creates a chat client with one underlying client per API key.
func New(cfg *Config) (*Client, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("at least one API key is required")
	}

	callers := make([]chatCaller, len(cfg.APIKeys))
	for i, key := range cfg.APIKeys {
		clientCfg := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		callers[i] = openai.NewClientWithConfig(clientCfg)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		callers:     callers,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

// Complete sends the conversation to the model and returns its text reply.
// On a rate limit it advances to the next key and retries; once every key
// has been throttled the call fails with ErrModelRateLimited.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	start := time.Now()

	for attempt := 0; attempt < len(c.callers); attempt++ {
		caller, idx := c.current()

		resp, err := caller.CreateChatCompletion(ctx, req)
		if err != nil {
			if isRateLimited(err) {
				c.logger.Warn("Chat API key rate limited, rotating",
					zap.Int("key_index", idx),
					zap.Error(err))
				c.advance(idx)
				continue
			}
			metrics.ModelRequestsTotal.WithLabelValues(c.model, "error").Inc()
			return "", fmt.Errorf("chat completion: %v: %w", err, domain.ErrModelRequest)
		}

		if len(resp.Choices) == 0 {
			metrics.ModelRequestsTotal.WithLabelValues(c.model, "error").Inc()
			return "", fmt.Errorf("empty chat completion response: %w", domain.ErrModelRequest)
		}

		metrics.ModelRequestsTotal.WithLabelValues(c.model, "success").Inc()
		metrics.ModelRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())
		return resp.Choices[0].Message.Content, nil
	}

	metrics.ModelRequestsTotal.WithLabelValues(c.model, "rate_limited").Inc()
	return "", fmt.Errorf("all %d API keys rate limited: %w", len(c.callers), domain.ErrModelRateLimited)
}

func (c *Client) current() (chatCaller, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callers[c.next], c.next
}

// advance moves past idx unless another request already rotated.
func (c *Client) advance(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next == idx {
		c.next = (c.next + 1) % len(c.callers)
	}
}

func toOpenAIMessages(messages []domain.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// isRateLimited recognizes throttling across providers: HTTP 429 from the
// OpenAI error types, or quota wording in the message (Gemini-compatible
// endpoints report RESOURCE_EXHAUSTED in the body).
func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"rate limit", "quota", "resource_exhausted", "429"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
