package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
)

type fakeCaller struct {
	calls int
	err   error
	reply string
}

func (f *fakeCaller) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func newTestClient(callers ...chatCaller) *Client {
	return &Client{
		callers: callers,
		model:   "test-model",
		logger:  zap.NewNop(),
	}
}

func TestCompleteReturnsReply(t *testing.T) {
	caller := &fakeCaller{reply: "the budget is 10k"}
	c := newTestClient(caller)

	got, err := c.Complete(context.Background(), []domain.ChatMessage{{Role: "user", Content: "budget?"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "the budget is 10k" {
		t.Errorf("reply = %q", got)
	}
	if caller.calls != 1 {
		t.Errorf("calls = %d", caller.calls)
	}
}

func TestCompleteRotatesOnRateLimit(t *testing.T) {
	throttled := &fakeCaller{err: errors.New("429 resource_exhausted: quota exceeded")}
	healthy := &fakeCaller{reply: "ok"}
	c := newTestClient(throttled, healthy)

	got, err := c.Complete(context.Background(), []domain.ChatMessage{{Role: "user", Content: "q"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "ok" {
		t.Errorf("reply = %q", got)
	}
	if throttled.calls != 1 || healthy.calls != 1 {
		t.Errorf("calls = %d, %d", throttled.calls, healthy.calls)
	}

	// Rotation position sticks: the next request starts on the healthy key.
	if _, err := c.Complete(context.Background(), []domain.ChatMessage{{Role: "user", Content: "q2"}}); err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if throttled.calls != 1 {
		t.Errorf("throttled key retried: calls = %d", throttled.calls)
	}
}

func TestCompleteAllKeysRateLimited(t *testing.T) {
	a := &fakeCaller{err: errors.New("rate limit exceeded")}
	b := &fakeCaller{err: errors.New("rate limit exceeded")}
	c := newTestClient(a, b)

	_, err := c.Complete(context.Background(), []domain.ChatMessage{{Role: "user", Content: "q"}})
	if !errors.Is(err, domain.ErrModelRateLimited) {
		t.Errorf("expected ErrModelRateLimited, got %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d, %d", a.calls, b.calls)
	}
}

func TestCompleteNonRateLimitErrorFailsFast(t *testing.T) {
	broken := &fakeCaller{err: errors.New("invalid model")}
	spare := &fakeCaller{reply: "unused"}
	c := newTestClient(broken, spare)

	_, err := c.Complete(context.Background(), []domain.ChatMessage{{Role: "user", Content: "q"}})
	if !errors.Is(err, domain.ErrModelRequest) {
		t.Errorf("expected ErrModelRequest, got %v", err)
	}
	if spare.calls != 0 {
		t.Errorf("spare key should not be tried, calls = %d", spare.calls)
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&openai.APIError{HTTPStatusCode: 429}, true},
		{&openai.RequestError{HTTPStatusCode: 429, Err: errors.New("too many requests")}, true},
		{errors.New("RESOURCE_EXHAUSTED"), true},
		{errors.New("monthly quota used up"), true},
		{errors.New("invalid request"), false},
	}
	for _, tt := range tests {
		if got := isRateLimited(tt.err); got != tt.want {
			t.Errorf("isRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
