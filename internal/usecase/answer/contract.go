package answer

import (
	"context"

	"github.com/askdocs/askdocs/internal/domain"
)

// ModelClient is the chat completion surface the composer needs (ISP).
type ModelClient interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}
