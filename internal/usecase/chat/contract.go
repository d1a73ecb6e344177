package chat

import (
	"context"

	"github.com/askdocs/askdocs/internal/domain"
)

// Router produces the cross-file routing for a question (ISP).
type Router interface {
	Route(ctx context.Context, question string, topK int) (domain.RouteResult, error)
}

// Composer turns routed context into a final answer (ISP).
type Composer interface {
	Compose(ctx context.Context, question string, route domain.RouteResult, history []domain.Message) (domain.Answer, error)
}

// ConversationStore persists chats and their messages (ISP).
type ConversationStore interface {
	EnsureChat(ctx context.Context, chatID string) error
	AppendMessage(ctx context.Context, m *domain.Message) error
	ListMessages(ctx context.Context, chatID string) ([]domain.Message, error)
	RecentMessages(ctx context.Context, chatID string, limit int) ([]domain.Message, error)
}
