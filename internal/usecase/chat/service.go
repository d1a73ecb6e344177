// Package chat orchestrates a question/answer turn: persist the question,
// route it across files, compose the answer, and persist the reply.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
)

// ErrorMessage is the canned reply stored when answering fails.
const ErrorMessage = "Something went wrong while answering. Please try again."

// historyDepth is how many past messages feed the model prompt.
const historyDepth = 10

// Service implements the conversational surface.
type Service struct {
	router      Router
	composer    Composer
	store       ConversationStore
	defaultTopK int
	logger      *zap.Logger
}

// New creates a chat service. defaultTopK is the routing depth used when
// a request does not pick its own.
func New(router Router, composer Composer, store ConversationStore, defaultTopK int, log *zap.Logger) *Service {
	return &Service{router: router, composer: composer, store: store, defaultTopK: defaultTopK, logger: log}
}

// Ask answers one question inside a chat. An empty chatID starts a new
// chat. The user message and the assistant reply are always persisted,
// including the canned replies for no-results and failure cases, so the
// conversation history stays complete.
func (s *Service) Ask(ctx context.Context, chatID, question string, topK int) (domain.Answer, string, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Answer{}, "", fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	if chatID == "" {
		chatID = uuid.NewString()
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	if err := s.store.EnsureChat(ctx, chatID); err != nil {
		return domain.Answer{}, "", fmt.Errorf("ensure chat: %w", err)
	}
	userMsg := domain.Message{ChatID: chatID, Role: domain.RoleUser, Content: question}
	if err := s.store.AppendMessage(ctx, &userMsg); err != nil {
		return domain.Answer{}, "", fmt.Errorf("persist question: %w", err)
	}

	ans := s.answer(ctx, chatID, question, topK)

	assistantMsg := domain.Message{ChatID: chatID, Role: domain.RoleAssistant, Content: renderReply(ans)}
	if err := s.store.AppendMessage(ctx, &assistantMsg); err != nil {
		return domain.Answer{}, "", fmt.Errorf("persist answer: %w", err)
	}

	return ans, chatID, nil
}

// answer runs routing and composition, degrading to canned answers on
// failure instead of erroring the whole turn.
func (s *Service) answer(ctx context.Context, chatID, question string, topK int) domain.Answer {
	route, err := s.router.Route(ctx, question, topK)
	if err != nil {
		s.logger.Error("Routing failed",
			zap.String("chat_id", chatID),
			zap.Error(err))
		return domain.Answer{Status: domain.AnswerError, Answer: ErrorMessage}
	}

	history, err := s.store.RecentMessages(ctx, chatID, historyDepth)
	if err != nil {
		s.logger.Warn("Failed to load chat history, answering without it",
			zap.String("chat_id", chatID),
			zap.Error(err))
		history = nil
	}
	// The question itself was just persisted; keep it out of the history.
	if n := len(history); n > 0 && history[n-1].Content == question {
		history = history[:n-1]
	}

	ans, err := s.composer.Compose(ctx, question, route, history)
	if err != nil {
		s.logger.Error("Answer composition failed",
			zap.String("chat_id", chatID),
			zap.Error(err))
		return domain.Answer{Status: domain.AnswerError, Answer: ErrorMessage}
	}
	return ans
}

// History returns the full message log of a chat.
func (s *Service) History(ctx context.Context, chatID string) ([]domain.Message, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chat id is required", domain.ErrValidation)
	}
	msgs, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// renderReply is the persisted text form of an answer: the answer body
// plus a sources line when any were used.
func renderReply(ans domain.Answer) string {
	if len(ans.Sources) == 0 {
		return ans.Answer
	}
	return ans.Answer + "\n\nSources: " + strings.Join(ans.Sources, ", ")
}
