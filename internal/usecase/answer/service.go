// Package answer turns routing output into a final structured reply by
// prompting the language model and parsing its JSON response.
package answer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
)

// NoResultsMessage is the canned reply when routing finds nothing.
const NoResultsMessage = "No relevant documents found. Upload documents first or try rephrasing your question."

// Composer builds answers from routed context.
type Composer struct {
	model  ModelClient
	logger *zap.Logger
}

// NewComposer creates an answer composer.
func NewComposer(model ModelClient, log *zap.Logger) *Composer {
	return &Composer{model: model, logger: log}
}

// Compose prompts the model with the routed context and returns the
// structured answer. With an empty route the model is never called and
// a NO_RESULTS answer comes back directly. When the model reply holds
// no parseable JSON the raw text is returned with status RAW_TEXT.
func (c *Composer) Compose(ctx context.Context, question string, route domain.RouteResult, history []domain.Message) (domain.Answer, error) {
	if route.Empty() {
		return domain.Answer{
			Status: domain.AnswerNoResults,
			Answer: NoResultsMessage,
		}, nil
	}

	tier := domain.TierFor(route.TopScore())
	messages := buildMessages(question, route, tier, history)

	raw, err := c.model.Complete(ctx, messages)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("model completion: %w", err)
	}

	ans := c.fromReply(raw, tier)
	fillRouting(&ans, route)
	return ans, nil
}

// fromReply converts the raw model output into an answer skeleton.
func (c *Composer) fromReply(raw string, tier domain.Tier) domain.Answer {
	reply, ok := parseReply(raw)
	if !ok {
		c.logger.Warn("Degrading to raw text",
			zap.Error(domain.ErrResponseParse),
			zap.Int("reply_len", len(raw)))
		return domain.Answer{
			Status: domain.AnswerRawText,
			Answer: raw,
		}
	}

	return domain.Answer{
		Status:                normalizeStatus(reply.Status, tier),
		Answer:                reply.Answer,
		Sources:               reply.Sources,
		ConfidenceExplanation: reply.ConfidenceExplanation,
		ClarifyingQuestion:    reply.ClarifyingQuestion,
	}
}

// fillRouting stamps the routing facts onto the answer. These fields
// come from the router, not the model, so they are always authoritative.
func fillRouting(ans *domain.Answer, route domain.RouteResult) {
	ans.SelectedFiles = domain.SelectedFiles(route.FileScores)

	scores := make(map[string]float64, len(route.FileScores))
	for _, fs := range route.FileScores {
		scores[fs.FileName] = fs.TopScore
	}
	ans.RoutingDetail = domain.RoutingDetail{
		TopFile:    route.FileScores[0].FileName,
		TopScore:   route.TopScore(),
		FileScores: scores,
	}

	ans.RawUsedChunks = make([]string, len(route.ContextChunks))
	for i, ch := range route.ContextChunks {
		ans.RawUsedChunks[i] = ch.ChunkID
	}

	if len(ans.Sources) == 0 {
		ans.Sources = ans.SelectedFiles
	}
}
