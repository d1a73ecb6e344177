package answer

import (
	"encoding/json"
	"strings"

	"github.com/askdocs/askdocs/internal/domain"
)

// modelReply is the JSON shape the model is asked to produce. It is a
// subset of domain.Answer: routing fields are filled from the route,
// never trusted from the model.
type modelReply struct {
	Status                string   `json:"status"`
	Answer                string   `json:"answer"`
	Sources               []string `json:"sources"`
	ConfidenceExplanation string   `json:"confidence_explanation"`
	ClarifyingQuestion    string   `json:"clarifying_question"`
}

// parseReply extracts the JSON object from the model output. Models
// often wrap JSON in code fences or prose, so the parse takes the
// outermost brace span. Returns false when no valid object is found.
func parseReply(raw string) (modelReply, bool) {
	candidate := stripFences(raw)

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end <= start {
		return modelReply{}, false
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(candidate[start:end+1]), &reply); err != nil {
		return modelReply{}, false
	}
	if reply.Answer == "" && reply.ClarifyingQuestion == "" {
		return modelReply{}, false
	}
	return reply, true
}

// stripFences removes a ```json ... ``` wrapper when present.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// normalizeStatus maps the model's status onto a known value, falling
// back to the tier-derived status when the model improvised.
func normalizeStatus(s string, tier domain.Tier) domain.AnswerStatus {
	switch domain.AnswerStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case domain.AnswerOK:
		return domain.AnswerOK
	case domain.AnswerMediumConfidence:
		return domain.AnswerMediumConfidence
	case domain.AnswerLowConfidence:
		return domain.AnswerLowConfidence
	}
	return statusForTier(tier)
}

func statusForTier(tier domain.Tier) domain.AnswerStatus {
	switch tier {
	case domain.TierHigh:
		return domain.AnswerOK
	case domain.TierMedium:
		return domain.AnswerMediumConfidence
	default:
		return domain.AnswerLowConfidence
	}
}
