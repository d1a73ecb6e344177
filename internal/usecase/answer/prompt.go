package answer

import (
	"fmt"
	"strings"

	"github.com/askdocs/askdocs/internal/domain"
)

const systemPrompt = `You are a project knowledge base assistant. Answer the user's question using ONLY the document excerpts provided. Never invent facts that are not in the excerpts.

Retrieval scores are cosine similarities in [0,1]. Confidence comes from the best file score: HIGH when it is 0.72 or above, MEDIUM when it is between 0.55 and 0.72, LOW below 0.55. Files whose top scores are within 0.03 of the best are jointly selected; weigh their excerpts equally.

Cite every factual statement inline with a bracketed citation naming the excerpt it came from, like [Project Plan.docx — chunk_12_3]. Each excerpt is labeled with its file name and chunk id.

Reply with a single JSON object and nothing else:
{
  "status": "OK" | "MEDIUM_CONFIDENCE" | "LOW_CONFIDENCE",
  "selected_files": ["files the answer draws on"],
  "routing_detail": {"top_file": "...", "top_score": 0.0, "file_scores": {"file": 0.0}},
  "answer": "your answer text with inline citations",
  "sources": ["file names you used"],
  "confidence_explanation": "one sentence on why you are or are not confident",
  "clarifying_question": "only when status is LOW_CONFIDENCE, a question that would disambiguate",
  "raw_used_chunks": ["chunk ids you drew on"]
}`

// tierInstruction tells the model how much to trust the retrieved context.
func tierInstruction(tier domain.Tier) string {
	switch tier {
	case domain.TierHigh:
		return `The retrieval confidence is HIGH (top score at or above 0.72). Answer directly with status "OK".`
	case domain.TierMedium:
		return `The retrieval confidence is MEDIUM (top score between 0.55 and 0.72). Answer, but hedge explicitly and use status "MEDIUM_CONFIDENCE".`
	default:
		return `The retrieval confidence is LOW (top score below 0.55). The excerpts may not contain the answer. Use status "LOW_CONFIDENCE", say what little you can, and ask a clarifying question.`
	}
}

// buildMessages assembles the model conversation: system prompt, recent
// history, then one user message carrying the context and the question.
func buildMessages(question string, route domain.RouteResult, tier domain.Tier, history []domain.Message) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{
		Role:    "system",
		Content: systemPrompt + "\n\n" + tierInstruction(tier),
	})

	for _, m := range history {
		messages = append(messages, domain.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	messages = append(messages, domain.ChatMessage{
		Role:    "user",
		Content: contextBlock(route) + "\n\nQuestion: " + question,
	})
	return messages
}

func contextBlock(route domain.RouteResult) string {
	var b strings.Builder

	b.WriteString("Candidate files by relevance:\n")
	for _, fs := range route.FileScores {
		fmt.Fprintf(&b, "- %s (score %.2f): %s\n", fs.FileName, fs.TopScore, fs.Summary)
	}

	b.WriteString("\nDocument excerpts:\n")
	for _, c := range route.ContextChunks {
		fmt.Fprintf(&b, "[%s | %s | score %.2f]\n%s\n\n", c.FileName, c.ChunkID, c.Score, c.Text)
	}

	return strings.TrimRight(b.String(), "\n")
}
