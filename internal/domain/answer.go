package domain

// AnswerStatus is the status field of a composed answer.
type AnswerStatus string

const (
	// AnswerOK means the model answered with high confidence.
	AnswerOK AnswerStatus = "OK"
	// AnswerMediumConfidence means the model hedged its answer.
	AnswerMediumConfidence AnswerStatus = "MEDIUM_CONFIDENCE"
	// AnswerLowConfidence means the model asked a clarifying question.
	AnswerLowConfidence AnswerStatus = "LOW_CONFIDENCE"
	// AnswerRawText means the model reply contained no parseable JSON;
	// the raw reply is returned as the answer.
	AnswerRawText AnswerStatus = "RAW_TEXT"
	// AnswerNoResults means routing found no relevant documents.
	AnswerNoResults AnswerStatus = "NO_RESULTS"
	// AnswerError means the model call failed.
	AnswerError AnswerStatus = "ERROR"
)

// RoutingDetail reports which file won the routing and the full score table.
type RoutingDetail struct {
	TopFile    string             `json:"top_file"`
	TopScore   float64            `json:"top_score"`
	FileScores map[string]float64 `json:"file_scores"`
}

// Answer is the structured reply produced by the answer composer.
type Answer struct {
	Status                AnswerStatus  `json:"status"`
	SelectedFiles         []string      `json:"selected_files"`
	RoutingDetail         RoutingDetail `json:"routing_detail"`
	Answer                string        `json:"answer"`
	Sources               []string      `json:"sources"`
	ConfidenceExplanation string        `json:"confidence_explanation"`
	ClarifyingQuestion    string        `json:"clarifying_question,omitempty"`
	RawUsedChunks         []string      `json:"raw_used_chunks"`
}
