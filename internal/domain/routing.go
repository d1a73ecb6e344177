package domain

// Routing confidence thresholds on cosine similarity scores.
const (
	// HighConfidenceThreshold is the minimum top score for a HIGH tier.
	HighConfidenceThreshold = 0.72
	// MediumConfidenceThreshold is the minimum top score for a MEDIUM tier.
	MediumConfidenceThreshold = 0.55
	// TieTolerance treats files whose top scores are this close as jointly selected.
	TieTolerance = 0.03
)

// Tier buckets the top similarity score into a trust level.
type Tier string

const (
	// TierHigh means the top file is trusted to answer directly.
	TierHigh Tier = "HIGH"
	// TierMedium means the answer should be hedged.
	TierMedium Tier = "MEDIUM"
	// TierLow means the model should ask a clarifying question.
	TierLow Tier = "LOW"
)

// TierFor derives the confidence tier from the best file score.
func TierFor(topScore float64) Tier {
	switch {
	case topScore >= HighConfidenceThreshold:
		return TierHigh
	case topScore >= MediumConfidenceThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// SearchHit is one chunk returned by a namespace query. Ephemeral.
type SearchHit struct {
	Namespace  string
	ChunkID    string
	Score      float64
	FileID     int64
	FileName   string
	ChunkIndex int
	Text       string
}

// FileScore summarizes one file's relevance to a question.
type FileScore struct {
	FileName string
	TopScore float64
	Summary  string
}

// ContextChunk is a chunk selected as answer context, in routing order.
type ContextChunk struct {
	FileName string
	ChunkID  string
	Score    float64
	Text     string
}

// RouteResult is the cross-file router's output. Empty slices mean
// "no answer available" and the language model must not be called.
type RouteResult struct {
	FileScores    []FileScore
	ContextChunks []ContextChunk
}

// Empty reports whether routing produced nothing usable.
func (r RouteResult) Empty() bool {
	return len(r.FileScores) == 0 || len(r.ContextChunks) == 0
}

// TopScore returns the best file score, or 0 when empty.
func (r RouteResult) TopScore() float64 {
	if len(r.FileScores) == 0 {
		return 0
	}
	return r.FileScores[0].TopScore
}

// SelectedFiles returns the top-scoring file plus every file within
// TieTolerance of it. FileScores must already be sorted descending.
func SelectedFiles(scores []FileScore) []string {
	if len(scores) == 0 {
		return nil
	}
	top := scores[0].TopScore
	selected := make([]string, 0, 2)
	for _, fs := range scores {
		if top-fs.TopScore <= TieTolerance {
			selected = append(selected, fs.FileName)
		}
	}
	return selected
}
