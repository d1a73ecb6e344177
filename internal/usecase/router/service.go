// Package router decides which files can answer a question by searching
// every per-file namespace and ranking files by their best chunk score.
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/internal/metrics"
)

const (
	// minPerFileK is the floor for per-namespace KNN depth: even a
	// top_k=1 request looks at a few chunks per file so the file score
	// reflects more than a single lucky hit.
	minPerFileK = 3

	// summaryLen caps the per-file summary excerpt.
	summaryLen = 200

	// maxChunksPerFile bounds how many chunks of one file go into the
	// answer context.
	maxChunksPerFile = 3
)

// Service implements cross-file routing.
type Service struct {
	files    FileStore
	index    VectorIndex
	embedder domain.Embedder
	logger   *zap.Logger
}

// New creates a router service.
func New(files FileStore, index VectorIndex, embedder domain.Embedder, log *zap.Logger) *Service {
	return &Service{files: files, index: index, embedder: embedder, logger: log}
}

// Route embeds the question once and searches every indexed file's
// namespace, producing ranked file scores and the context chunks for
// the answer composer. An empty result means no relevant documents.
func (s *Service) Route(ctx context.Context, question string, topK int) (domain.RouteResult, error) {
	if strings.TrimSpace(question) == "" {
		return domain.RouteResult{}, fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	if topK <= 0 {
		topK = 1
	}

	files, err := s.files.ListFilesByStatus(ctx, domain.StatusIndexed)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("list indexed files: %w", err)
	}
	if len(files) == 0 {
		return domain.RouteResult{}, nil
	}

	namespaces := s.resolveNamespaces(ctx, files)
	if len(namespaces) == 0 {
		return domain.RouteResult{}, nil
	}

	emb, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("embed question: %w", err)
	}

	perFileK := max(minPerFileK, topK)
	hits, err := s.index.Query(ctx, namespaces, emb.Embedding, perFileK)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("query namespaces: %w", err)
	}
	if len(hits) == 0 {
		return domain.RouteResult{}, nil
	}

	result := rankHits(hits)
	metrics.RoutingQueriesTotal.WithLabelValues(string(domain.TierFor(result.TopScore()))).Inc()
	return result, nil
}

// resolveNamespaces maps indexed files to their existing namespaces.
// Files whose namespace vanished (partial deletes, store resets) are
// skipped with a warning instead of failing the whole route.
func (s *Service) resolveNamespaces(ctx context.Context, files []domain.File) []string {
	log := logger.FromContext(ctx)

	namespaces := make([]string, 0, len(files))
	for _, f := range files {
		ns := domain.NamespaceForFile(f.ID, f.Name)
		exists, err := s.index.NamespaceExists(ctx, ns)
		if err != nil {
			log.Warn("Namespace check failed, skipping file",
				zap.Int64("file_id", f.ID),
				zap.String("namespace", ns),
				zap.Error(err))
			continue
		}
		if !exists {
			log.Warn("Indexed file has no namespace, skipping",
				zap.Int64("file_id", f.ID),
				zap.String("namespace", ns))
			continue
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces
}

// rankHits groups hits by file, scores each file by its best chunk, and
// collects the top chunks of every ranked file as answer context. Even a
// low-scoring file contributes its chunks; the tiers and selected_files
// decide how much the model trusts them, not whether it sees them.
func rankHits(hits []domain.SearchHit) domain.RouteResult {
	byFile := make(map[string][]domain.SearchHit)
	for _, h := range hits {
		byFile[h.FileName] = append(byFile[h.FileName], h)
	}

	scores := make([]domain.FileScore, 0, len(byFile))
	for name, fileHits := range byFile {
		sort.Slice(fileHits, func(i, j int) bool { return fileHits[i].Score > fileHits[j].Score })
		byFile[name] = fileHits
		scores = append(scores, domain.FileScore{
			FileName: name,
			TopScore: fileHits[0].Score,
			Summary:  summarize(fileHits[0].Text),
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].TopScore != scores[j].TopScore {
			return scores[i].TopScore > scores[j].TopScore
		}
		return scores[i].FileName < scores[j].FileName
	})

	var chunks []domain.ContextChunk
	for _, fs := range scores {
		fileHits := byFile[fs.FileName]
		limit := min(maxChunksPerFile, len(fileHits))
		for _, h := range fileHits[:limit] {
			chunks = append(chunks, domain.ContextChunk{
				FileName: h.FileName,
				ChunkID:  h.ChunkID,
				Score:    h.Score,
				Text:     h.Text,
			})
		}
	}

	return domain.RouteResult{FileScores: scores, ContextChunks: chunks}
}

// summarize flattens whitespace and truncates to summaryLen runes.
func summarize(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= summaryLen {
		return flat
	}
	return string(runes[:summaryLen]) + "..."
}
