// Package indexing ingests uploaded documents: extract, chunk, embed,
// and upsert into a per-file vector namespace.
package indexing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/domain/chunk"
	"github.com/askdocs/askdocs/internal/extract"
	"github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/internal/metrics"
)

// indexTimeout bounds one background indexing run.
const indexTimeout = 10 * time.Minute

// Config holds chunking parameters for the indexing service.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	// Dimensions pins the expected embedding width. Zero means
	// "take whatever the first vector has".
	Dimensions int
}

// Service implements document ingestion.
type Service struct {
	files    FileStore
	index    VectorIndex
	embedder domain.Embedder
	cfg      Config
	logger   *zap.Logger
}

// New creates an indexing service.
func New(files FileStore, index VectorIndex, embedder domain.Embedder, cfg Config, log *zap.Logger) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunk.DefaultSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = chunk.DefaultOverlap
	}
	return &Service{files: files, index: index, embedder: embedder, cfg: cfg, logger: log}
}

// Upload registers a document and kicks off indexing in the background.
// The returned file is in StatusPending; its status flips to indexed or
// error once the background run finishes.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (domain.File, error) {
	if fileName == "" {
		return domain.File{}, fmt.Errorf("%w: file name is required", domain.ErrValidation)
	}
	if len(data) == 0 {
		return domain.File{}, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	if !extract.Supported(fileName) {
		return domain.File{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fileName)
	}

	text, err := extract.Text(fileName, data)
	if err != nil {
		return domain.File{}, fmt.Errorf("extract %s: %w", fileName, err)
	}

	file := domain.File{
		Name:   fileName,
		Type:   extract.TypeOf(fileName),
		Size:   int64(len(data)),
		Status: domain.StatusPending,
	}
	if err := s.files.CreateFile(ctx, &file); err != nil {
		return domain.File{}, fmt.Errorf("create file record: %w", err)
	}

	// Index in the background so the upload request returns immediately.
	// The detached context survives the request; logger travels with it.
	bgCtx := logger.ContextWithLogger(context.WithoutCancel(ctx), s.logger)
	go func() {
		runCtx, cancel := context.WithTimeout(bgCtx, indexTimeout)
		defer cancel()
		s.runIndex(runCtx, file, text)
	}()

	return file, nil
}

// runIndex performs the chunk-embed-upsert pipeline and records the outcome
// on the file row. Failures never propagate: they land in the file status.
func (s *Service) runIndex(ctx context.Context, file domain.File, text string) {
	count, err := s.Index(ctx, file, text)
	if err != nil {
		s.logger.Error("Indexing failed",
			zap.Int64("file_id", file.ID),
			zap.String("file_name", file.Name),
			zap.Error(err))
		metrics.FilesIndexedTotal.WithLabelValues("error").Inc()
		if uerr := s.files.UpdateFileStatus(ctx, file.ID, domain.StatusError, 0, err.Error()); uerr != nil {
			s.logger.Error("Failed to record indexing error", zap.Int64("file_id", file.ID), zap.Error(uerr))
		}
		return
	}

	metrics.FilesIndexedTotal.WithLabelValues("indexed").Inc()
	metrics.ChunksIndexedTotal.Add(float64(count))
	if err := s.files.UpdateFileStatus(ctx, file.ID, domain.StatusIndexed, count, ""); err != nil {
		s.logger.Error("Failed to record indexed status", zap.Int64("file_id", file.ID), zap.Error(err))
	}

	s.logger.Info("File indexed",
		zap.Int64("file_id", file.ID),
		zap.String("file_name", file.Name),
		zap.Int("chunks", count))
}

// Index chunks the text, embeds every chunk, and upserts the vectors into
// the file's namespace. Returns the number of chunks stored.
func (s *Service) Index(ctx context.Context, file domain.File, text string) (int, error) {
	src := chunk.Source{FileID: file.ID, FileName: file.Name, FileType: file.Type}
	chunks := chunk.Split(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap, src)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: document has no extractable text", domain.ErrExtraction)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	batch, err := s.embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(batch.Embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(batch.Embeddings), len(chunks))
	}

	dim := s.cfg.Dimensions
	if dim == 0 {
		dim = len(batch.Embeddings[0])
	}
	for i, vec := range batch.Embeddings {
		if len(vec) != dim {
			return 0, fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
				domain.ErrVectorDimMismatch, i, len(vec), dim)
		}
	}

	ns := domain.NamespaceForFile(file.ID, file.Name)
	if err := s.index.EnsureNamespace(ctx, ns, dim); err != nil {
		return 0, fmt.Errorf("ensure namespace: %w", err)
	}

	count, err := s.index.UpsertChunks(ctx, ns, chunks, batch.Embeddings)
	if err != nil {
		return count, fmt.Errorf("upsert chunks: %w", err)
	}
	return count, nil
}

func (s *Service) embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embedder, texts)
}

// Get returns one file record.
func (s *Service) Get(ctx context.Context, id int64) (domain.File, error) {
	return s.files.GetFile(ctx, id)
}

// List returns all file records.
func (s *Service) List(ctx context.Context) ([]domain.File, error) {
	return s.files.ListFiles(ctx)
}

// Delete removes a file's vector namespace and its metadata row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	file, err := s.files.GetFile(ctx, id)
	if err != nil {
		return fmt.Errorf("load file %d: %w", id, err)
	}

	ns := domain.NamespaceForFile(file.ID, file.Name)
	if err := s.index.DeleteNamespace(ctx, ns); err != nil {
		return fmt.Errorf("delete namespace %s: %w", ns, err)
	}

	if err := s.files.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	return nil
}
