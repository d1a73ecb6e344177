package indexing

import (
	"context"

	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/domain/chunk"
)

// FileStore is the metadata persistence the indexing service needs (ISP).
type FileStore interface {
	CreateFile(ctx context.Context, f *domain.File) error
	GetFile(ctx context.Context, id int64) (domain.File, error)
	ListFiles(ctx context.Context) ([]domain.File, error)
	UpdateFileStatus(ctx context.Context, id int64, status domain.IndexingStatus, chunkCount int, errMsg string) error
	DeleteFile(ctx context.Context, id int64) error
}

// VectorIndex is the vector storage the indexing service needs (ISP).
type VectorIndex interface {
	EnsureNamespace(ctx context.Context, ns string, dim int) error
	UpsertChunks(ctx context.Context, ns string, chunks []chunk.Chunk, vectors [][]float32) (int, error)
	DeleteNamespace(ctx context.Context, ns string) error
}
