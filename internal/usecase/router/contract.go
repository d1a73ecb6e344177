package router

import (
	"context"

	"github.com/askdocs/askdocs/internal/domain"
)

// FileStore lists indexed files for routing (ISP).
type FileStore interface {
	ListFilesByStatus(ctx context.Context, status domain.IndexingStatus) ([]domain.File, error)
}

// VectorIndex is the search surface the router needs (ISP).
type VectorIndex interface {
	NamespaceExists(ctx context.Context, ns string) (bool, error)
	Query(ctx context.Context, namespaces []string, vector []float32, topK int) ([]domain.SearchHit, error)
}
