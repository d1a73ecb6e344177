package namespace

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/db"
	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/domain/chunk"
	"github.com/askdocs/askdocs/internal/logger"
)

// upsertBatchSize limits how many chunk hashes go into one pipelined write.
const upsertBatchSize = 100

// Record field names shared between the FT schema and stored hashes.
const (
	fieldVector     = "vector"
	fieldFileID     = "file_id"
	fieldFileName   = "file_name"
	fieldChunkIndex = "chunk_index"
	fieldText       = "text"
)

// store is the consumer interface for namespace operations (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	DelMulti(ctx context.Context, keys []string) error
}

// Config carries HNSW build parameters for new namespace indexes.
// Zero values defer to the backend's defaults.
type Config struct {
	HNSWM           int
	HNSWEFConstruct int
}

// Repo stores chunk vectors in per-namespace FT indexes over Redis hashes.
// Each file gets its own namespace, so searches never cross file boundaries.
type Repo struct {
	store store
	cfg   Config
}

// New creates a namespace repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

func indexName(ns string) string    { return domain.KeyPrefix + ns + ":idx" }
func recordPrefix(ns string) string { return domain.KeyPrefix + ns + ":" }

// EnsureNamespace creates the FT index for ns if it does not exist yet.
// Existing namespaces are left untouched regardless of dim.
func (r *Repo) EnsureNamespace(ctx context.Context, ns string, dim int) error {
	exists, err := r.store.IndexExists(ctx, indexName(ns))
	if err != nil {
		return fmt.Errorf("check namespace %s: %w", ns, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     indexName(ns),
		Prefixes: []string{recordPrefix(ns)},
		Fields: []db.IndexField{
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.cfg.HNSWM,
				VectorEFConstruct: r.cfg.HNSWEFConstruct,
			},
			{Name: fieldFileID, Type: db.IndexFieldNumeric},
			{Name: fieldFileName, Type: db.IndexFieldText},
			{Name: fieldChunkIndex, Type: db.IndexFieldNumeric},
			{Name: fieldText, Type: db.IndexFieldText},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Lost a create race: another writer made the index first.
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrNamespaceCreate, ns, err)
	}
	return nil
}

// NamespaceExists reports whether the FT index for ns is present.
func (r *Repo) NamespaceExists(ctx context.Context, ns string) (bool, error) {
	exists, err := r.store.IndexExists(ctx, indexName(ns))
	if err != nil {
		return false, fmt.Errorf("check namespace %s: %w", ns, err)
	}
	return exists, nil
}

// UpsertChunks writes chunks and their vectors into ns in batches.
// chunks and vectors must be aligned by position. Returns the stored count.
func (r *Repo) UpsertChunks(ctx context.Context, ns string, chunks []chunk.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	prefix := recordPrefix(ns)
	stored := 0

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(chunks))

		items := make([]db.HashSetItem, 0, end-start)
		for i := start; i < end; i++ {
			c := chunks[i]
			items = append(items, db.HashSetItem{
				Key: prefix + chunk.ID(c.FileID, c.Index),
				Fields: map[string]string{
					fieldVector:     vectorToBytes(vectors[i]),
					fieldFileID:     strconv.FormatInt(c.FileID, 10),
					fieldFileName:   c.FileName,
					fieldChunkIndex: strconv.Itoa(c.Index),
					fieldText:       c.Text,
				},
			})
		}

		if err := r.store.HSetMulti(ctx, items); err != nil {
			return stored, fmt.Errorf("upsert chunks into %s: %w", ns, err)
		}
		stored += len(items)
	}

	return stored, nil
}

// Query runs a KNN search over each namespace and merges the hits,
// sorted by score descending. A namespace that fails to search is
// skipped with a warning so one broken index cannot take down routing
// for the rest.
func (r *Repo) Query(ctx context.Context, namespaces []string, vector []float32, topK int) ([]domain.SearchHit, error) {
	log := logger.FromContext(ctx)

	var hits []domain.SearchHit
	failed := 0

	for _, ns := range namespaces {
		res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
			IndexName:    indexName(ns),
			Vector:       vector,
			K:            topK,
			ReturnFields: []string{fieldFileID, fieldFileName, fieldChunkIndex, fieldText},
		})
		if err != nil {
			failed++
			log.Warn("Namespace search failed, skipping",
				zap.String("namespace", ns),
				zap.Error(err))
			continue
		}

		for _, e := range res.Entries {
			hits = append(hits, entryToHit(ns, e))
		}
	}

	if failed > 0 && failed == len(namespaces) {
		return nil, fmt.Errorf("%w: all %d namespaces failed", domain.ErrIndexQuery, failed)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// DeleteNamespace drops the FT index and removes all chunk records for ns.
// A missing index is not an error.
func (r *Repo) DeleteNamespace(ctx context.Context, ns string) error {
	if err := r.store.DropIndex(ctx, indexName(ns)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop namespace %s: %w", ns, err)
	}

	keys, err := r.store.Scan(ctx, recordPrefix(ns)+"*")
	if err != nil {
		return fmt.Errorf("scan namespace %s records: %w", ns, err)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete namespace %s records: %w", ns, err)
	}
	return nil
}

func entryToHit(ns string, e db.SearchEntry) domain.SearchHit {
	hit := domain.SearchHit{
		Namespace: ns,
		ChunkID:   strings.TrimPrefix(e.Key, recordPrefix(ns)),
		Score:     e.Score,
		FileName:  e.Fields[fieldFileName],
		Text:      e.Fields[fieldText],
	}
	if v, err := strconv.ParseInt(e.Fields[fieldFileID], 10, 64); err == nil {
		hit.FileID = v
	}
	if v, err := strconv.Atoi(e.Fields[fieldChunkIndex]); err == nil {
		hit.ChunkIndex = v
	}
	return hit
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
