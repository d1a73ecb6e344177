package qdrantindex

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/domain/chunk"
	"github.com/askdocs/askdocs/internal/logger"
)

// Config carries HNSW build parameters for new collections.
// Zero values defer to Qdrant's defaults.
type Config struct {
	HNSWM           int
	HNSWEFConstruct int
}

// Repo stores chunk vectors in per-namespace Qdrant collections.
// One namespace maps to one collection, so searches never cross files.
type Repo struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	cfg         Config
}

// New connects to Qdrant at the given gRPC address.
func New(addr string, cfg Config) (*Repo, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial qdrant %s: %w", addr, err)
	}
	return &Repo{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		cfg:         cfg,
	}, nil
}

// Close closes the underlying gRPC connection.
func (r *Repo) Close() error {
	return r.conn.Close()
}

// Ping verifies the Qdrant connection by listing collections.
func (r *Repo) Ping(ctx context.Context) error {
	if _, err := r.collections.List(ctx, &pb.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("qdrant ping: %w", err)
	}
	return nil
}

// EnsureNamespace creates the collection for ns if it does not exist yet.
func (r *Repo) EnsureNamespace(ctx context.Context, ns string, dim int) error {
	exists, err := r.NamespaceExists(ctx, ns)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: ns,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dim),
					Distance: pb.Distance_Cosine,
				},
			},
		},
		HnswConfig: hnswConfig(r.cfg),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrNamespaceCreate, ns, err)
	}
	return nil
}

// NamespaceExists reports whether the collection for ns is present.
func (r *Repo) NamespaceExists(ctx context.Context, ns string) (bool, error) {
	list, err := r.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == ns {
			return true, nil
		}
	}
	return false, nil
}

// UpsertChunks writes chunks and their vectors into ns.
// chunks and vectors must be aligned by position. Returns the stored count.
func (r *Repo) UpsertChunks(ctx context.Context, ns string, chunks []chunk.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	points := make([]*pb.PointStruct, len(chunks))
	for i, c := range chunks {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(ns, c)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vectors[i]},
				},
			},
			Payload: map[string]*pb.Value{
				"chunk_id":    {Kind: &pb.Value_StringValue{StringValue: chunk.ID(c.FileID, c.Index)}},
				"file_id":     {Kind: &pb.Value_IntegerValue{IntegerValue: c.FileID}},
				"file_name":   {Kind: &pb.Value_StringValue{StringValue: c.FileName}},
				"chunk_index": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(c.Index)}},
				"text":        {Kind: &pb.Value_StringValue{StringValue: c.Text}},
			},
		}
	}

	wait := true
	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: ns,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("upsert %d points into %s: %w", len(points), ns, err)
	}
	return len(points), nil
}

// Query runs a similarity search over each namespace and merges the
// hits, sorted by score descending. A namespace that fails to search is
// skipped with a warning.
func (r *Repo) Query(ctx context.Context, namespaces []string, vector []float32, topK int) ([]domain.SearchHit, error) {
	log := logger.FromContext(ctx)

	var hits []domain.SearchHit
	failed := 0

	for _, ns := range namespaces {
		resp, err := r.points.Search(ctx, &pb.SearchPoints{
			CollectionName: ns,
			Vector:         vector,
			Limit:          uint64(topK),
			WithPayload: &pb.WithPayloadSelector{
				SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
			},
		})
		if err != nil {
			failed++
			log.Warn("Namespace search failed, skipping",
				zap.String("namespace", ns),
				zap.Error(err))
			continue
		}

		for _, p := range resp.GetResult() {
			hits = append(hits, scoredPointToHit(ns, p))
		}
	}

	if failed > 0 && failed == len(namespaces) {
		return nil, fmt.Errorf("%w: all %d namespaces failed", domain.ErrIndexQuery, failed)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// DeleteNamespace removes the collection for ns. A missing collection is not an error.
func (r *Repo) DeleteNamespace(ctx context.Context, ns string) error {
	if _, err := r.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: ns}); err != nil {
		return fmt.Errorf("delete collection %s: %w", ns, err)
	}
	return nil
}

// hnswConfig maps the configured HNSW parameters onto the collection
// settings, leaving unset values to Qdrant's defaults.
func hnswConfig(cfg Config) *pb.HnswConfigDiff {
	if cfg.HNSWM <= 0 && cfg.HNSWEFConstruct <= 0 {
		return nil
	}
	diff := &pb.HnswConfigDiff{}
	if cfg.HNSWM > 0 {
		m := uint64(cfg.HNSWM)
		diff.M = &m
	}
	if cfg.HNSWEFConstruct > 0 {
		ef := uint64(cfg.HNSWEFConstruct)
		diff.EfConstruct = &ef
	}
	return diff
}

// pointID derives a stable UUID from the namespace and chunk identity,
// so re-indexing a file overwrites its points instead of duplicating them.
func pointID(ns string, c chunk.Chunk) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(ns+"/"+chunk.ID(c.FileID, c.Index))).String()
}

func scoredPointToHit(ns string, p *pb.ScoredPoint) domain.SearchHit {
	hit := domain.SearchHit{
		Namespace: ns,
		Score:     float64(p.GetScore()),
	}
	for k, val := range p.GetPayload() {
		switch k {
		case "chunk_id":
			hit.ChunkID = val.GetStringValue()
		case "file_id":
			hit.FileID = val.GetIntegerValue()
		case "file_name":
			hit.FileName = val.GetStringValue()
		case "chunk_index":
			hit.ChunkIndex = int(val.GetIntegerValue())
		case "text":
			hit.Text = val.GetStringValue()
		}
	}
	if hit.ChunkID == "" {
		hit.ChunkID = strconv.FormatInt(hit.FileID, 10)
	}
	return hit
}
