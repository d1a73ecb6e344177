package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/db"
	"github.com/askdocs/askdocs/internal/domain"
)

type stubEmbedder struct {
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: []float32{1.5, -2.25}, TotalTokens: 7}, nil
}

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func TestCachedEmbedderMissThenHit(t *testing.T) {
	inner := &stubEmbedder{}
	cached := New(inner, newMemStore(), nil, zap.NewNop())

	first, err := cached.Embed(context.Background(), "quarterly budget")
	if err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss should carry real token usage, got %d", first.TotalTokens)
	}

	second, err := cached.Embed(context.Background(), "quarterly budget")
	if err != nil {
		t.Fatalf("second embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("hit should not call inner embedder, calls = %d", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit should report zero tokens, got %d", second.TotalTokens)
	}
	if len(second.Embedding) != 2 || second.Embedding[0] != 1.5 || second.Embedding[1] != -2.25 {
		t.Errorf("cached vector = %v", second.Embedding)
	}
}

func TestCachedEmbedderDistinctTextsMiss(t *testing.T) {
	inner := &stubEmbedder{}
	cached := New(inner, newMemStore(), nil, zap.NewNop())

	_, _ = cached.Embed(context.Background(), "alpha")
	_, _ = cached.Embed(context.Background(), "beta")

	if inner.calls != 2 {
		t.Errorf("different texts must not share cache entries, calls = %d", inner.calls)
	}
}

func TestCachedEmbedderIgnoresCorruptedEntry(t *testing.T) {
	inner := &stubEmbedder{}
	store := newMemStore()
	cached := New(inner, store, nil, zap.NewNop())

	// Poison the cache with a value that is not a float32 vector.
	key := cached.cacheKey("gamma")
	store.data[key] = []byte{1, 2, 3}

	res, err := cached.Embed(context.Background(), "gamma")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupted entry should fall through to inner, calls = %d", inner.calls)
	}
	if len(res.Embedding) != 2 {
		t.Errorf("embedding = %v", res.Embedding)
	}
}
