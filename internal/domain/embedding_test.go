package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	calls []string
	err   error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return EmbeddingResult{}, s.err
	}
	return EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 1}, nil
}

func TestBatchFallbackEmptyInput(t *testing.T) {
	stub := &stubEmbedder{}
	res, err := BatchFallback(context.Background(), stub, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 0 {
		t.Errorf("expected no embeddings, got %d", len(res.Embeddings))
	}
	if len(stub.calls) != 0 {
		t.Errorf("expected no provider calls, got %d", len(stub.calls))
	}
}

func TestBatchFallbackSingleItemMatchesEmbed(t *testing.T) {
	stub := &stubEmbedder{}
	single, err := stub.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	batch, err := BatchFallback(context.Background(), stub, []string{"hello"})
	if err != nil {
		t.Fatalf("batch fallback: %v", err)
	}
	if len(batch.Embeddings) != 1 {
		t.Fatalf("expected 1 embedding, got %d", len(batch.Embeddings))
	}
	if batch.Embeddings[0][0] != single.Embedding[0] {
		t.Errorf("single-item batch differs from single embed")
	}
}

func TestBatchFallbackPreservesOrderAndUsage(t *testing.T) {
	stub := &stubEmbedder{}
	res, err := BatchFallback(context.Background(), stub, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	for i, want := range []float32{1, 2, 3} {
		if res.Embeddings[i][0] != want {
			t.Errorf("embedding %d out of order", i)
		}
	}
	if res.TotalTokens != 3 {
		t.Errorf("expected 3 total tokens, got %d", res.TotalTokens)
	}
}

func TestBatchFallbackPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	stub := &stubEmbedder{err: wantErr}
	if _, err := BatchFallback(context.Background(), stub, []string{"a"}); !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestInstructionEmbedderPrependsInstruction(t *testing.T) {
	stub := &stubEmbedder{}
	emb := NewInstructionEmbedder(stub, "query: ")

	if _, err := emb.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(stub.calls) != 1 || stub.calls[0] != "query: hello" {
		t.Errorf("inner embedder saw %v", stub.calls)
	}
}

func TestInstructionEmbedderBatchFallsBack(t *testing.T) {
	stub := &stubEmbedder{}
	emb := NewInstructionEmbedder(stub, "doc: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("batch embed: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if stub.calls[0] != "doc: a" || stub.calls[1] != "doc: b" {
		t.Errorf("inner embedder saw %v", stub.calls)
	}
}
