package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
)

type mockFiles struct {
	indexed []domain.File
	err     error
}

func (m *mockFiles) ListFilesByStatus(_ context.Context, status domain.IndexingStatus) ([]domain.File, error) {
	if m.err != nil {
		return nil, m.err
	}
	if status != domain.StatusIndexed {
		return nil, nil
	}
	return m.indexed, nil
}

type mockIndex struct {
	missing  map[string]bool
	hits     []domain.SearchHit
	queried  [][]string
	queryK   int
	queryErr error
}

func (m *mockIndex) NamespaceExists(_ context.Context, ns string) (bool, error) {
	return !m.missing[ns], nil
}

func (m *mockIndex) Query(_ context.Context, namespaces []string, _ []float32, topK int) ([]domain.SearchHit, error) {
	m.queried = append(m.queried, namespaces)
	m.queryK = topK
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.hits, nil
}

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

func indexedFile(id int64, name string) domain.File {
	return domain.File{ID: id, Name: name, Status: domain.StatusIndexed}
}

func TestRouteNoIndexedFiles(t *testing.T) {
	emb := &countingEmbedder{}
	svc := New(&mockFiles{}, &mockIndex{}, emb, zap.NewNop())

	res, err := svc.Route(context.Background(), "where is the budget?", 3)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if !res.Empty() {
		t.Error("expected empty result with no indexed files")
	}
	if emb.calls != 0 {
		t.Errorf("question should not be embedded with no files, calls = %d", emb.calls)
	}
}

func TestRouteEmbedsQuestionOnce(t *testing.T) {
	files := &mockFiles{indexed: []domain.File{indexedFile(1, "a.txt"), indexedFile(2, "b.txt")}}
	index := &mockIndex{hits: []domain.SearchHit{
		{Namespace: "kb-file-1-a", FileName: "a.txt", ChunkID: "chunk_1_0", Score: 0.8, Text: "alpha"},
	}}
	emb := &countingEmbedder{}
	svc := New(files, index, emb, zap.NewNop())

	if _, err := svc.Route(context.Background(), "q", 5); err != nil {
		t.Fatalf("route: %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("question embedded %d times, want 1", emb.calls)
	}
	if len(index.queried) != 1 || len(index.queried[0]) != 2 {
		t.Errorf("queried namespaces = %v", index.queried)
	}
	if index.queryK != 5 {
		t.Errorf("per-file K = %d, want 5", index.queryK)
	}
}

func TestRouteEnforcesMinimumDepth(t *testing.T) {
	files := &mockFiles{indexed: []domain.File{indexedFile(1, "a.txt")}}
	index := &mockIndex{hits: []domain.SearchHit{
		{FileName: "a.txt", ChunkID: "chunk_1_0", Score: 0.8, Text: "x"},
	}}
	svc := New(files, index, &countingEmbedder{}, zap.NewNop())

	if _, err := svc.Route(context.Background(), "q", 1); err != nil {
		t.Fatalf("route: %v", err)
	}
	if index.queryK != minPerFileK {
		t.Errorf("per-file K = %d, want %d", index.queryK, minPerFileK)
	}
}

func TestRouteSkipsMissingNamespaces(t *testing.T) {
	files := &mockFiles{indexed: []domain.File{indexedFile(1, "a.txt"), indexedFile(2, "b.txt")}}
	index := &mockIndex{
		missing: map[string]bool{domain.NamespaceForFile(2, "b.txt"): true},
		hits: []domain.SearchHit{
			{FileName: "a.txt", ChunkID: "chunk_1_0", Score: 0.6, Text: "x"},
		},
	}
	svc := New(files, index, &countingEmbedder{}, zap.NewNop())

	if _, err := svc.Route(context.Background(), "q", 3); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(index.queried[0]) != 1 {
		t.Errorf("queried namespaces = %v, want only file 1", index.queried[0])
	}
}

func TestRouteRanksFilesAndSelectsTies(t *testing.T) {
	files := &mockFiles{indexed: []domain.File{
		indexedFile(1, "a.docx"), indexedFile(2, "b.pdf"), indexedFile(3, "c.txt"),
	}}
	index := &mockIndex{hits: []domain.SearchHit{
		{FileName: "c.txt", ChunkID: "chunk_3_0", Score: 0.50, Text: "weak"},
		{FileName: "a.docx", ChunkID: "chunk_1_1", Score: 0.80, Text: "best chunk"},
		{FileName: "a.docx", ChunkID: "chunk_1_0", Score: 0.60, Text: "second chunk"},
		{FileName: "b.pdf", ChunkID: "chunk_2_4", Score: 0.79, Text: "near tie"},
	}}
	svc := New(files, index, &countingEmbedder{}, zap.NewNop())

	res, err := svc.Route(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	if len(res.FileScores) != 3 {
		t.Fatalf("file scores = %d, want 3", len(res.FileScores))
	}
	gotOrder := []string{res.FileScores[0].FileName, res.FileScores[1].FileName, res.FileScores[2].FileName}
	wantOrder := []string{"a.docx", "b.pdf", "c.txt"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("ranking = %v, want %v", gotOrder, wantOrder)
		}
	}

	selected := domain.SelectedFiles(res.FileScores)
	if len(selected) != 2 || selected[0] != "a.docx" || selected[1] != "b.pdf" {
		t.Errorf("selected = %v, want tie pair", selected)
	}

	// Every ranked file contributes context chunks, in file order,
	// best chunk first within each file.
	gotChunks := make([]string, len(res.ContextChunks))
	for i, c := range res.ContextChunks {
		gotChunks[i] = c.ChunkID
	}
	wantChunks := []string{"chunk_1_1", "chunk_1_0", "chunk_2_4", "chunk_3_0"}
	if len(gotChunks) != len(wantChunks) {
		t.Fatalf("context chunks = %v, want %v", gotChunks, wantChunks)
	}
	for i := range wantChunks {
		if gotChunks[i] != wantChunks[i] {
			t.Fatalf("context chunks = %v, want %v", gotChunks, wantChunks)
		}
	}
}

func TestRouteLowScoringFileStillContributesContext(t *testing.T) {
	files := &mockFiles{indexed: []domain.File{
		indexedFile(1, "a.docx"), indexedFile(3, "c.txt"),
	}}
	index := &mockIndex{hits: []domain.SearchHit{
		{FileName: "a.docx", ChunkID: "chunk_1_0", Score: 0.80, Text: "strong"},
		{FileName: "c.txt", ChunkID: "chunk_3_0", Score: 0.50, Text: "weak"},
	}}
	svc := New(files, index, &countingEmbedder{}, zap.NewNop())

	res, err := svc.Route(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	if selected := domain.SelectedFiles(res.FileScores); len(selected) != 1 || selected[0] != "a.docx" {
		t.Errorf("selected = %v, want only the winner", selected)
	}

	found := false
	for _, c := range res.ContextChunks {
		if c.FileName == "c.txt" {
			found = true
		}
	}
	if !found {
		t.Errorf("low-scoring file's chunks missing from context: %+v", res.ContextChunks)
	}
}

func TestRouteSummaryTruncation(t *testing.T) {
	long := strings.Repeat("word ", 100) // well over the summary cap
	files := &mockFiles{indexed: []domain.File{indexedFile(1, "a.txt")}}
	index := &mockIndex{hits: []domain.SearchHit{
		{FileName: "a.txt", ChunkID: "chunk_1_0", Score: 0.9, Text: long},
	}}
	svc := New(files, index, &countingEmbedder{}, zap.NewNop())

	res, err := svc.Route(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	summary := res.FileScores[0].Summary
	if !strings.HasSuffix(summary, "...") {
		t.Errorf("long summary should end with ellipsis: %q", summary)
	}
	if len([]rune(summary)) != summaryLen+3 {
		t.Errorf("summary length = %d, want %d", len([]rune(summary)), summaryLen+3)
	}
}

func TestRouteRejectsBlankQuestion(t *testing.T) {
	svc := New(&mockFiles{}, &mockIndex{}, &countingEmbedder{}, zap.NewNop())

	_, err := svc.Route(context.Background(), "   ", 3)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRoutePropagatesEmbedderFailure(t *testing.T) {
	files := &mockFiles{indexed: []domain.File{indexedFile(1, "a.txt")}}
	emb := &countingEmbedder{err: domain.ErrEmbeddingUnavailable}
	svc := New(files, &mockIndex{}, emb, zap.NewNop())

	_, err := svc.Route(context.Background(), "q", 3)
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("expected embedder error, got %v", err)
	}
}
