package domain

import (
	"reflect"
	"testing"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Tier
	}{
		{0.90, TierHigh},
		{0.72, TierHigh},
		{0.71, TierMedium},
		{0.55, TierMedium},
		{0.54, TierLow},
		{0, TierLow},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestSelectedFilesTieTolerance(t *testing.T) {
	scores := []FileScore{
		{FileName: "a.docx", TopScore: 0.80},
		{FileName: "b.pdf", TopScore: 0.79},
		{FileName: "c.txt", TopScore: 0.50},
	}
	got := SelectedFiles(scores)
	want := []string{"a.docx", "b.pdf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectedFiles = %v, want %v", got, want)
	}
}

func TestSelectedFilesSingleWinner(t *testing.T) {
	scores := []FileScore{
		{FileName: "a.docx", TopScore: 0.80},
		{FileName: "b.pdf", TopScore: 0.70},
	}
	got := SelectedFiles(scores)
	if len(got) != 1 || got[0] != "a.docx" {
		t.Errorf("SelectedFiles = %v, want [a.docx]", got)
	}
}

func TestSelectedFilesEmpty(t *testing.T) {
	if got := SelectedFiles(nil); got != nil {
		t.Errorf("SelectedFiles(nil) = %v, want nil", got)
	}
}

func TestRouteResultEmpty(t *testing.T) {
	var r RouteResult
	if !r.Empty() {
		t.Error("zero RouteResult should be empty")
	}
	if r.TopScore() != 0 {
		t.Errorf("TopScore of empty result = %v", r.TopScore())
	}

	r = RouteResult{
		FileScores:    []FileScore{{FileName: "a", TopScore: 0.8}},
		ContextChunks: []ContextChunk{{FileName: "a", ChunkID: "chunk_1_0", Score: 0.8, Text: "x"}},
	}
	if r.Empty() {
		t.Error("populated RouteResult should not be empty")
	}
	if r.TopScore() != 0.8 {
		t.Errorf("TopScore = %v, want 0.8", r.TopScore())
	}
}
