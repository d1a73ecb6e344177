package chunk

import (
	"strings"
	"testing"
)

var testSource = Source{FileID: 7, FileName: "notes.txt", FileType: "txt"}

func TestSplitEmptyInput(t *testing.T) {
	if got := Split("", 100, 20, testSource); len(got) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(got))
	}
	if got := Split("   \n\t  ", 100, 20, testSource); len(got) != 0 {
		t.Errorf("expected no chunks for whitespace input, got %d", len(got))
	}
}

func TestSplitSingleShortText(t *testing.T) {
	got := Split("hello world", 100, 20, testSource)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	c := got[0]
	if c.Text != "hello world" {
		t.Errorf("expected full text, got %q", c.Text)
	}
	if c.StartOffset != 0 || c.EndOffset != 11 {
		t.Errorf("unexpected offsets: [%d, %d)", c.StartOffset, c.EndOffset)
	}
	if c.Index != 0 {
		t.Errorf("expected index 0, got %d", c.Index)
	}
	if c.FileID != 7 || c.FileName != "notes.txt" || c.FileType != "txt" {
		t.Errorf("source metadata not carried: %+v", c)
	}
}

func TestSplitWindowsCoverText(t *testing.T) {
	text := "The quick brown fox jumps"
	chunks := Split(text, 10, 3, testSource)

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if chunks[0].Text != "The quick" {
		t.Errorf("first chunk = %q, want %q", chunks[0].Text, "The quick")
	}

	// Raw windows must tile the whole text: each window starts no later
	// than the previous one ends, and the last one reaches the end.
	runes := []rune(text)
	if chunks[0].StartOffset != 0 {
		t.Errorf("first window starts at %d, want 0", chunks[0].StartOffset)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartOffset > chunks[i-1].EndOffset {
			t.Errorf("gap between windows %d and %d", i-1, i)
		}
	}
	if end := chunks[len(chunks)-1].EndOffset; end != len(runes) {
		t.Errorf("last window ends at %d, want %d", end, len(runes))
	}

	// Every chunk is the trimmed content of its window.
	for _, c := range chunks {
		want := strings.TrimSpace(string(runes[c.StartOffset:c.EndOffset]))
		if c.Text != want {
			t.Errorf("chunk %d = %q, want window content %q", c.Index, c.Text, want)
		}
	}
}

func TestSplitIndexesAreContiguous(t *testing.T) {
	text := strings.Repeat("a", 50) + strings.Repeat(" ", 30) + strings.Repeat("b", 50)
	chunks := Split(text, 10, 0, testSource)
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestSplitTerminatesWhenOverlapExceedsSize(t *testing.T) {
	text := strings.Repeat("x", 200)
	chunks := Split(text, 5, 10, testSource)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	// Step is clamped to 1, so at most one chunk per character.
	if len(chunks) > len(text) {
		t.Errorf("too many chunks: %d", len(chunks))
	}
}

func TestSplitEmitsFinalPartialWindow(t *testing.T) {
	text := strings.Repeat("a", 25)
	chunks := Split(text, 10, 0, testSource)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if got := chunks[2].Text; got != "aaaaa" {
		t.Errorf("final partial chunk = %q", got)
	}
}

func TestSplitZeroSizeFallsBackToDefault(t *testing.T) {
	text := strings.Repeat("a", DefaultSize+10)
	chunks := Split(text, 0, 0, testSource)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks with default size, got %d", len(chunks))
	}
	if chunks[0].EndOffset != DefaultSize {
		t.Errorf("first window ends at %d, want %d", chunks[0].EndOffset, DefaultSize)
	}
}

func TestID(t *testing.T) {
	if got := ID(42, 3); got != "chunk_42_3" {
		t.Errorf("ID(42, 3) = %q", got)
	}
}
