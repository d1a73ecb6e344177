package domain

import (
	"regexp"
	"strings"
	"testing"
)

func TestNamespaceForFile(t *testing.T) {
	tests := []struct {
		name     string
		fileID   int64
		fileName string
		want     string
	}{
		{"spaces and parens", 42, "Q1 Report (Final).docx", "kb-file-42-q1-report-final"},
		{"plain", 1, "notes.txt", "kb-file-1-notes"},
		{"uppercase", 3, "ROADMAP.md", "kb-file-3-roadmap"},
		{"digit start gets file prefix", 5, "2024 plan.pdf", "kb-file-5-file-2024-plan"},
		{"consecutive separators", 9, "a__b -- c.xlsx", "kb-file-9-a-b-c"},
		{"only symbols", 11, "???.pdf", "kb-file-11"},
		{"no extension", 2, "README", "kb-file-2-readme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NamespaceForFile(tt.fileID, tt.fileName); got != tt.want {
				t.Errorf("NamespaceForFile(%d, %q) = %q, want %q", tt.fileID, tt.fileName, got, tt.want)
			}
		})
	}
}

func TestNamespaceForFileIsPure(t *testing.T) {
	a := NamespaceForFile(7, "Design Doc v2.docx")
	b := NamespaceForFile(7, "Design Doc v2.docx")
	if a != b {
		t.Errorf("same input produced different names: %q vs %q", a, b)
	}
}

func TestNamespaceForFileCharset(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)
	names := []string{
		NamespaceForFile(1, "weird  @@@ file !!.pdf"),
		NamespaceForFile(99, strings.Repeat("very long name ", 20)+".docx"),
		NamespaceForFile(12, "Ünïcödé nàme.txt"),
	}
	for _, n := range names {
		if !valid.MatchString(n) {
			t.Errorf("namespace %q violates charset invariant", n)
		}
		if len(n) > 64 {
			t.Errorf("namespace %q exceeds length bound", n)
		}
	}
}

func TestNamespaceForFileTruncatesBase(t *testing.T) {
	got := NamespaceForFile(1, strings.Repeat("a", 100)+".txt")
	want := "kb-file-1-" + strings.Repeat("a", 40)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
