// Package chunk splits extracted document text into overlapping fixed-size
// windows, the unit of indexing and retrieval.
package chunk

import (
	"strconv"
	"strings"
)

// Default window parameters, in characters.
const (
	DefaultSize    = 400
	DefaultOverlap = 100
)

// Source identifies the document a chunk was cut from.
type Source struct {
	FileID   int64
	FileName string
	FileType string
}

// Chunk is one bounded, whitespace-trimmed slice of a document's text.
// Immutable once created; Index reflects original document position and
// counts emitted chunks only. Offsets are in characters (runes).
type Chunk struct {
	Text        string
	StartOffset int
	EndOffset   int
	Index       int
	FileID      int64
	FileName    string
	FileType    string
}

// ID returns the stable record key for a chunk within its file's namespace.
func ID(fileID int64, index int) string {
	return "chunk_" + strconv.FormatInt(fileID, 10) + "_" + strconv.Itoa(index)
}

// Split slides a window of size characters across text, advancing by
// size-overlap each step. Windows are trimmed; empty windows are skipped.
// The step is clamped to at least 1 character so the split always terminates
// even when overlap >= size. A final partial window is still emitted.
func Split(text string, size, overlap int, src Source) []Chunk {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	step := size - overlap
	if step < 1 {
		step = 1
	}

	runes := []rune(text)
	var chunks []Chunk
	index := 0

	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		window := strings.TrimSpace(string(runes[start:end]))
		if window == "" {
			continue
		}

		chunks = append(chunks, Chunk{
			Text:        window,
			StartOffset: start,
			EndOffset:   end,
			Index:       index,
			FileID:      src.FileID,
			FileName:    src.FileName,
			FileType:    src.FileType,
		})
		index++
	}

	return chunks
}
