package domain

import "time"

// IndexingStatus tracks a file's progress through the ingestion pipeline.
type IndexingStatus string

const (
	// StatusPending means the file is stored but not yet indexed.
	StatusPending IndexingStatus = "pending"
	// StatusIndexed means chunks were embedded and upserted successfully.
	StatusIndexed IndexingStatus = "indexed"
	// StatusError means indexing failed; Error holds the reason.
	StatusError IndexingStatus = "error"
)

// File is a knowledge-base source document.
type File struct {
	ID         int64
	Name       string
	Type       string // extension without dot: pdf, docx, xlsx, txt, md
	Size       int64
	Status     IndexingStatus
	ChunkCount int
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
