package storage

import "time"

// Document status values.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// DocumentRecord is the catalog row for one processed source document.
type DocumentRecord struct {
	ID         string // UUID
	RelPath    string // Relative path from the corpus root
	Title      string // Extracted document title
	Hash       string // SHA256 hex string of extracted text
	Category   string // Assigned category label, empty on failure
	ChunkCount int    // Content chunks emitted for this document
	Status     string // StatusSucceeded or StatusFailed
	Error      string // Failure detail when Status == StatusFailed
	UpdatedAt  time.Time
}

// RunRecord summarizes one ingest run over the corpus.
type RunRecord struct {
	ID            string // UUID
	StartedAt     time.Time
	FinishedAt    time.Time // Zero while the run is in progress
	DocsTotal     int
	DocsSucceeded int
	DocsFailed    int
	DocsSkipped   int // Unchanged documents skipped by content hash
	RowsEmitted   int
}

// CatalogStats aggregates the document catalog for reporting.
type CatalogStats struct {
	DocsTotal     int
	DocsSucceeded int
	DocsFailed    int
	ChunksTotal   int
	Categories    map[string]int // Category label -> succeeded document count
}
