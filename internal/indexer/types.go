package indexer

import "time"

// Document outcome statuses reported per processed file.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Row is one flat output record per content chunk, the shape bulk vector
// uploads and exports consume. The title vector is repeated on every row of a
// document; the content vector is the row's own chunk embedding.
type Row struct {
	ID            string    `json:"id"`
	VectorID      string    `json:"vector_id"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	TitleVector   []float32 `json:"title_vector"`
	ContentVector []float32 `json:"content_vector"`
	Category      string    `json:"category"`
}

// DocumentResult is the outcome of processing one corpus file.
type DocumentResult struct {
	RelPath  string `json:"rel_path"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Chunks   int    `json:"chunks"`
	Tokens   int    `json:"tokens"`

	// Rows and TokenCounts ride along for the collector; they are not part
	// of the serialized report.
	Rows        []Row `json:"-"`
	TokenCounts []int `json:"-"`
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID         string           `json:"run_id"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
	DocsTotal     int              `json:"docs_total"`
	DocsSucceeded int              `json:"docs_succeeded"`
	DocsFailed    int              `json:"docs_failed"`
	DocsSkipped   int              `json:"docs_skipped"`
	RowsEmitted   int              `json:"rows_emitted"`
	TokenStats    TokenStats       `json:"token_stats"`
	Documents     []DocumentResult `json:"documents"`
}
