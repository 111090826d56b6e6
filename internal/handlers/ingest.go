package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"embedpipe/internal/contextutil"
	"embedpipe/internal/indexer"
	"embedpipe/internal/service"
)

// IngestHandler handles HTTP requests for corpus ingestion.
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// IngestRequest represents the HTTP request payload for ingestion. The body
// may be empty; export fields are optional.
type IngestRequest struct {
	ExportFormat string `json:"export_format,omitempty"`
	ExportPath   string `json:"export_path,omitempty"`
}

// DocumentResultResponse is one document's outcome in a run report.
type DocumentResultResponse struct {
	RelPath  string `json:"rel_path"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Chunks   int    `json:"chunks"`
	Tokens   int    `json:"tokens"`
}

// RunReportResponse represents one ingest run on the wire.
type RunReportResponse struct {
	RunID         string                   `json:"run_id"`
	StartedAt     string                   `json:"started_at"`
	FinishedAt    string                   `json:"finished_at"`
	DocsTotal     int                      `json:"docs_total"`
	DocsSucceeded int                      `json:"docs_succeeded"`
	DocsFailed    int                      `json:"docs_failed"`
	DocsSkipped   int                      `json:"docs_skipped"`
	RowsEmitted   int                      `json:"rows_emitted"`
	TokenStats    TokenStatsResponse       `json:"token_stats"`
	Documents     []DocumentResultResponse `json:"documents"`
}

// IngestResponse represents the HTTP response payload for ingestion.
type IngestResponse struct {
	Report     RunReportResponse `json:"report"`
	ExportPath string            `json:"export_path,omitempty"`
}

// ServeHTTP handles HTTP requests for ingestion. The run executes
// synchronously; the response carries the full run report.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// An empty body means a plain run with no export.
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.ingestService.ProcessIngest(ctx, service.IngestRequest{
		ExportFormat: req.ExportFormat,
		ExportPath:   req.ExportPath,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process ingest request")
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Report:     runReportResponse(svcResp.Report),
		ExportPath: svcResp.ExportPath,
	})
}

func runReportResponse(report *indexer.RunReport) RunReportResponse {
	resp := RunReportResponse{
		RunID:         report.RunID,
		StartedAt:     report.StartedAt.UTC().Format(time.RFC3339),
		DocsTotal:     report.DocsTotal,
		DocsSucceeded: report.DocsSucceeded,
		DocsFailed:    report.DocsFailed,
		DocsSkipped:   report.DocsSkipped,
		RowsEmitted:   report.RowsEmitted,
		TokenStats:    tokenStatsResponse(report.TokenStats),
		Documents:     make([]DocumentResultResponse, 0, len(report.Documents)),
	}
	if !report.FinishedAt.IsZero() {
		resp.FinishedAt = report.FinishedAt.UTC().Format(time.RFC3339)
	}
	for _, doc := range report.Documents {
		resp.Documents = append(resp.Documents, DocumentResultResponse{
			RelPath:  doc.RelPath,
			Title:    doc.Title,
			Category: doc.Category,
			Status:   doc.Status,
			Error:    doc.Error,
			Chunks:   doc.Chunks,
			Tokens:   doc.Tokens,
		})
	}
	return resp
}
