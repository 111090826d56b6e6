package handlers

import (
	"net/http"
	"time"

	"embedpipe/internal/contextutil"
	"embedpipe/internal/service"
)

// StatsHandler handles HTTP requests for corpus statistics.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// CatalogStatsResponse summarizes the document catalog.
type CatalogStatsResponse struct {
	Total      int            `json:"total"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Chunks     int            `json:"chunks"`
	Categories map[string]int `json:"categories"`
}

// RunSummaryResponse summarizes the latest ingest run.
type RunSummaryResponse struct {
	ID            string `json:"id"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
	DocsTotal     int    `json:"docs_total"`
	DocsSucceeded int    `json:"docs_succeeded"`
	DocsFailed    int    `json:"docs_failed"`
	DocsSkipped   int    `json:"docs_skipped"`
	RowsEmitted   int    `json:"rows_emitted"`
}

// CollectionInfoResponse summarizes the vector collection.
type CollectionInfoResponse struct {
	VectorSize  int    `json:"vector_size"`
	PointsCount int    `json:"points_count"`
	Status      string `json:"status"`
}

// StatsResponse represents the HTTP response payload for statistics. LastRun,
// Collection, and TokenStats are omitted when not available.
type StatsResponse struct {
	Documents  CatalogStatsResponse    `json:"documents"`
	LastRun    *RunSummaryResponse     `json:"last_run,omitempty"`
	Collection *CollectionInfoResponse `json:"collection,omitempty"`
	TokenStats *TokenStatsResponse     `json:"token_stats,omitempty"`
}

// ServeHTTP handles HTTP requests for statistics.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	svcResp, err := h.statsService.Stats(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to aggregate statistics")
		return
	}

	resp := StatsResponse{}
	if svcResp.Documents != nil {
		resp.Documents = CatalogStatsResponse{
			Total:      svcResp.Documents.DocsTotal,
			Succeeded:  svcResp.Documents.DocsSucceeded,
			Failed:     svcResp.Documents.DocsFailed,
			Chunks:     svcResp.Documents.ChunksTotal,
			Categories: svcResp.Documents.Categories,
		}
	}
	if svcResp.LastRun != nil {
		run := RunSummaryResponse{
			ID:            svcResp.LastRun.ID,
			StartedAt:     svcResp.LastRun.StartedAt.UTC().Format(time.RFC3339),
			DocsTotal:     svcResp.LastRun.DocsTotal,
			DocsSucceeded: svcResp.LastRun.DocsSucceeded,
			DocsFailed:    svcResp.LastRun.DocsFailed,
			DocsSkipped:   svcResp.LastRun.DocsSkipped,
			RowsEmitted:   svcResp.LastRun.RowsEmitted,
		}
		if !svcResp.LastRun.FinishedAt.IsZero() {
			run.FinishedAt = svcResp.LastRun.FinishedAt.UTC().Format(time.RFC3339)
		}
		resp.LastRun = &run
	}
	if svcResp.Collection != nil {
		resp.Collection = &CollectionInfoResponse{
			VectorSize:  svcResp.Collection.VectorSize,
			PointsCount: svcResp.Collection.PointsCount,
			Status:      svcResp.Collection.Status,
		}
	}
	if svcResp.TokenStats != nil {
		ts := tokenStatsResponse(*svcResp.TokenStats)
		resp.TokenStats = &ts
	}

	writeJSON(w, http.StatusOK, resp)
}
