package handlers

import (
	"encoding/json"
	"net/http"

	"embedpipe/internal/contextutil"
	"embedpipe/internal/service"
)

// SearchHandler handles HTTP requests for semantic search.
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchRequest represents the HTTP request payload for search.
//
// swagger:model SearchRequest
type SearchRequest struct {
	// The query text to search for
	Query string `json:"query"`

	// Number of results to return (default 5, max 20)
	K int `json:"k,omitempty"`

	// Restrict results to one category label
	Category string `json:"category,omitempty"`
}

// SearchResultResponse is one scored chunk in a search response.
type SearchResultResponse struct {
	ID         string  `json:"id"`
	Score      float32 `json:"score"`
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	ChunkIndex int     `json:"chunk_index"`
	DocumentID string  `json:"document_id"`
}

// SearchResponse represents the HTTP response payload for search.
type SearchResponse struct {
	Results []SearchResultResponse `json:"results"`
}

// ServeHTTP handles HTTP requests for semantic search.
//
// Embeds the query text and returns the closest indexed chunks, best first.
//
// swagger:route POST /api/search search
//
// # Semantic search endpoint
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Search results
//	  schema:
//	    "$ref": "#/definitions/SearchResponse"
//	'400':
//	  description: Invalid request
//	'502':
//	  description: Embedding service or vector store unavailable
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.searchService.Search(ctx, service.SearchRequest{
		Query:    req.Query,
		K:        req.K,
		Category: req.Category,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process search request")
		return
	}

	resp := SearchResponse{Results: make([]SearchResultResponse, 0, len(svcResp.Results))}
	for _, result := range svcResp.Results {
		resp.Results = append(resp.Results, SearchResultResponse{
			ID:         result.ID,
			Score:      result.Score,
			Title:      result.Title,
			Text:       result.Text,
			Category:   result.Category,
			ChunkIndex: result.ChunkIndex,
			DocumentID: result.DocumentID,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
