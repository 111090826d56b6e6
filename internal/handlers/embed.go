package handlers

import (
	"encoding/json"
	"net/http"

	"embedpipe/internal/contextutil"
	"embedpipe/internal/service"
)

// EmbedHandler handles HTTP requests for ad hoc embedding.
type EmbedHandler struct {
	embedService service.EmbedService
}

// NewEmbedHandler creates a new EmbedHandler.
func NewEmbedHandler(embedService service.EmbedService) *EmbedHandler {
	return &EmbedHandler{embedService: embedService}
}

// EmbedRequest represents the HTTP request payload for embedding.
type EmbedRequest struct {
	Text string `json:"text"`
	// Combine folds the chunk vectors into one document vector.
	Combine bool `json:"combine,omitempty"`
	// Normalize overrides the server default when present.
	Normalize *bool `json:"normalize,omitempty"`
}

// EmbedChunkResponse is one chunk's vector in an embed response.
type EmbedChunkResponse struct {
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	TokenCount int       `json:"token_count"`
	Vector     []float32 `json:"vector"`
}

// EmbedResponse represents the HTTP response payload for embedding. Chunks is
// present for per-chunk requests, Combined for combine requests.
type EmbedResponse struct {
	Chunks      []EmbedChunkResponse `json:"chunks,omitempty"`
	Combined    []float32            `json:"combined,omitempty"`
	ChunkCount  int                  `json:"chunk_count"`
	TotalTokens int                  `json:"total_tokens"`
	TokenStats  TokenStatsResponse   `json:"token_stats"`
}

// ServeHTTP handles HTTP requests for embedding.
func (h *EmbedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.embedService.ProcessEmbed(ctx, service.EmbedRequest{
		Text:      req.Text,
		Combine:   req.Combine,
		Normalize: req.Normalize,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process embed request")
		return
	}

	resp := EmbedResponse{
		Combined:    svcResp.Combined,
		ChunkCount:  svcResp.ChunkCount,
		TotalTokens: svcResp.TotalTokens,
		TokenStats:  tokenStatsResponse(svcResp.TokenStats),
	}
	if svcResp.Chunks != nil {
		resp.Chunks = make([]EmbedChunkResponse, 0, len(svcResp.Chunks))
		for _, chunk := range svcResp.Chunks {
			resp.Chunks = append(resp.Chunks, EmbedChunkResponse{
				Index:      chunk.Index,
				Text:       chunk.Text,
				TokenCount: chunk.TokenCount,
				Vector:     chunk.Vector,
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
