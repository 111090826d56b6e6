package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks embedpipe/internal/service Embedder
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embed_service.go -package=mocks -mock_names=EmbedService=MockEmbedService embedpipe/internal/service EmbedService

import (
	"context"
	"errors"
	"strings"

	"embedpipe/internal/contextutil"
	"embedpipe/internal/embedder"
	"embedpipe/internal/indexer"
)

// Embedder produces chunk and document vectors for raw text.
// This interface is defined from the service layer's perspective
// (consumer-first); *embedder.DocumentEmbedder satisfies it.
type Embedder interface {
	// EmbedDocument chunks text and embeds every chunk.
	EmbedDocument(ctx context.Context, text string, opts embedder.Options) (*embedder.DocumentEmbedding, error)
	// EmbedText embeds text as a single combined vector.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// EmbedRequest represents an embedding request in the domain layer.
type EmbedRequest struct {
	Text    string
	Combine bool
	// Normalize overrides the configured default when set.
	Normalize *bool
}

// EmbedChunk is one chunk's vector along with the window it came from.
type EmbedChunk struct {
	Index      int
	Text       string
	TokenCount int
	Vector     []float32
}

// EmbedResponse represents an embedding response in the domain layer.
// Chunks is populated for per-chunk requests, Combined for combine requests.
type EmbedResponse struct {
	Chunks      []EmbedChunk
	Combined    []float32
	ChunkCount  int
	TotalTokens int
	TokenStats  indexer.TokenStats
}

// EmbedService turns raw text into embedding vectors.
type EmbedService interface {
	// ProcessEmbed chunks req.Text, embeds every chunk, and returns either the
	// per-chunk vectors or a single combined document vector.
	ProcessEmbed(ctx context.Context, req EmbedRequest) (EmbedResponse, error)
}

// embedService implements EmbedService.
type embedService struct {
	embedder         Embedder
	defaultNormalize bool
}

// NewEmbedService creates a new EmbedService. defaultNormalize applies to
// combine requests that do not set Normalize explicitly.
func NewEmbedService(emb Embedder, defaultNormalize bool) EmbedService {
	return &embedService{embedder: emb, defaultNormalize: defaultNormalize}
}

// ProcessEmbed processes an embedding request.
func (s *embedService) ProcessEmbed(ctx context.Context, req EmbedRequest) (EmbedResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Text) == "" {
		logger.WarnContext(ctx, "empty text in embed request")
		return EmbedResponse{}, &ValidationError{
			Field:   "text",
			Message: "cannot be empty",
		}
	}

	normalize := s.defaultNormalize
	if req.Normalize != nil {
		normalize = *req.Normalize
	}

	doc, err := s.embedder.EmbedDocument(ctx, req.Text, embedder.Options{
		Combine:   req.Combine,
		Normalize: normalize,
	})
	if err != nil {
		if errors.Is(err, embedder.ErrEmptyDocument) {
			return EmbedResponse{}, &ValidationError{
				Field:   "text",
				Message: "contains no embeddable content",
			}
		}
		logger.ErrorContext(ctx, "failed to embed text", "error", err)
		return EmbedResponse{}, wrapEmbeddingError("failed to embed text", err)
	}

	resp := EmbedResponse{
		ChunkCount:  len(doc.Chunks),
		TotalTokens: doc.TotalTokens,
	}
	tokenCounts := make([]int, 0, len(doc.Chunks))
	for _, chunk := range doc.Chunks {
		tokenCounts = append(tokenCounts, chunk.TokenCount)
	}
	resp.TokenStats = indexer.ComputeTokenStats(tokenCounts)

	if req.Combine {
		resp.Combined = doc.Combined
	} else {
		resp.Chunks = make([]EmbedChunk, 0, len(doc.Chunks))
		for _, chunk := range doc.Chunks {
			resp.Chunks = append(resp.Chunks, EmbedChunk{
				Index:      chunk.Index,
				Text:       chunk.Text,
				TokenCount: chunk.TokenCount,
				Vector:     chunk.Vector,
			})
		}
	}

	logger.InfoContext(ctx, "embed request processed",
		"chunks", resp.ChunkCount, "tokens", resp.TotalTokens, "combine", req.Combine)
	return resp, nil
}
