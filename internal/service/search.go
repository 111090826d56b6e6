package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_service.go -package=mocks -mock_names=SearchService=MockSearchService embedpipe/internal/service SearchService

import (
	"context"
	"strings"

	"embedpipe/internal/contextutil"
	"embedpipe/internal/vectorstore"
)

const (
	// DefaultSearchK is the result count used when a request does not set k.
	DefaultSearchK = 5
	// MaxSearchK bounds the result count a single request may ask for.
	MaxSearchK = 20
)

// SearchRequest represents a semantic search request in the domain layer.
type SearchRequest struct {
	Query string
	K     int
	// Category restricts results to one category label when non-empty.
	Category string
}

// SearchResult is one scored chunk returned from the vector store.
type SearchResult struct {
	ID         string
	Score      float32
	Title      string
	Text       string
	Category   string
	ChunkIndex int
	DocumentID string
}

// SearchResponse represents a semantic search response in the domain layer.
type SearchResponse struct {
	Results []SearchResult
}

// SearchService answers semantic queries against the indexed corpus.
type SearchService interface {
	// Search embeds req.Query and returns the closest chunks, best first.
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
}

// searchService implements SearchService.
type searchService struct {
	embedder   Embedder
	vectors    vectorstore.VectorStore
	collection string
}

// NewSearchService creates a new SearchService querying the given collection.
func NewSearchService(emb Embedder, vectors vectorstore.VectorStore, collection string) SearchService {
	return &searchService{
		embedder:   emb,
		vectors:    vectors,
		collection: collection,
	}
}

// Search processes a semantic search request.
func (s *searchService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		logger.WarnContext(ctx, "empty query in search request")
		return SearchResponse{}, &ValidationError{
			Field:   "query",
			Message: "cannot be empty",
		}
	}

	k := req.K
	if k <= 0 {
		k = DefaultSearchK
	}
	if k > MaxSearchK {
		k = MaxSearchK
	}

	vec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return SearchResponse{}, wrapEmbeddingError("failed to embed query", err)
	}

	var filters map[string]any
	if req.Category != "" {
		filters = map[string]any{"category": req.Category}
	}

	found, err := s.vectors.Search(ctx, s.collection, vec, k, filters)
	if err != nil {
		logger.ErrorContext(ctx, "vector search failed", "error", err)
		return SearchResponse{}, upstreamError("vector search failed", err)
	}

	results := make([]SearchResult, 0, len(found))
	for _, hit := range found {
		results = append(results, SearchResult{
			ID:         hit.PointID,
			Score:      hit.Score,
			Title:      metaString(hit.Meta, "title"),
			Text:       metaString(hit.Meta, "text"),
			Category:   metaString(hit.Meta, "category"),
			ChunkIndex: metaInt(hit.Meta, "chunk_index"),
			DocumentID: metaString(hit.Meta, "document_id"),
		})
	}

	logger.InfoContext(ctx, "search completed",
		"query_length", len(query), "k", k, "results", len(results))
	return SearchResponse{Results: results}, nil
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

// metaInt tolerates the integer types the store backends hand back.
func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
