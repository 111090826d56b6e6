package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_stats_service.go -package=mocks -mock_names=StatsService=MockStatsService embedpipe/internal/service StatsService

import (
	"context"
	"errors"

	"embedpipe/internal/contextutil"
	"embedpipe/internal/indexer"
	"embedpipe/internal/storage"
	"embedpipe/internal/vectorstore"
)

// TokenStatsSource exposes the token distribution of the most recent ingest
// run. IngestService satisfies it.
type TokenStatsSource interface {
	LastTokenStats() (indexer.TokenStats, bool)
}

// StatsResponse aggregates catalog, run, and collection state for reporting.
// Collection is nil when the vector store cannot be reached, LastRun is nil
// before the first ingest, TokenStats is nil until a run has emitted rows.
type StatsResponse struct {
	Documents  *storage.CatalogStats
	LastRun    *storage.RunRecord
	Collection *vectorstore.CollectionInfo
	TokenStats *indexer.TokenStats
}

// StatsService reports on the state of the indexed corpus.
type StatsService interface {
	// Stats aggregates the document catalog, the latest ingest run, and the
	// vector collection.
	Stats(ctx context.Context) (StatsResponse, error)
}

// statsService implements StatsService.
type statsService struct {
	documents  storage.DocumentStore
	runs       storage.RunStore
	vectors    vectorstore.VectorStore
	collection string
	tokenStats TokenStatsSource
}

// NewStatsService creates a new StatsService for the given collection.
func NewStatsService(documents storage.DocumentStore, runs storage.RunStore, vectors vectorstore.VectorStore, collection string, tokenStats TokenStatsSource) StatsService {
	return &statsService{
		documents:  documents,
		runs:       runs,
		vectors:    vectors,
		collection: collection,
		tokenStats: tokenStats,
	}
}

// Stats processes a stats request.
func (s *statsService) Stats(ctx context.Context) (StatsResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	catalog, err := s.documents.Stats(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to aggregate catalog", "error", err)
		return StatsResponse{}, WrapError(err, "failed to aggregate catalog")
	}
	resp := StatsResponse{Documents: catalog}

	run, err := s.runs.Latest(ctx)
	switch {
	case err == nil:
		resp.LastRun = run
	case errors.Is(err, storage.ErrNotFound):
		// No ingest run yet.
	default:
		logger.ErrorContext(ctx, "failed to read latest run", "error", err)
		return StatsResponse{}, WrapError(err, "failed to read latest run")
	}

	// Collection info is best effort so stats stay readable while the vector
	// store is down.
	info, err := s.vectors.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		logger.WarnContext(ctx, "failed to read collection info", "error", err, "collection", s.collection)
	} else {
		resp.Collection = info
	}

	if ts, ok := s.tokenStats.LastTokenStats(); ok {
		resp.TokenStats = &ts
	}

	return resp, nil
}
