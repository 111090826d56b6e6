package service_test

import (
	"errors"
	"testing"
	"time"

	"embedpipe/internal/indexer"
	"embedpipe/internal/service"
	"embedpipe/internal/storage"
	stmocks "embedpipe/internal/storage/mocks"
	"embedpipe/internal/vectorstore"
	vsmocks "embedpipe/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

// stubTokenStats satisfies service.TokenStatsSource.
type stubTokenStats struct {
	stats indexer.TokenStats
	ok    bool
}

func (s *stubTokenStats) LastTokenStats() (indexer.TokenStats, bool) {
	return s.stats, s.ok
}

func TestStatsService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	documents := stmocks.NewMockDocumentStore(ctrl)
	runs := stmocks.NewMockRunStore(ctrl)
	vectors := vsmocks.NewMockVectorStore(ctrl)

	catalog := &storage.CatalogStats{
		DocsTotal:     3,
		DocsSucceeded: 2,
		DocsFailed:    1,
		ChunksTotal:   7,
		Categories:    map[string]int{"finance": 1, "science": 1},
	}
	lastRun := &storage.RunRecord{
		ID:            "run-1",
		StartedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2024, 5, 1, 10, 2, 0, 0, time.UTC),
		DocsTotal:     3,
		DocsSucceeded: 2,
		DocsFailed:    1,
		RowsEmitted:   7,
	}
	info := &vectorstore.CollectionInfo{VectorSize: 2, PointsCount: 7, Status: "green"}

	documents.EXPECT().Stats(gomock.Any()).Return(catalog, nil)
	runs.EXPECT().Latest(gomock.Any()).Return(lastRun, nil)
	vectors.EXPECT().GetCollectionInfo(gomock.Any(), "documents").Return(info, nil)

	tokenStats := &stubTokenStats{stats: indexer.TokenStats{Min: 1, Max: 5, Mean: 2.33, P95: 5}, ok: true}
	svc := service.NewStatsService(documents, runs, vectors, "documents", tokenStats)

	resp, err := svc.Stats(testContext())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if resp.Documents != catalog {
		t.Errorf("Documents = %+v, want catalog stats", resp.Documents)
	}
	if resp.LastRun != lastRun {
		t.Errorf("LastRun = %+v, want latest run", resp.LastRun)
	}
	if resp.Collection != info {
		t.Errorf("Collection = %+v, want collection info", resp.Collection)
	}
	if resp.TokenStats == nil || *resp.TokenStats != tokenStats.stats {
		t.Errorf("TokenStats = %+v, want %+v", resp.TokenStats, tokenStats.stats)
	}
}

func TestStatsService_Stats_BeforeFirstRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	documents := stmocks.NewMockDocumentStore(ctrl)
	runs := stmocks.NewMockRunStore(ctrl)
	vectors := vsmocks.NewMockVectorStore(ctrl)

	documents.EXPECT().Stats(gomock.Any()).Return(&storage.CatalogStats{}, nil)
	runs.EXPECT().Latest(gomock.Any()).Return(nil, storage.ErrNotFound)
	vectors.EXPECT().GetCollectionInfo(gomock.Any(), "documents").Return(&vectorstore.CollectionInfo{}, nil)

	svc := service.NewStatsService(documents, runs, vectors, "documents", &stubTokenStats{})

	resp, err := svc.Stats(testContext())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if resp.LastRun != nil {
		t.Errorf("LastRun = %+v, want nil before first run", resp.LastRun)
	}
	if resp.TokenStats != nil {
		t.Errorf("TokenStats = %+v, want nil before first run", resp.TokenStats)
	}
}

func TestStatsService_Stats_VectorStoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	documents := stmocks.NewMockDocumentStore(ctrl)
	runs := stmocks.NewMockRunStore(ctrl)
	vectors := vsmocks.NewMockVectorStore(ctrl)

	documents.EXPECT().Stats(gomock.Any()).Return(&storage.CatalogStats{DocsTotal: 1}, nil)
	runs.EXPECT().Latest(gomock.Any()).Return(nil, storage.ErrNotFound)
	vectors.EXPECT().
		GetCollectionInfo(gomock.Any(), "documents").
		Return(nil, errors.New("connection refused"))

	svc := service.NewStatsService(documents, runs, vectors, "documents", &stubTokenStats{})

	resp, err := svc.Stats(testContext())
	if err != nil {
		t.Fatalf("Stats() error = %v, want collection info to be best effort", err)
	}
	if resp.Collection != nil {
		t.Errorf("Collection = %+v, want nil when the store is down", resp.Collection)
	}
	if resp.Documents == nil || resp.Documents.DocsTotal != 1 {
		t.Errorf("Documents = %+v, want catalog stats", resp.Documents)
	}
}

func TestStatsService_Stats_CatalogError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	documents := stmocks.NewMockDocumentStore(ctrl)
	runs := stmocks.NewMockRunStore(ctrl)
	vectors := vsmocks.NewMockVectorStore(ctrl)

	documents.EXPECT().Stats(gomock.Any()).Return(nil, errors.New("database is locked"))

	svc := service.NewStatsService(documents, runs, vectors, "documents", &stubTokenStats{})

	if _, err := svc.Stats(testContext()); err == nil {
		t.Fatal("Stats() expected error, got nil")
	}
}
