package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingest_service.go -package=mocks -mock_names=IngestService=MockIngestService embedpipe/internal/service IngestService

import (
	"context"
	"strings"
	"sync"

	"embedpipe/internal/contextutil"
	"embedpipe/internal/indexer"
)

// Runner executes one ingest run over the corpus and returns the run report
// together with the emitted export rows. *indexer.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*indexer.RunReport, []indexer.Row, error)
}

// IngestRequest represents an ingest request in the domain layer. Export is
// optional: when ExportFormat is set the run's rows are also written to
// ExportPath.
type IngestRequest struct {
	ExportFormat string
	ExportPath   string
}

// IngestResponse represents an ingest response in the domain layer.
type IngestResponse struct {
	Report     *indexer.RunReport
	ExportPath string
}

// IngestService runs the document pipeline over the corpus.
type IngestService interface {
	// ProcessIngest runs the pipeline and optionally exports the emitted rows.
	// It blocks until the run finishes.
	ProcessIngest(ctx context.Context, req IngestRequest) (IngestResponse, error)

	// LastTokenStats returns the token distribution of the most recent run
	// that emitted rows, and whether one exists.
	LastTokenStats() (indexer.TokenStats, bool)
}

// ingestService implements IngestService.
type ingestService struct {
	runner Runner

	mu        sync.Mutex
	lastStats indexer.TokenStats
	hasStats  bool
}

// NewIngestService creates a new IngestService.
func NewIngestService(runner Runner) IngestService {
	return &ingestService{runner: runner}
}

// ProcessIngest processes an ingest request.
func (s *ingestService) ProcessIngest(ctx context.Context, req IngestRequest) (IngestResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	format := strings.ToLower(strings.TrimSpace(req.ExportFormat))
	switch format {
	case "", indexer.FormatCSV, indexer.FormatJSONL:
	default:
		return IngestResponse{}, &ValidationError{
			Field:   "export_format",
			Message: "must be csv or jsonl",
		}
	}
	if format != "" && req.ExportPath == "" {
		return IngestResponse{}, &ValidationError{
			Field:   "export_path",
			Message: "required when export_format is set",
		}
	}
	if format == "" && req.ExportPath != "" {
		return IngestResponse{}, &ValidationError{
			Field:   "export_format",
			Message: "required when export_path is set",
		}
	}

	report, rows, err := s.runner.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "ingest run failed", "error", err)
		return IngestResponse{}, WrapError(err, "ingest run failed")
	}

	// Keep the previous distribution when a run emits nothing, e.g. when every
	// document was skipped as unchanged.
	if report.RowsEmitted > 0 {
		s.mu.Lock()
		s.lastStats = report.TokenStats
		s.hasStats = true
		s.mu.Unlock()
	}

	resp := IngestResponse{Report: report}
	if format != "" {
		if err := indexer.ExportFile(req.ExportPath, format, rows); err != nil {
			logger.ErrorContext(ctx, "failed to export rows", "error", err, "path", req.ExportPath)
			return IngestResponse{}, WrapError(err, "failed to export rows")
		}
		resp.ExportPath = req.ExportPath
		logger.InfoContext(ctx, "exported rows", "path", req.ExportPath, "format", format, "rows", len(rows))
	}

	logger.InfoContext(ctx, "ingest run processed",
		"docs_total", report.DocsTotal,
		"docs_succeeded", report.DocsSucceeded,
		"docs_failed", report.DocsFailed,
		"docs_skipped", report.DocsSkipped,
		"rows_emitted", report.RowsEmitted)
	return resp, nil
}

// LastTokenStats returns the cached token distribution from the most recent
// productive run.
func (s *ingestService) LastTokenStats() (indexer.TokenStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats, s.hasStats
}
