package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_run_store.go -package=mocks embedpipe/internal/storage RunStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStore defines the interface for ingest run bookkeeping.
type RunStore interface {
	// Create records the start of a run. A missing ID is generated.
	Create(ctx context.Context, run *RunRecord) error
	// Finish records a run's end time and counters.
	Finish(ctx context.Context, run *RunRecord) error
	// Latest returns the most recently started run.
	// Returns nil and ErrNotFound if no runs exist.
	Latest(ctx context.Context) (*RunRecord, error)
}

// RunRepo provides methods for ingest run operations.
// It implements the RunStore interface.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Create records the start of a run. A missing ID is generated.
func (r *RunRepo) Create(ctx context.Context, run *RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, started_at) VALUES (?, ?)`,
		run.ID, run.StartedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// Finish records a run's end time and counters.
func (r *RunRepo) Finish(ctx context.Context, run *RunRecord) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE ingest_runs SET finished_at = ?, docs_total = ?, docs_succeeded = ?,
		 docs_failed = ?, docs_skipped = ?, rows_emitted = ? WHERE id = ?`,
		run.FinishedAt.UTC().Format(timeFormat), run.DocsTotal, run.DocsSucceeded,
		run.DocsFailed, run.DocsSkipped, run.RowsEmitted, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finish result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Latest returns the most recently started run.
// Returns nil and ErrNotFound if no runs exist.
func (r *RunRepo) Latest(ctx context.Context) (*RunRecord, error) {
	var run RunRecord
	var startedAtStr string
	var finishedAtStr sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, docs_total, docs_succeeded,
		        docs_failed, docs_skipped, rows_emitted
		 FROM ingest_runs ORDER BY started_at DESC, id DESC LIMIT 1`,
	).Scan(&run.ID, &startedAtStr, &finishedAtStr, &run.DocsTotal,
		&run.DocsSucceeded, &run.DocsFailed, &run.DocsSkipped, &run.RowsEmitted)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	run.StartedAt, err = parseTimestamp(startedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at timestamp: %w", err)
	}
	if finishedAtStr.Valid && finishedAtStr.String != "" {
		run.FinishedAt, err = parseTimestamp(finishedAtStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at timestamp: %w", err)
		}
	}

	return &run, nil
}
