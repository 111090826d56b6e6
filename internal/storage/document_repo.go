package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks embedpipe/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document catalog operations.
type DocumentStore interface {
	// GetByPath gets a document by its corpus-relative path.
	// Returns nil and ErrNotFound if not found.
	GetByPath(ctx context.Context, relPath string) (*DocumentRecord, error)
	// Upsert inserts a new document or updates an existing one.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// List returns all documents ordered by path.
	List(ctx context.Context) ([]DocumentRecord, error)
	// Stats aggregates the catalog into counts by status and category.
	Stats(ctx context.Context) (*CatalogStats, error)
}

// DocumentRepo provides methods for document catalog operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// GetByPath gets a document by its corpus-relative path.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetByPath(ctx context.Context, relPath string) (*DocumentRecord, error) {
	var doc DocumentRecord
	var updatedAtStr string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, rel_path, title, hash, category, chunk_count, status, error, updated_at
		 FROM documents WHERE rel_path = ?`,
		relPath,
	).Scan(&doc.ID, &doc.RelPath, &doc.Title, &doc.Hash, &doc.Category,
		&doc.ChunkCount, &doc.Status, &doc.Error, &updatedAtStr)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc.UpdatedAt, err = parseTimestamp(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return &doc, nil
}

// Upsert inserts a new document or updates an existing one.
// If the document doesn't exist (by rel_path), generates a new UUID.
// If it exists, the stored ID is preserved so vector points stay addressable.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	existing, err := r.GetByPath(ctx, doc.RelPath)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing == nil && doc.ID == "" {
		doc.ID = uuid.New().String()
	} else if existing != nil {
		doc.ID = existing.ID
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, rel_path, title, hash, category, chunk_count, status, error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (rel_path) DO UPDATE SET
		 title = excluded.title, hash = excluded.hash, category = excluded.category,
		 chunk_count = excluded.chunk_count, status = excluded.status,
		 error = excluded.error, updated_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.RelPath, doc.Title, doc.Hash, doc.Category,
		doc.ChunkCount, doc.Status, doc.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// List returns all documents ordered by path.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, rel_path, title, hash, category, chunk_count, status, error, updated_at
		 FROM documents ORDER BY rel_path`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		var updatedAtStr string
		if err := rows.Scan(&doc.ID, &doc.RelPath, &doc.Title, &doc.Hash, &doc.Category,
			&doc.ChunkCount, &doc.Status, &doc.Error, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		doc.UpdatedAt, err = parseTimestamp(updatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// Stats aggregates the catalog into counts by status and category.
func (r *DocumentRepo) Stats(ctx context.Context) (*CatalogStats, error) {
	stats := &CatalogStats{Categories: make(map[string]int)}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(chunk_count), 0)
		 FROM documents`,
		StatusSucceeded, StatusFailed,
	).Scan(&stats.DocsTotal, &stats.DocsSucceeded, &stats.DocsFailed, &stats.ChunksTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate documents: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM documents
		 WHERE status = ? AND category != ''
		 GROUP BY category`,
		StatusSucceeded,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.Categories[category] = count
	}

	return stats, rows.Err()
}
