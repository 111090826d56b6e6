package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return db
}

func TestDocumentRepo_GetByPath_NotFound(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	doc, err := repo.GetByPath(context.Background(), "missing.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByPath() error = %v, want ErrNotFound", err)
	}
	if doc != nil {
		t.Errorf("GetByPath() doc = %v, want nil", doc)
	}
}

func TestDocumentRepo_UpsertAndGet(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	doc := &DocumentRecord{
		RelPath:    "news/article.txt",
		Title:      "A Headline",
		Hash:       "abc123",
		Category:   "world",
		ChunkCount: 3,
		Status:     StatusSucceeded,
	}

	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if doc.ID == "" {
		t.Fatal("Upsert() should generate an ID for new documents")
	}

	got, err := repo.GetByPath(ctx, "news/article.txt")
	if err != nil {
		t.Fatalf("GetByPath() error = %v", err)
	}
	if got.ID != doc.ID {
		t.Errorf("GetByPath() ID = %v, want %v", got.ID, doc.ID)
	}
	if got.Title != "A Headline" || got.Category != "world" || got.ChunkCount != 3 {
		t.Errorf("GetByPath() = %+v, fields do not round-trip", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("GetByPath() UpdatedAt should be set")
	}
}

func TestDocumentRepo_UpsertPreservesID(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	first := &DocumentRecord{
		RelPath: "doc.txt",
		Title:   "Original",
		Hash:    "hash1",
		Status:  StatusSucceeded,
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	second := &DocumentRecord{
		RelPath: "doc.txt",
		Title:   "Updated",
		Hash:    "hash2",
		Status:  StatusSucceeded,
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() second error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Upsert() changed ID from %v to %v on update", first.ID, second.ID)
	}

	got, err := repo.GetByPath(ctx, "doc.txt")
	if err != nil {
		t.Fatalf("GetByPath() error = %v", err)
	}
	if got.Title != "Updated" || got.Hash != "hash2" {
		t.Errorf("GetByPath() = %+v, update not applied", got)
	}
}

func TestDocumentRepo_RecordsFailure(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	doc := &DocumentRecord{
		RelPath: "broken.pdf",
		Title:   "broken",
		Hash:    "hash",
		Status:  StatusFailed,
		Error:   "classify: rate limited (status=429, code=rate_limit_error)",
	}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.GetByPath(ctx, "broken.pdf")
	if err != nil {
		t.Fatalf("GetByPath() error = %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("Status = %v, want %v", got.Status, StatusFailed)
	}
	if got.Error == "" {
		t.Error("Error detail should be recorded for failed documents")
	}
}

func TestDocumentRepo_List(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	for _, relPath := range []string{"b.txt", "a.txt", "c.md"} {
		doc := &DocumentRecord{RelPath: relPath, Title: relPath, Hash: "h", Status: StatusSucceeded}
		if err := repo.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert(%s) error = %v", relPath, err)
		}
	}

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("List() returned %d documents, want 3", len(docs))
	}
	if docs[0].RelPath != "a.txt" || docs[2].RelPath != "c.md" {
		t.Errorf("List() not ordered by path: %v, %v", docs[0].RelPath, docs[2].RelPath)
	}
}

func TestDocumentRepo_Stats(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	seed := []*DocumentRecord{
		{RelPath: "a.txt", Title: "a", Hash: "h", Category: "world", ChunkCount: 2, Status: StatusSucceeded},
		{RelPath: "b.txt", Title: "b", Hash: "h", Category: "world", ChunkCount: 5, Status: StatusSucceeded},
		{RelPath: "c.txt", Title: "c", Hash: "h", Category: "finance", ChunkCount: 1, Status: StatusSucceeded},
		{RelPath: "d.txt", Title: "d", Hash: "h", Status: StatusFailed, Error: "boom"},
	}
	for _, doc := range seed {
		if err := repo.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert(%s) error = %v", doc.RelPath, err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.DocsTotal != 4 {
		t.Errorf("DocsTotal = %d, want 4", stats.DocsTotal)
	}
	if stats.DocsSucceeded != 3 {
		t.Errorf("DocsSucceeded = %d, want 3", stats.DocsSucceeded)
	}
	if stats.DocsFailed != 1 {
		t.Errorf("DocsFailed = %d, want 1", stats.DocsFailed)
	}
	if stats.ChunksTotal != 8 {
		t.Errorf("ChunksTotal = %d, want 8", stats.ChunksTotal)
	}
	if stats.Categories["world"] != 2 || stats.Categories["finance"] != 1 {
		t.Errorf("Categories = %v, want world:2 finance:1", stats.Categories)
	}
}

func TestDocumentRepo_StatsEmptyCatalog(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DocsTotal != 0 || stats.ChunksTotal != 0 {
		t.Errorf("Stats() on empty catalog = %+v, want zeros", stats)
	}
}
