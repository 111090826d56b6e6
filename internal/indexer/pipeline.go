package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"embedpipe/internal/contextutil"
	"embedpipe/internal/embedder"
	"embedpipe/internal/storage"
	"embedpipe/internal/vectorstore"
)

// DefaultWorkers is the pool size used when Config.Workers is not set.
const DefaultWorkers = 4

// Embedder produces chunk and single-text embeddings.
// Implemented by embedder.DocumentEmbedder.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string, opts embedder.Options) (*embedder.DocumentEmbedding, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Classifier assigns a category label to a document.
// Implemented by llm.Classifier.
type Classifier interface {
	Classify(ctx context.Context, title, text string) (string, error)
}

// Config holds the pipeline settings.
type Config struct {
	// CorpusDir is the root directory scanned for documents.
	CorpusDir string
	// Workers is the number of concurrent document workers.
	Workers int
	// Collection is the vector store collection rows are uploaded to.
	Collection string
}

// Pipeline processes a corpus directory into embedding rows, vector store
// points, and catalog records.
type Pipeline struct {
	cfg        Config
	extractor  *Extractor
	embedder   Embedder
	classifier Classifier
	documents  storage.DocumentStore
	runs       storage.RunStore
	vectors    vectorstore.VectorStore
}

// NewPipeline creates a pipeline over the given dependencies.
func NewPipeline(
	cfg Config,
	emb Embedder,
	cls Classifier,
	documents storage.DocumentStore,
	runs storage.RunStore,
	vectors vectorstore.VectorStore,
) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	return &Pipeline{
		cfg:        cfg,
		extractor:  NewExtractor(),
		embedder:   emb,
		classifier: cls,
		documents:  documents,
		runs:       runs,
		vectors:    vectors,
	}
}

// Run scans the corpus directory and processes every supported document with
// a fixed-size worker pool. Document failures are isolated: they are recorded
// in the report and the catalog without stopping other documents. The
// returned rows hold one entry per content chunk across all succeeded
// documents; rows within one document preserve chunk order.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, []Row, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := ScanDir(ctx, p.cfg.CorpusDir)
	if err != nil {
		return nil, nil, err
	}

	run := &storage.RunRecord{}
	if err := p.runs.Create(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to create run record: %w", err)
	}

	logger.InfoContext(ctx, "starting ingest run",
		"run_id", run.ID, "total_files", len(files), "workers", p.cfg.Workers)

	report := &RunReport{
		RunID:     run.ID,
		StartedAt: run.StartedAt,
	}

	jobs := make(chan ScannedFile)
	results := make(chan DocumentResult)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				results <- p.processDocument(ctx, file)
			}
		}()
	}

	// Feed jobs until done or cancelled. Closing jobs releases the workers.
	go func() {
		defer close(jobs)
		for _, file := range files {
			select {
			case jobs <- file:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var rows []Row
	var tokenCounts []int
	for result := range results {
		switch result.Status {
		case StatusSucceeded:
			report.DocsSucceeded++
			report.RowsEmitted += len(result.Rows)
			rows = append(rows, result.Rows...)
			tokenCounts = append(tokenCounts, result.TokenCounts...)
		case StatusSkipped:
			report.DocsSkipped++
		default:
			report.DocsFailed++
		}

		result.Rows = nil
		result.TokenCounts = nil
		report.Documents = append(report.Documents, result)
	}

	report.DocsTotal = len(report.Documents)
	report.TokenStats = ComputeTokenStats(tokenCounts)
	sort.Slice(report.Documents, func(i, j int) bool {
		return report.Documents[i].RelPath < report.Documents[j].RelPath
	})

	run.DocsTotal = report.DocsTotal
	run.DocsSucceeded = report.DocsSucceeded
	run.DocsFailed = report.DocsFailed
	run.DocsSkipped = report.DocsSkipped
	run.RowsEmitted = report.RowsEmitted
	if err := p.runs.Finish(ctx, run); err != nil {
		logger.ErrorContext(ctx, "failed to record run completion", "run_id", run.ID, "error", err)
	}
	report.FinishedAt = run.FinishedAt

	logger.InfoContext(ctx, "ingest run completed",
		"run_id", run.ID,
		"docs_total", report.DocsTotal,
		"docs_succeeded", report.DocsSucceeded,
		"docs_failed", report.DocsFailed,
		"docs_skipped", report.DocsSkipped,
		"rows_emitted", report.RowsEmitted)

	if ctx.Err() != nil {
		return report, rows, ctx.Err()
	}
	return report, rows, nil
}

// processDocument runs the full per-document flow: extract, hash skip check,
// embed, classify, upload, catalog.
func (p *Pipeline) processDocument(ctx context.Context, file ScannedFile) DocumentResult {
	logger := contextutil.LoggerFromContext(ctx)

	title, text, err := p.extractor.Extract(file.AbsPath, file.RelPath)
	if err != nil {
		return p.failDocument(ctx, file.RelPath, "", fmt.Errorf("failed to extract text: %w", err))
	}

	hash := sha256.Sum256([]byte(text))
	hashHex := fmt.Sprintf("%x", hash)

	existing, err := p.documents.GetByPath(ctx, file.RelPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return p.failDocument(ctx, file.RelPath, title, fmt.Errorf("failed to check existing document: %w", err))
	}

	// Skip when the extracted content is unchanged. Previously failed
	// documents are retried regardless of the hash.
	if existing != nil && existing.Hash == hashHex && existing.Status == storage.StatusSucceeded {
		logger.DebugContext(ctx, "skipping unchanged document", "rel_path", file.RelPath, "hash", hashHex)
		return DocumentResult{
			RelPath:  file.RelPath,
			Title:    existing.Title,
			Category: existing.Category,
			Status:   StatusSkipped,
			Chunks:   existing.ChunkCount,
		}
	}

	docID := uuid.New().String()
	if existing != nil {
		docID = existing.ID
	}

	if strings.TrimSpace(text) == "" {
		return p.recordEmptyDocument(ctx, file.RelPath, docID, title, hashHex, existing)
	}

	doc, err := p.embedder.EmbedDocument(ctx, text, embedder.Options{})
	if err != nil {
		return p.failDocument(ctx, file.RelPath, title, fmt.Errorf("failed to embed content: %w", err))
	}

	titleVector, err := p.embedder.EmbedText(ctx, title)
	if err != nil {
		return p.failDocument(ctx, file.RelPath, title, fmt.Errorf("failed to embed title: %w", err))
	}

	category, err := p.classifier.Classify(ctx, title, text)
	if err != nil {
		return p.failDocument(ctx, file.RelPath, title, fmt.Errorf("failed to classify document: %w", err))
	}

	rows := make([]Row, len(doc.Chunks))
	points := make([]vectorstore.Point, len(doc.Chunks))
	tokenCounts := make([]int, len(doc.Chunks))
	for i, chunk := range doc.Chunks {
		vectorID := pointID(docID, chunk.Index)

		rows[i] = Row{
			ID:            uuid.New().String(),
			VectorID:      vectorID,
			Title:         title,
			Text:          chunk.Text,
			TitleVector:   titleVector,
			ContentVector: chunk.Vector,
			Category:      category,
		}

		points[i] = vectorstore.Point{
			ID:  vectorID,
			Vec: chunk.Vector,
			Meta: map[string]any{
				"title":       title,
				"text":        chunk.Text,
				"category":    category,
				"chunk_index": chunk.Index,
				"document_id": docID,
			},
		}

		tokenCounts[i] = chunk.TokenCount
	}

	p.deleteStalePoints(ctx, docID, existing, len(doc.Chunks))

	if err := p.vectors.Upsert(ctx, p.cfg.Collection, points); err != nil {
		return p.failDocument(ctx, file.RelPath, title, fmt.Errorf("failed to upsert vectors: %w", err))
	}

	record := &storage.DocumentRecord{
		ID:         docID,
		RelPath:    file.RelPath,
		Title:      title,
		Hash:       hashHex,
		Category:   category,
		ChunkCount: len(doc.Chunks),
		Status:     storage.StatusSucceeded,
	}
	if err := p.documents.Upsert(ctx, record); err != nil {
		return p.failDocument(ctx, file.RelPath, title, fmt.Errorf("failed to record document: %w", err))
	}

	logger.InfoContext(ctx, "processed document",
		"rel_path", file.RelPath, "chunks", len(doc.Chunks), "tokens", doc.TotalTokens, "category", category)

	return DocumentResult{
		RelPath:     file.RelPath,
		Title:       title,
		Category:    category,
		Status:      StatusSucceeded,
		Chunks:      len(doc.Chunks),
		Tokens:      doc.TotalTokens,
		Rows:        rows,
		TokenCounts: tokenCounts,
	}
}

// recordEmptyDocument catalogs a document whose extracted text is empty.
// This is a success with zero chunks, not a failure.
func (p *Pipeline) recordEmptyDocument(ctx context.Context, relPath, docID, title, hashHex string, existing *storage.DocumentRecord) DocumentResult {
	logger := contextutil.LoggerFromContext(ctx)

	p.deleteStalePoints(ctx, docID, existing, 0)

	record := &storage.DocumentRecord{
		ID:      docID,
		RelPath: relPath,
		Title:   title,
		Hash:    hashHex,
		Status:  storage.StatusSucceeded,
	}
	if err := p.documents.Upsert(ctx, record); err != nil {
		return p.failDocument(ctx, relPath, title, fmt.Errorf("failed to record document: %w", err))
	}

	logger.WarnContext(ctx, "document has no content", "rel_path", relPath)
	return DocumentResult{
		RelPath: relPath,
		Title:   title,
		Status:  StatusSucceeded,
	}
}

// deleteStalePoints removes points left behind when a document shrinks to
// fewer chunks than its previous ingest produced.
func (p *Pipeline) deleteStalePoints(ctx context.Context, docID string, existing *storage.DocumentRecord, newCount int) {
	if existing == nil || existing.ChunkCount <= newCount {
		return
	}

	stale := make([]string, 0, existing.ChunkCount-newCount)
	for i := newCount; i < existing.ChunkCount; i++ {
		stale = append(stale, pointID(docID, i))
	}

	if err := p.vectors.Delete(ctx, p.cfg.Collection, stale); err != nil {
		// Leftover points are overwritten or orphaned, never served as
		// fresh content; keep going.
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to delete stale vectors",
			"document_id", docID, "count", len(stale), "error", err)
	}
}

// failDocument records a document failure in the catalog and returns the
// failed result. The failure never propagates past the document.
func (p *Pipeline) failDocument(ctx context.Context, relPath, title string, err error) DocumentResult {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "failed to process document", "rel_path", relPath, "error", err)

	record := &storage.DocumentRecord{
		RelPath: relPath,
		Title:   title,
		Status:  storage.StatusFailed,
		Error:   err.Error(),
	}
	if upsertErr := p.documents.Upsert(ctx, record); upsertErr != nil {
		logger.ErrorContext(ctx, "failed to record document failure", "rel_path", relPath, "error", upsertErr)
	}

	return DocumentResult{
		RelPath: relPath,
		Title:   title,
		Status:  StatusFailed,
		Error:   err.Error(),
	}
}

// pointID derives a stable vector point ID from the document ID and chunk
// index, so re-ingesting a document overwrites its points in place.
func pointID(docID string, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", docID, chunkIndex))).String()
}
