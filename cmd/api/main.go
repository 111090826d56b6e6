package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"embedpipe/internal/chunker"
	"embedpipe/internal/config"
	"embedpipe/internal/embedder"
	"embedpipe/internal/http"
	"embedpipe/internal/indexer"
	"embedpipe/internal/llm"
	"embedpipe/internal/service"
	"embedpipe/internal/storage"
	"embedpipe/internal/tokenizer"
	"embedpipe/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API embeds text through an OpenAI-compatible embeddings endpoint,
// ingests document corpora into a vector store, and serves semantic search
// over the ingested chunks.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Embedpipe API
//   description: |
//     Document embedding pipeline. Documents are split into token windows,
//     embedded chunk by chunk, classified, and uploaded to a vector store.
//     The API exposes ad-hoc embedding, corpus ingestion, semantic search,
//     and catalog statistics.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize the catalog database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	documentRepo := storage.NewDocumentRepo(db)
	runRepo := storage.NewRunRepo(db)

	ctx := context.Background()

	// Initialize the vector store backend
	var vectorStore vectorstore.VectorStore
	switch cfg.VectorBackend {
	case config.BackendMilvus:
		vectorStore, err = vectorstore.NewMilvusStore(ctx, cfg.MilvusAddr)
	default:
		vectorStore, err = vectorstore.NewQdrantStore(cfg.QdrantURL)
	}
	if err != nil {
		log.Fatalf("Failed to create vector store client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.VectorCollection, cfg.VectorSize); err != nil {
		log.Fatalf("Failed to ensure vector collection: %v", err)
	}
	slog.Info("Vector collection ready",
		"backend", cfg.VectorBackend, "collection", cfg.VectorCollection, "vector_size", cfg.VectorSize)

	// Shared client config for the OpenAI-compatible API
	llmCfg := llm.Config{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Timeout: cfg.RequestTimeout,
		RateRPS: cfg.RateLimitRPS,
		Retry:   llm.NewRetryPolicy(llm.RetryConfig{MaxRetries: cfg.RetryMaxAttempts, Jitter: llm.DefaultJitter}),
	}

	// Validate the embedding endpoint and configured vector size (fail-fast).
	// The client rejects any response whose dimension differs from VECTOR_SIZE,
	// so one probe call catches a misconfigured model before ingest does.
	embClient := llm.NewEmbeddingsClient(llmCfg, cfg.EmbeddingModel, cfg.VectorSize)
	if _, err := embClient.EmbedTexts(ctx, []string{"test"}); err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModel, "vector_size", cfg.VectorSize)

	// Completion client and category classifier
	completionClient := llm.NewClient(llmCfg, cfg.CompletionModel)
	classifier, err := llm.NewClassifier(completionClient, cfg.Categories)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}

	// Tokenizer, splitter, and document embedder
	codec, err := tokenizer.Get(cfg.TokenEncoding)
	if err != nil {
		log.Fatalf("Failed to load token encoding: %v", err)
	}
	splitter, err := chunker.New(codec, cfg.MaxChunkTokens)
	if err != nil {
		log.Fatalf("Failed to create splitter: %v", err)
	}
	docEmbedder := embedder.New(splitter, embClient)

	// Create the ingest pipeline
	pipeline := indexer.NewPipeline(
		indexer.Config{
			CorpusDir:  cfg.CorpusDir,
			Workers:    cfg.WorkerCount,
			Collection: cfg.VectorCollection,
		},
		docEmbedder,
		classifier,
		documentRepo,
		runRepo,
		vectorStore,
	)
	slog.Info("Ingest pipeline initialized",
		"corpus_dir", cfg.CorpusDir, "workers", cfg.WorkerCount, "categories", cfg.Categories)

	// Service layer
	embedService := service.NewEmbedService(docEmbedder, cfg.NormalizeCombined)
	searchService := service.NewSearchService(docEmbedder, vectorStore, cfg.VectorCollection)
	ingestService := service.NewIngestService(pipeline)
	statsService := service.NewStatsService(documentRepo, runRepo, vectorStore, cfg.VectorCollection, ingestService)

	// Create router with dependencies
	deps := &http.Deps{
		EmbedService:  embedService,
		IngestService: ingestService,
		SearchService: searchService,
		StatsService:  statsService,
		VectorStore:   vectorStore,
		Documents:     documentRepo,
		Collection:    cfg.VectorCollection,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("Embeddings configuration", "base_url", cfg.OpenAIBaseURL, "model", cfg.EmbeddingModel)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
