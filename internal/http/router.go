package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"embedpipe/internal/handlers"
	"embedpipe/internal/service"
	"embedpipe/internal/storage"
	"embedpipe/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	EmbedService  service.EmbedService
	IngestService service.IngestService
	SearchService service.SearchService
	StatsService  service.StatsService

	// Health checks talk to the stores directly.
	VectorStore vectorstore.VectorStore
	Documents   storage.DocumentStore
	Collection  string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(RequestLogger)
	r.Use(CORS)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/embed", handlers.NewEmbedHandler(deps.EmbedService))
		r.Method(http.MethodPost, "/ingest", handlers.NewIngestHandler(deps.IngestService))
		r.Method(http.MethodPost, "/search", handlers.NewSearchHandler(deps.SearchService))
		r.Method(http.MethodGet, "/stats", handlers.NewStatsHandler(deps.StatsService))
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.VectorStore, deps.Documents, deps.Collection))
	})

	return r
}
