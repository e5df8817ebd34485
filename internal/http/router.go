package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"claimsight/internal/handlers"
	"claimsight/internal/storage"
	"claimsight/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Documents   storage.DocumentStore
	Queries     storage.QueryStore
	Analyzer    handlers.Analyzer
	Ingestor    handlers.Ingestor
	VectorStore vectorstore.VectorStore
	Generator   handlers.ModeReporter
	Collection  string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	queryHandler := handlers.NewQueryHandler(deps.Analyzer)
	ingestHandler := handlers.NewIngestHandler(deps.Documents, deps.Ingestor)
	documentsHandler := handlers.NewDocumentsHandler(deps.Documents)
	queriesHandler := handlers.NewQueriesHandler(deps.Queries)
	reportHandler := handlers.NewReportHandler(deps.Documents, deps.Queries)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Generator, deps.Collection)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Method(http.MethodGet, "/query", queryHandler)
		r.Method(http.MethodPost, "/ingest", ingestHandler)
		r.Method(http.MethodGet, "/report", reportHandler)

		r.Get("/documents", documentsHandler.List)
		r.Post("/documents", documentsHandler.Create)
		r.Get("/documents/{id}", documentsHandler.Get)
		r.Put("/documents/{id}", documentsHandler.Update)
		r.Delete("/documents/{id}", documentsHandler.Delete)
		r.Get("/documents/{id}/queries", queriesHandler.ByDocument)

		r.Get("/queries", queriesHandler.List)
	})

	return r
}
