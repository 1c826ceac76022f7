package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"grorent/services"
	"grorent/storage"
)

// Server exposes the ingest pipeline over HTTP: the listings feed, health,
// and a small admin surface.
type Server struct {
	ingest    *services.IngestService
	store     *storage.SQLiteStore
	startedAt time.Time
}

func NewServer(ingest *services.IngestService, store *storage.SQLiteStore) *Server {
	return &Server{
		ingest:    ingest,
		store:     store,
		startedAt: time.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/scrape-properties", s.handleScrapeProperties)
	r.Get("/api/properties/{id}", s.handleGetProperty)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/admin/stats", s.handleStats)
	r.Delete("/api/admin/cache", s.handleFlushCache)

	return r
}
