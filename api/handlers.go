package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"grorent/models"
	"grorent/scraper"
)

type listingsResponse struct {
	Properties []models.Listing `json:"properties"`
	Count      int              `json:"count"`
	Timestamp  string           `json:"timestamp"`
	Sources    []string         `json:"sources"`
	Cached     bool             `json:"cached"`
}

type errorResponse struct {
	Error      string           `json:"error"`
	Message    string           `json:"message"`
	Properties []models.Listing `json:"properties"`
	Count      int              `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: encode response: %v", err)
	}
}

// handleScrapeProperties serves the aggregated feed. Partial agency
// failures still produce a 200; only a total pipeline failure is a 500.
func (s *Server) handleScrapeProperties(w http.ResponseWriter, r *http.Request) {
	result, cached, err := s.ingest.GetListings(r.Context())
	if errors.Is(err, scraper.ErrPaused) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:      "ingestion_paused",
			Message:    err.Error(),
			Properties: []models.Listing{},
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:      "scrape_failed",
			Message:    err.Error(),
			Properties: []models.Listing{},
		})
		return
	}

	properties := result.Listings
	if properties == nil {
		properties = []models.Listing{}
	}

	writeJSON(w, http.StatusOK, listingsResponse{
		Properties: properties,
		Count:      len(properties),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Sources:    result.Sources,
		Cached:     cached,
	})
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.ingest.GetListing(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if record == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "listing not found"})
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{}

	if s.store != nil {
		runs, err := s.store.GetRecentRuns(20)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		stats, err := s.store.GetAgencyStats()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		resp["runs"] = runs
		resp["agencies"] = stats
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlushCache(w http.ResponseWriter, r *http.Request) {
	s.ingest.FlushCache()
	log.Println("Cache flushed via admin endpoint")
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}
