package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grorent/config"
	"grorent/httputil"
	"grorent/models"
	"grorent/scraper"
	"grorent/services"
)

// testServer wires a server around an empty agency set with a pre-seeded
// cache, so handlers can be exercised without network or databases.
func testServer(t *testing.T, cached *scraper.IngestResult) *Server {
	t.Helper()

	cfg := &config.Config{
		Agencies: map[string]*config.AgencyConfig{},
		Cache:    config.CacheConfig{TTL: time.Minute},
	}
	orch := scraper.NewOrchestrator(cfg, nil, httputil.NewClients())
	cache := services.NewResultCache(cfg.Cache.TTL)
	if cached != nil {
		cache.Set(services.CacheKey(nil), cached)
	}
	ingest := services.NewIngestService(orch, cache, nil)

	return NewServer(ingest, nil)
}

func TestScrapePropertiesServesCachedResult(t *testing.T) {
	result := &scraper.IngestResult{
		Listings: []models.Listing{
			{
				ID:         "a1",
				Title:      "Hoendiep 61A, 9718TC Groningen",
				Price:      973,
				Agency:     "Gruno Verhuur",
				SourceURL:  "https://www.grunoverhuur.nl/woningaanbod/huur/groningen/hoendiep/61-a",
				Provenance: models.ProvenanceScraped,
			},
		},
		Sources: []string{"Gruno Verhuur"},
	}
	server := testServer(t, result)

	req := httptest.NewRequest(http.MethodGet, "/api/scrape-properties", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Properties []models.Listing `json:"properties"`
		Count      int              `json:"count"`
		Timestamp  string           `json:"timestamp"`
		Sources    []string         `json:"sources"`
		Cached     bool             `json:"cached"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !resp.Cached {
		t.Fatal("expected cached=true")
	}
	if resp.Count != 1 || len(resp.Properties) != 1 {
		t.Fatalf("count = %d, properties = %d", resp.Count, len(resp.Properties))
	}
	if resp.Properties[0].Price != 973 {
		t.Fatalf("price = %d", resp.Properties[0].Price)
	}
	if resp.Properties[0].Agency != "Gruno Verhuur" {
		t.Fatalf("agent = %q", resp.Properties[0].Agency)
	}
	if resp.Timestamp == "" || len(resp.Sources) != 1 {
		t.Fatalf("incomplete envelope: %+v", resp)
	}
}

func TestScrapePropertiesEmptyPipeline(t *testing.T) {
	// No agencies configured and nothing cached: still a 200 with an
	// empty array, never null.
	server := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/scrape-properties", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(resp["properties"]) != "[]" {
		t.Fatalf("properties = %s, want []", resp["properties"])
	}
	if string(resp["count"]) != "0" {
		t.Fatalf("count = %s", resp["count"])
	}
}

func TestScrapePropertiesWhilePaused(t *testing.T) {
	cfg := &config.Config{
		Agencies: map[string]*config.AgencyConfig{},
		Cache:    config.CacheConfig{TTL: time.Minute},
	}
	orch := scraper.NewOrchestrator(cfg, nil, httputil.NewClients())
	if err := orch.HandleCommand(&models.Command{Command: models.CmdPause}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	cache := services.NewResultCache(cfg.Cache.TTL)
	server := NewServer(services.NewIngestService(orch, cache, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/scrape-properties", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(resp["properties"]) != "[]" {
		t.Fatalf("properties = %s, want []", resp["properties"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("status field = %v", resp["status"])
	}
}

func TestFlushCacheEndpoint(t *testing.T) {
	result := &scraper.IngestResult{
		Listings: []models.Listing{{ID: "a1", Title: "Oosterstraat 24", Price: 1395}},
		Sources:  []string{"Gruno Verhuur"},
	}
	server := testServer(t, result)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/cache", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	// The next feed request must miss the cache; with no agencies it
	// resolves to an empty, uncached result.
	req = httptest.NewRequest(http.MethodGet, "/api/scrape-properties", nil)
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	var resp struct {
		Cached bool `json:"cached"`
		Count  int  `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Cached {
		t.Fatal("expected cache miss after flush")
	}
	if resp.Count != 0 {
		t.Fatalf("count = %d after flush with no agencies", resp.Count)
	}
}
