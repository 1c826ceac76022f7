package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"grorent/models"
	"grorent/scraper"
	"grorent/storage"
)

// IngestService fronts the orchestrator with the result cache and feeds the
// Postgres store of record. The API and the scheduler both go through here.
type IngestService struct {
	orch  *scraper.Orchestrator
	cache *ResultCache
	pg    *storage.PostgresStore // nil when DATABASE_URL is unset
}

func NewIngestService(orch *scraper.Orchestrator, cache *ResultCache, pg *storage.PostgresStore) *IngestService {
	return &IngestService{orch: orch, cache: cache, pg: pg}
}

// GetListings serves the full agency set, from cache when fresh.
func (s *IngestService) GetListings(ctx context.Context) (*scraper.IngestResult, bool, error) {
	key := CacheKey(s.orch.AgencyIDs())
	if result, ok := s.cache.Get(key); ok {
		return result, true, nil
	}

	result, err := s.orch.RunAll(ctx)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(key, result)
	s.persist(ctx, result.Listings)
	return result, false, nil
}

// Refresh forces a full run, replacing whatever the cache holds.
func (s *IngestService) Refresh(ctx context.Context) (*scraper.IngestResult, error) {
	result, err := s.orch.RunAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(CacheKey(s.orch.AgencyIDs()), result)
	s.persist(ctx, result.Listings)
	return result, nil
}

// RefreshAgency runs a single agency. Single-agency results are not cached
// under the full-set key.
func (s *IngestService) RefreshAgency(ctx context.Context, agencyID string) (*scraper.IngestResult, error) {
	result, err := s.orch.RunAgency(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, result.Listings)
	return result, nil
}

func (s *IngestService) FlushCache() {
	s.cache.Flush()
}

func (s *IngestService) GetListing(ctx context.Context, id string) (*models.ListingRecord, error) {
	if s.pg == nil {
		return nil, fmt.Errorf("listing store not configured")
	}
	return s.pg.GetListingByID(ctx, id)
}

// persist writes listings through to Postgres, recording lifecycle events
// when a fingerprint reappears at a different price. Best effort; ingest
// results are already served from memory.
func (s *IngestService) persist(ctx context.Context, listings []models.Listing) {
	if s.pg == nil {
		return
	}

	for i := range listings {
		if err := s.processListing(ctx, &listings[i]); err != nil {
			log.Printf("Warning: persist %s: %v", listings[i].Fingerprint, err)
		}
	}
}

func (s *IngestService) processListing(ctx context.Context, l *models.Listing) error {
	existing, err := s.pg.GetListingByFingerprint(ctx, l.Fingerprint)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	if err := s.pg.UpsertListing(ctx, l); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	now := time.Now()
	switch {
	case existing == nil:
		event := &models.ListingEvent{
			Fingerprint: l.Fingerprint,
			EventType:   models.EventListed,
			Price:       l.Price,
			OccurredAt:  now,
		}
		if err := s.pg.CreateListingEvent(ctx, event); err != nil {
			return fmt.Errorf("listed event: %w", err)
		}
		if err := s.pg.CreatePricePoint(ctx, l.Fingerprint, l.Price, now); err != nil {
			return fmt.Errorf("price point: %w", err)
		}
	case existing.Price != l.Price:
		event := &models.ListingEvent{
			Fingerprint:   l.Fingerprint,
			EventType:     models.EventPriceChange,
			Price:         l.Price,
			PreviousPrice: existing.Price,
			OccurredAt:    now,
		}
		if err := s.pg.CreateListingEvent(ctx, event); err != nil {
			return fmt.Errorf("price event: %w", err)
		}
		if err := s.pg.CreatePricePoint(ctx, l.Fingerprint, l.Price, now); err != nil {
			return fmt.Errorf("price point: %w", err)
		}
	}

	// Only scraped images get mirrored; synthetic records carry stock URLs.
	if l.Provenance == models.ProvenanceScraped {
		if err := s.pg.EnqueueMedia(ctx, l.Fingerprint, l.ImageURLs); err != nil {
			return fmt.Errorf("enqueue media: %w", err)
		}
	}

	return nil
}
