package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"grorent/config"
	"grorent/httputil"
	"grorent/models"
	"grorent/storage"
	"grorent/synth"
)

// Orchestrator runs the fetch→extract→normalize pipeline across all
// configured agencies. One agency's failure never suppresses another's
// results.
type Orchestrator struct {
	cfg      *config.Config
	store    *storage.SQLiteStore
	handlers map[string]Handler
	paused   atomic.Bool
}

// ErrPaused is returned by RunAll while ingestion is paused, so callers
// never mistake the skipped run for a legitimately empty result.
var ErrPaused = errors.New("ingestion is paused")

// IngestResult is the outcome of one full pipeline run.
type IngestResult struct {
	Listings       []models.Listing
	Sources        []string
	Stats          NormalizeStats
	AgenciesFailed int
	StartedAt      time.Time
	FinishedAt     time.Time
}

func NewOrchestrator(cfg *config.Config, store *storage.SQLiteStore, clients *httputil.Clients) *Orchestrator {
	handlers := make(map[string]Handler)
	for id, agencyCfg := range cfg.Agencies {
		handlers[id] = NewHandler(agencyCfg, clients.Scraping)
	}

	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		handlers: handlers,
	}
}

// RunAll ingests every agency concurrently and returns the normalized,
// deduplicated, backfilled result set.
func (o *Orchestrator) RunAll(ctx context.Context) (*IngestResult, error) {
	if o.paused.Load() {
		log.Println("Ingestion is paused, skipping run")
		return nil, ErrPaused
	}
	return o.run(ctx, o.cfg.AgencyOrder, o.cfg.Ingest.MinListings)
}

// RunAgency ingests a single agency. Backfill only engages when the agency
// yields nothing at all.
func (o *Orchestrator) RunAgency(ctx context.Context, agencyID string) (*IngestResult, error) {
	if _, ok := o.cfg.Agencies[agencyID]; !ok {
		return nil, fmt.Errorf("unknown agency: %s", agencyID)
	}
	return o.run(ctx, []string{agencyID}, 1)
}

func (o *Orchestrator) run(ctx context.Context, agencyIDs []string, minListings int) (*IngestResult, error) {
	started := time.Now()

	run := &models.IngestRun{
		StartedAt: started,
		Status:    models.RunStatusRunning,
	}
	var runID *int64
	if o.store != nil {
		id, err := o.store.CreateRun(run)
		if err != nil {
			log.Printf("Warning: failed to create run record: %v", err)
		} else {
			run.ID = id
			runID = &id
		}
	}

	// Settle-all fan-out: each agency gets a slot, failures stay local.
	results := make([]AgencyResult, len(agencyIDs))
	var wg sync.WaitGroup
	for i, id := range agencyIDs {
		agency := o.cfg.Agencies[id]
		handler := o.handlers[id]
		results[i].Agency = agency

		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			// Stagger launches so agencies on shared hosting don't see a
			// thundering herd from one IP.
			if delay := time.Duration(slot*o.cfg.Ingest.DelayMS) * time.Millisecond; delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					results[slot].Err = ctx.Err()
					return
				}
			}
			candidates, err := handler.Scrape(ctx)
			results[slot].Candidates = candidates
			results[slot].Err = err
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			o.log(runID, models.LogLevelError, fmt.Sprintf("scrape failed: %v", res.Err), res.Agency.ID)
			continue
		}
		o.log(runID, models.LogLevelInfo, fmt.Sprintf("%d candidates", len(res.Candidates)), res.Agency.ID)
	}

	now := time.Now()
	rng := synth.NewRand(synth.DateSeed(now))
	gen := synth.NewGenerator(rng, now)
	normalizer := NewNormalizer(gen, minListings, now)

	listings, stats := normalizer.Normalize(results)

	sources := make([]string, 0, len(agencyIDs))
	for _, id := range agencyIDs {
		sources = append(sources, o.cfg.Agencies[id].Name)
	}

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = models.RunStatusCompleted
	if failed > 0 {
		run.Status = models.RunStatusPartial
	}
	if failed == len(agencyIDs) {
		run.Status = models.RunStatusFailed
	}
	run.ListingsFound = stats.Scraped
	run.Duplicates = stats.Duplicates
	run.OutOfBand = stats.OutOfBand
	run.SyntheticCount = stats.Synthetic
	run.AgenciesFailed = failed
	run.ErrorsCount = failed

	if o.store != nil {
		if err := o.store.UpdateRun(run); err != nil {
			log.Printf("Warning: failed to update run record: %v", err)
		}
		o.updateStats(results, listings, run)
		if err := o.store.SaveSnapshots(run.ID, listings); err != nil {
			log.Printf("Warning: failed to save snapshots: %v", err)
		}
	}

	o.log(runID, models.LogLevelInfo,
		fmt.Sprintf("completed: %d scraped, %d synthetic, %d duplicates dropped, %d out of band, %d agencies failed",
			stats.Scraped, stats.Synthetic, stats.Duplicates, stats.OutOfBand, failed), "")

	return &IngestResult{
		Listings:       listings,
		Sources:        sources,
		Stats:          stats,
		AgenciesFailed: failed,
		StartedAt:      started,
		FinishedAt:     finished,
	}, nil
}

func (o *Orchestrator) updateStats(results []AgencyResult, listings []models.Listing, run *models.IngestRun) {
	perAgency := make(map[string][2]int) // scraped, synthetic
	for _, l := range listings {
		counts := perAgency[l.Agency]
		if l.Provenance == models.ProvenanceSynthetic {
			counts[1]++
		} else {
			counts[0]++
		}
		perAgency[l.Agency] = counts
	}
	for _, res := range results {
		counts := perAgency[res.Agency.Name]
		if err := o.store.UpdateAgencyStats(res.Agency.ID, res.Err == nil, counts[0], counts[1]); err != nil {
			log.Printf("Warning: failed to update stats for %s: %v", res.Agency.ID, err)
		}
	}
}

// HandleCommand reacts to pause and resume commands. Ingest commands are
// routed through the ingest service by the scheduler so the cache stays
// coherent.
func (o *Orchestrator) HandleCommand(cmd *models.Command) error {
	switch cmd.Command {
	case models.CmdPause:
		o.paused.Store(true)
		log.Println("Ingestion paused")
	case models.CmdResume:
		o.paused.Store(false)
		log.Println("Ingestion resumed")
	}

	return nil
}

func (o *Orchestrator) IsPaused() bool {
	return o.paused.Load()
}

func (o *Orchestrator) AgencyIDs() []string {
	return o.cfg.AgencyOrder
}

func (o *Orchestrator) log(runID *int64, level models.LogLevel, message, agencyID string) {
	if agencyID != "" {
		log.Printf("[%s] %s: %s", level, agencyID, message)
	} else {
		log.Printf("[%s] %s", level, message)
	}
	if o.store != nil {
		o.store.Log(runID, level, message, agencyID)
	}
}
