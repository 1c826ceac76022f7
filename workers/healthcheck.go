package workers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"grorent/httputil"
	"grorent/models"
	"grorent/scraper"
	"grorent/storage"
)

// HealthcheckWorker revisits persisted listings that recent runs stopped
// returning, marks vanished ones delisted, and picks up price changes on
// the ones still live.
type HealthcheckWorker struct {
	store      *storage.PostgresStore
	httpClient *http.Client
	staleAfter time.Duration
	triggerCh  chan struct{}
	logFunc    LogFunc
}

func NewHealthcheckWorker(store *storage.PostgresStore, staleAfter time.Duration) *HealthcheckWorker {
	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &HealthcheckWorker{
		store:      store,
		httpClient: client,
		staleAfter: staleAfter,
		triggerCh:  make(chan struct{}, 1),
		logFunc:    NoOpLogger,
	}
}

func (w *HealthcheckWorker) SetLogger(fn LogFunc) {
	w.logFunc = fn
}

// Trigger causes the worker to run a batch immediately.
func (w *HealthcheckWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run starts the healthcheck loop.
func (w *HealthcheckWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Healthcheck worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		case <-w.triggerCh:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *HealthcheckWorker) processBatch(ctx context.Context, batchSize int) {
	cutoff := time.Now().Add(-w.staleAfter)
	records, err := w.store.GetStaleActiveListings(ctx, cutoff, batchSize)
	if err != nil {
		log.Printf("Healthcheck: query error: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	log.Printf("Healthcheck: checking %d stale listings", len(records))

	var delisted, repriced int
	for i := range records {
		r := &records[i]

		result := w.Check(ctx, r.SourceURL)
		if result.Error != nil {
			log.Printf("Healthcheck: %s: %v", r.SourceURL, result.Error)
			continue
		}

		if !result.IsLive {
			w.markDelisted(ctx, r)
			delisted++
			continue
		}

		if result.CurrentPrice > 0 && result.CurrentPrice != r.Price {
			w.recordPriceChange(ctx, r, result.CurrentPrice)
			repriced++
		}
	}

	w.logFunc(models.LogLevelInfo,
		fmt.Sprintf("healthcheck batch: %d checked, %d delisted, %d repriced", len(records), delisted, repriced), "")
}

// CheckResult is the outcome of revisiting one listing URL.
type CheckResult struct {
	IsLive       bool
	StatusCode   int
	CurrentPrice int
	Error        error
}

// Check probes a listing URL. HEAD settles liveness cheaply; a full GET
// only happens for live pages, to re-read the price.
func (w *HealthcheckWorker) Check(ctx context.Context, listingURL string) CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, listingURL, nil)
	if err != nil {
		return CheckResult{Error: err}
	}
	req.Header.Set("User-Agent", httputil.UserAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return CheckResult{Error: err}
	}
	resp.Body.Close()

	result := CheckResult{StatusCode: resp.StatusCode}

	switch resp.StatusCode {
	case http.StatusOK:
		result.IsLive = true
	case http.StatusNotFound, http.StatusGone:
		return result
	case http.StatusMovedPermanently, http.StatusFound:
		// Agencies redirect sold listings back to their search page.
		location := resp.Header.Get("Location")
		result.IsLive = !isDelistRedirect(location)
		if !result.IsLive {
			return result
		}
	default:
		result.IsLive = true
	}

	if price, ok := w.fetchPrice(ctx, listingURL); ok {
		result.CurrentPrice = price
	}
	return result
}

// fetchPrice re-reads the detail page and extracts the asking price.
func (w *HealthcheckWorker) fetchPrice(ctx context.Context, listingURL string) (int, bool) {
	req, err := httputil.NewPageRequest(ctx, listingURL)
	if err != nil {
		return 0, false
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, false
	}

	// Price-bearing elements first, whole page as a fallback.
	for _, sel := range []string{".price", ".object-price", ".listing-search-item__price", "body"} {
		if price, ok := scraper.ParsePrice(doc.Find(sel).First().Text()); ok {
			return price, true
		}
	}
	return 0, false
}

func (w *HealthcheckWorker) markDelisted(ctx context.Context, r *models.ListingRecord) {
	now := time.Now()
	if err := w.store.MarkDelisted(ctx, r.Fingerprint, now); err != nil {
		log.Printf("Healthcheck: mark delisted %s: %v", r.Fingerprint, err)
		return
	}
	event := &models.ListingEvent{
		Fingerprint: r.Fingerprint,
		EventType:   models.EventDelisted,
		Price:       r.Price,
		OccurredAt:  now,
	}
	if err := w.store.CreateListingEvent(ctx, event); err != nil {
		log.Printf("Healthcheck: delist event %s: %v", r.Fingerprint, err)
	}
	log.Printf("Healthcheck: delisted %s (%s)", r.Title, r.Agency)
}

func (w *HealthcheckWorker) recordPriceChange(ctx context.Context, r *models.ListingRecord, price int) {
	now := time.Now()
	if err := w.store.UpdateListingPrice(ctx, r.Fingerprint, price); err != nil {
		log.Printf("Healthcheck: update price %s: %v", r.Fingerprint, err)
		return
	}
	event := &models.ListingEvent{
		Fingerprint:   r.Fingerprint,
		EventType:     models.EventPriceChange,
		Price:         price,
		PreviousPrice: r.Price,
		OccurredAt:    now,
	}
	if err := w.store.CreateListingEvent(ctx, event); err != nil {
		log.Printf("Healthcheck: price event %s: %v", r.Fingerprint, err)
	}
	if err := w.store.CreatePricePoint(ctx, r.Fingerprint, price, now); err != nil {
		log.Printf("Healthcheck: price point %s: %v", r.Fingerprint, err)
	}
	log.Printf("Healthcheck: price change %s: %d -> %d", r.Title, r.Price, price)
}

// isDelistRedirect reports whether a redirect target looks like a listing
// overview rather than the listing itself.
func isDelistRedirect(location string) bool {
	if location == "" {
		return false
	}
	lower := strings.ToLower(location)
	for _, marker := range []string{"/woningaanbod", "/aanbod", "/huurwoningen", "/search", "/404"} {
		if strings.HasSuffix(strings.TrimRight(lower, "/"), strings.TrimRight(marker, "/")) {
			return true
		}
	}
	return false
}
