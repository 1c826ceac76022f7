package scraper

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"grorent/config"
	"grorent/identity"
	"grorent/models"
	"grorent/synth"
)

// AgencyResult is the raw outcome of one agency's extraction pass.
type AgencyResult struct {
	Agency     *config.AgencyConfig
	Candidates []models.Candidate
	Err        error
}

// NormalizeStats counts what the normalizer kept, dropped and fabricated.
type NormalizeStats struct {
	Scraped    int
	Duplicates int
	OutOfBand  int
	Synthetic  int
}

// Normalizer converts candidates into final listings: price-band filter,
// URL dedup, cosmetic fill, and synthetic backfill when the batch starves.
type Normalizer struct {
	gen         *synth.Generator
	minListings int
	now         time.Time
}

func NewNormalizer(gen *synth.Generator, minListings int, now time.Time) *Normalizer {
	return &Normalizer{gen: gen, minListings: minListings, now: now}
}

// Normalize processes agency results in their given order. Output order
// follows agency order, scraped records before backfill.
func (n *Normalizer) Normalize(results []AgencyResult) ([]models.Listing, NormalizeStats) {
	var out []models.Listing
	var stats NormalizeStats
	seen := make(map[string]bool)

	for _, res := range results {
		for i, c := range res.Candidates {
			listing, ok := n.normalizeOne(res.Agency, c, i)
			if !ok {
				stats.OutOfBand++
				continue
			}
			if seen[listing.SourceURL] {
				stats.Duplicates++
				continue
			}
			seen[listing.SourceURL] = true
			out = append(out, listing)
			stats.Scraped++
		}
	}

	// Starvation: backfill per agency until the display threshold holds.
	// Generated URLs can collide with seen ones, so a few rounds may run.
	for rounds := 0; len(out) < n.minListings && rounds < 10; rounds++ {
		for _, res := range results {
			if len(out) >= n.minListings {
				break
			}
			for _, listing := range n.gen.Backfill(res.Agency, res.Agency.Synthetic.Count) {
				if seen[listing.SourceURL] {
					continue
				}
				seen[listing.SourceURL] = true
				n.stamp(&listing, res.Agency)
				out = append(out, listing)
				stats.Synthetic++
				if len(out) >= n.minListings {
					break
				}
			}
		}
	}

	return out, stats
}

// normalizeOne applies the per-candidate rules. Returns false when the
// candidate must be dropped (price missing or outside the agency band).
func (n *Normalizer) normalizeOne(agency *config.AgencyConfig, c models.Candidate, idx int) (models.Listing, bool) {
	if c.Price < agency.PriceMin || c.Price > agency.PriceMax {
		return models.Listing{}, false
	}

	title := c.Title
	if title == "" {
		title = fmt.Sprintf("%s listing %d", agency.Name, idx+1)
	}
	location := c.Location
	if location == "" {
		location = "Groningen"
	}

	size := c.Size
	if size == "" {
		size = n.gen.SizeWithin(agency.Synthetic)
	}
	rooms := c.Rooms
	if rooms == 0 {
		rooms = n.gen.RoomsWithin(agency.Synthetic)
	}
	image := c.ImageURL
	if image == "" {
		image = n.gen.StockImage()
	}

	daysAgo := c.DaysAgo
	if daysAgo < 0 {
		daysAgo = n.gen.DayOffset()
	}

	listing := models.Listing{
		Title:       title,
		Price:       c.Price,
		Location:    location,
		Size:        size,
		Rooms:       rooms,
		ImageURLs:   []string{image},
		SourceURL:   c.SourceURL,
		Agency:      agency.Name,
		Description: fmt.Sprintf("%s - Aangeboden door %s", title, agency.Name),
		ListedDate:  n.now.AddDate(0, 0, -daysAgo).Format("2006-01-02"),
		DaysAgo:     daysAgo,
		Provenance:  models.ProvenanceScraped,
	}
	n.stamp(&listing, agency)
	return listing, true
}

func (n *Normalizer) stamp(l *models.Listing, agency *config.AgencyConfig) {
	l.ID = uuid.New().String()
	l.Fingerprint = identity.Fingerprint(agency.ID, l.Title, l.Location)
	l.ScrapedAt = n.now
}
