package scraper

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"grorent/config"
	"grorent/models"
	"grorent/synth"
)

func testAgency() *config.AgencyConfig {
	return &config.AgencyConfig{
		ID:       "gruno",
		Name:     "Gruno Verhuur",
		BaseURL:  "https://www.grunoverhuur.nl",
		PriceMin: 100,
		PriceMax: 5000,
		Synthetic: config.SyntheticConfig{
			Count:    40,
			PriceMin: 700,
			PriceMax: 1800,
			SizeMin:  25,
			SizeMax:  110,
			RoomsMin: 1,
			RoomsMax: 4,
			Types:    []string{"Appartement", "Studio", "Kamer"},
		},
	}
}

func testNormalizer(minListings int) *Normalizer {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	rng := synth.NewRand(synth.DateSeed(now))
	return NewNormalizer(synth.NewGenerator(rng, now), minListings, now)
}

func candidate(url string, price int) models.Candidate {
	c := models.NewCandidate()
	c.Title = "Oosterstraat 1"
	c.SourceURL = url
	c.Price = price
	c.Location = "Groningen Centrum"
	c.Size = "50m²"
	c.Rooms = 2
	c.ImageURL = "https://example.com/images/oosterstraat-1.jpg"
	c.DaysAgo = 1
	return c
}

func TestNormalizeDeduplicatesBySourceURL(t *testing.T) {
	agency := testAgency()
	n := testNormalizer(1)

	results := []AgencyResult{{
		Agency: agency,
		Candidates: []models.Candidate{
			candidate("https://www.grunoverhuur.nl/woningaanbod/huur/groningen/hoendiep/61-a", 973),
			candidate("https://www.grunoverhuur.nl/woningaanbod/huur/groningen/hoendiep/61-a", 973),
			candidate("https://www.grunoverhuur.nl/woningaanbod/huur/groningen/oosterstraat/12", 1200),
		},
	}}

	listings, stats := n.Normalize(results)
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if stats.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", stats.Duplicates)
	}
	if stats.Scraped != 2 {
		t.Fatalf("expected 2 scraped, got %d", stats.Scraped)
	}
}

func TestNormalizeDropsOutOfBandPrices(t *testing.T) {
	agency := testAgency()
	n := testNormalizer(1)

	results := []AgencyResult{{
		Agency: agency,
		Candidates: []models.Candidate{
			candidate("https://www.grunoverhuur.nl/a", 50),
			candidate("https://www.grunoverhuur.nl/b", 9000),
			candidate("https://www.grunoverhuur.nl/c", 1200),
		},
	}}

	listings, stats := n.Normalize(results)
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].Price != 1200 {
		t.Fatalf("expected price 1200, got %d", listings[0].Price)
	}
	if stats.OutOfBand != 2 {
		t.Fatalf("expected 2 out of band, got %d", stats.OutOfBand)
	}
}

func TestNormalizeDropsMissingPrice(t *testing.T) {
	agency := testAgency()
	n := testNormalizer(1)

	c := candidate("https://www.grunoverhuur.nl/a", 0)
	listings, stats := n.Normalize([]AgencyResult{{Agency: agency, Candidates: []models.Candidate{c}}})
	if len(listings) != 0 {
		t.Fatalf("expected candidate without price dropped, got %d listings", len(listings))
	}
	if stats.OutOfBand != 1 {
		t.Fatalf("expected 1 out of band, got %d", stats.OutOfBand)
	}
}

func TestNormalizeBackfillsToThreshold(t *testing.T) {
	agency := testAgency()
	n := testNormalizer(40)

	results := []AgencyResult{{Agency: agency, Candidates: nil}}

	listings, stats := n.Normalize(results)
	if len(listings) != 40 {
		t.Fatalf("expected 40 listings, got %d", len(listings))
	}
	if stats.Synthetic != 40 {
		t.Fatalf("expected 40 synthetic, got %d", stats.Synthetic)
	}

	sc := agency.Synthetic
	for _, l := range listings {
		if l.Provenance != models.ProvenanceSynthetic {
			t.Fatalf("expected synthetic provenance, got %q", l.Provenance)
		}
		if l.Price < sc.PriceMin || l.Price > sc.PriceMax {
			t.Fatalf("synthetic price %d outside [%d, %d]", l.Price, sc.PriceMin, sc.PriceMax)
		}
		if l.Rooms < sc.RoomsMin || l.Rooms > sc.RoomsMax {
			t.Fatalf("synthetic rooms %d outside [%d, %d]", l.Rooms, sc.RoomsMin, sc.RoomsMax)
		}
		size, err := strconv.Atoi(strings.TrimSuffix(l.Size, "m²"))
		if err != nil || size < sc.SizeMin || size > sc.SizeMax {
			t.Fatalf("synthetic size %q outside [%d, %d]", l.Size, sc.SizeMin, sc.SizeMax)
		}
		if l.ID == "" || l.Fingerprint == "" {
			t.Fatalf("synthetic listing missing identity: %+v", l)
		}
	}
}

func TestNormalizeBackfillDeterministicPerSeed(t *testing.T) {
	agency := testAgency()
	results := []AgencyResult{{Agency: agency, Candidates: nil}}

	first, _ := testNormalizer(40).Normalize(results)
	second, _ := testNormalizer(40).Normalize(results)

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title || first[i].Price != second[i].Price ||
			first[i].SourceURL != second[i].SourceURL {
			t.Fatalf("runs diverge at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestNormalizeFillsCosmeticFields(t *testing.T) {
	agency := testAgency()
	n := testNormalizer(1)

	c := models.NewCandidate()
	c.Title = "Hoendiep 61A, 9718TC Groningen"
	c.SourceURL = "https://www.grunoverhuur.nl/woningaanbod/huur/groningen/hoendiep/61-a"
	c.Price = 973

	listings, _ := n.Normalize([]AgencyResult{{Agency: agency, Candidates: []models.Candidate{c}}})
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}

	l := listings[0]
	if l.Provenance != models.ProvenanceScraped {
		t.Fatalf("cosmetic fill must not change provenance, got %q", l.Provenance)
	}
	if l.Price != 973 {
		t.Fatalf("price altered by fill: %d", l.Price)
	}
	if l.Size == "" || l.Rooms == 0 || l.Image() == "" {
		t.Fatalf("cosmetic fields not filled: %+v", l)
	}
	if l.DaysAgo < 0 || l.DaysAgo > 6 {
		t.Fatalf("filled daysAgo %d outside [0, 6]", l.DaysAgo)
	}
	if l.ListedDate == "" {
		t.Fatal("listed date not derived")
	}
	if !strings.Contains(l.Description, "Aangeboden door Gruno Verhuur") {
		t.Fatalf("unexpected description %q", l.Description)
	}
}
