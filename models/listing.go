package models

import "time"

// Provenance marks whether a listing was extracted from a live agency page or
// fabricated by the synthetic backfill generator.
type Provenance string

const (
	ProvenanceScraped   Provenance = "scraped"
	ProvenanceSynthetic Provenance = "synthetic"
)

// Listing is the unit the ingestion pipeline produces. Immutable after
// normalization.
type Listing struct {
	ID          string     `json:"id" db:"id"`
	Fingerprint string     `json:"-" db:"fingerprint"`
	Title       string     `json:"title" db:"title"`
	Price       int        `json:"price" db:"price"` // EUR per month
	Location    string     `json:"location" db:"location"`
	Size        string     `json:"size" db:"size"` // display text, e.g. "43m²"
	Rooms       int        `json:"rooms" db:"rooms"`
	ImageURLs   []string   `json:"imageUrls" db:"image_urls"` // first is primary
	SourceURL   string     `json:"sourceUrl" db:"source_url"`
	Agency      string     `json:"agent" db:"agency"`
	Description string     `json:"description" db:"description"`
	ListedDate  string     `json:"listedDate" db:"listed_date"` // YYYY-MM-DD
	DaysAgo     int        `json:"daysAgo" db:"days_ago"`
	Provenance  Provenance `json:"provenance" db:"provenance"`
	ScrapedAt   time.Time  `json:"-" db:"scraped_at"`
}

// Image returns the primary image URL, or "" if none was found.
func (l *Listing) Image() string {
	if len(l.ImageURLs) == 0 {
		return ""
	}
	return l.ImageURLs[0]
}

// Candidate is a partially extracted listing as produced by an agency
// extractor, before normalization. Zero values mean "not found"; the
// normalizer fills cosmetic gaps and drops candidates that miss hard
// requirements.
type Candidate struct {
	Title     string
	Price     int
	Location  string
	Size      string
	Rooms     int
	ImageURL  string
	SourceURL string
	DaysAgo   int // -1 when the page exposes no listing age
}

// NewCandidate returns a Candidate with DaysAgo marked unknown.
func NewCandidate() Candidate {
	return Candidate{DaysAgo: -1}
}
