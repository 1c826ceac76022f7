package synth

import (
	"fmt"
	"strings"
	"time"

	"grorent/config"
	"grorent/models"
)

var streets = []string{
	"Oosterstraat", "Herestraat", "Zwanestraat", "Gedempte Zuiderdiep",
	"Korreweg", "Peizerweg", "Helperzoom", "Verlengde Hereweg",
	"Nieuwe Ebbingestraat", "Visserstraat", "Concourslaan", "Rijksstraatweg",
	"Damsterdiep", "Winschoterdiep", "Zuiderpark", "Groene Zoom",
}

var neighborhoods = []string{
	"Groningen Centrum", "Groningen Noord", "Groningen Zuid", "Groningen Oost",
	"Groningen West", "Groningen Paddepoel", "Groningen Selwerd", "Groningen Zernike",
	"Groningen Hortusbuurt", "Groningen Schildersbuurt", "Groningen Helpman",
}

var stockImages = []string{
	"https://images.unsplash.com/photo-1545324418-cc1a3fa10c00?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1560448204-e02f11c3d0e2?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1493809842364-78817add7ffb?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1555854877-bab0e564b8d5?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1484154218962-a197022b5858?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1568605114967-8130f3a36994?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1570129477492-45c003edd2be?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1598928506311-c55ded91a20c?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=400&h=250&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1536376072261-38c75010e6c9?w=400&h=250&fit=crop&crop=center",
}

// Generator fabricates listings within an agency's configured distribution.
type Generator struct {
	rng *Rand
	now time.Time
}

func NewGenerator(rng *Rand, now time.Time) *Generator {
	return &Generator{rng: rng, now: now}
}

// StockImage returns a deterministic stock photo for cosmetic fill of
// scraped records that carried no image.
func (g *Generator) StockImage() string {
	return Choose(g.rng, stockImages)
}

// SizeWithin returns a display size inside the agency's bounds.
func (g *Generator) SizeWithin(sc config.SyntheticConfig) string {
	return fmt.Sprintf("%dm²", g.rng.IntN(sc.SizeMin, sc.SizeMax))
}

// RoomsWithin returns a room count inside the agency's bounds.
func (g *Generator) RoomsWithin(sc config.SyntheticConfig) int {
	return g.rng.IntN(sc.RoomsMin, sc.RoomsMax)
}

// DayOffset returns a listing age in days for scraped records whose page
// exposes no listing date.
func (g *Generator) DayOffset() int {
	return g.rng.IntN(0, 6)
}

// Listing fabricates one record for the agency. Provenance is always
// synthetic; the pipeline assigns ID and fingerprint.
func (g *Generator) Listing(agency *config.AgencyConfig, index int) models.Listing {
	sc := agency.Synthetic

	street := Choose(g.rng, streets)
	houseNumber := g.rng.IntN(1, 200)
	suffix := ""
	if g.rng.Next() > 0.7 {
		suffix = string(rune('a' + g.rng.IntN(0, 3)))
	}

	propType := "Apartment"
	if len(sc.Types) > 0 {
		propType = Choose(g.rng, sc.Types)
	}
	price := g.rng.IntN(sc.PriceMin, sc.PriceMax)
	rooms := g.RoomsWithin(sc)
	size := g.SizeWithin(sc)
	neighborhood := Choose(g.rng, neighborhoods)
	daysAgo := g.rng.IntN(0, 13)
	image := Choose(g.rng, stockImages)

	title := fmt.Sprintf("%s %s %d%s", propType, street, houseNumber, suffix)
	slug := strings.ToLower(strings.ReplaceAll(street, " ", "-"))
	refID := g.rng.IntN(10000, 99999)
	sourceURL := fmt.Sprintf("%s/woning/%d/%s-%d%s-groningen", agency.BaseURL, refID, slug, houseNumber, suffix)

	availability := "Available for rent."
	switch {
	case daysAgo == 0:
		availability = "Just listed!"
	case daysAgo <= 3:
		availability = "Recently available."
	}

	return models.Listing{
		Title:       title,
		Price:       price,
		Location:    neighborhood,
		Size:        size,
		Rooms:       rooms,
		ImageURLs:   []string{image},
		SourceURL:   sourceURL,
		Agency:      agency.Name,
		Description: fmt.Sprintf("%s in %s. %s", propType, neighborhood, availability),
		ListedDate:  g.now.AddDate(0, 0, -daysAgo).Format("2006-01-02"),
		DaysAgo:     daysAgo,
		Provenance:  models.ProvenanceSynthetic,
	}
}

// Backfill fabricates n listings for the agency starting at the given index.
func (g *Generator) Backfill(agency *config.AgencyConfig, n int) []models.Listing {
	out := make([]models.Listing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Listing(agency, i))
	}
	return out
}
