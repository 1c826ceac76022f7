package scraper

import (
	"strings"
	"testing"

	"grorent/config"
)

func TestWordpressHandlerExtract(t *testing.T) {
	cfg := &config.AgencyConfig{
		ID:       "nova",
		Name:     "Nova Vastgoed",
		Handler:  "wordpress",
		BaseURL:  "https://www.novavastgoed.com",
		ListPath: "/aanbod/",
	}
	handler := NewWordpressHandler(cfg, nil)
	doc := fixtureDoc(t, "nova_list.html")

	candidates := handler.extract(doc)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Title != "Korreweg 140, Groningen" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.Price != 1150 {
		t.Fatalf("expected price 1150, got %d", first.Price)
	}
	if first.Size != "68m²" {
		t.Fatalf("expected size 68m², got %q", first.Size)
	}
	if first.Rooms != 2 {
		t.Fatalf("expected 2 rooms, got %d", first.Rooms)
	}
	if first.SourceURL != "https://www.novavastgoed.com/woning/korreweg-140/" {
		t.Fatalf("unexpected source URL %q", first.SourceURL)
	}
	if !strings.Contains(first.Location, "9714 AH") {
		t.Fatalf("unexpected location %q", first.Location)
	}
	if strings.Contains(first.ImageURL, "logo") {
		t.Fatalf("logo leaked into image: %q", first.ImageURL)
	}

	second := candidates[1]
	if second.Price != 750 || second.Rooms != 1 {
		t.Fatalf("unexpected second candidate: %+v", second)
	}
}

func TestWordpressHandlerSkipsCategoryLinks(t *testing.T) {
	cfg := &config.AgencyConfig{
		ID:      "nova",
		Name:    "Nova Vastgoed",
		BaseURL: "https://www.novavastgoed.com",
	}
	handler := NewWordpressHandler(cfg, nil)

	if handler.isDetailLink("https://www.novavastgoed.com/category/aanbod/") {
		t.Fatal("category link accepted")
	}
	if handler.isDetailLink("https://ander-kantoor.nl/woning/x/") {
		t.Fatal("cross-host link accepted")
	}
	if !handler.isDetailLink("https://www.novavastgoed.com/woning/korreweg-140/") {
		t.Fatal("detail link rejected")
	}
}
