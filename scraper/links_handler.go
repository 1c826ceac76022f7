package scraper

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"grorent/config"
	"grorent/models"
)

// LinksHandler covers agencies whose list page exposes little more than
// detail-page anchors (Gruno Verhuur). The address is reconstructed from the
// URL path; price, size and rooms come from the enclosing card when present.
type LinksHandler struct {
	cfg    *config.AgencyConfig
	client *http.Client
}

var grunoDetailPath = regexp.MustCompile(`/woningaanbod/huur/groningen/[^/]+/[^/?]+`)

func NewLinksHandler(cfg *config.AgencyConfig, client *http.Client) *LinksHandler {
	return &LinksHandler{cfg: cfg, client: client}
}

func (h *LinksHandler) ID() string {
	return h.cfg.ID
}

func (h *LinksHandler) Scrape(ctx context.Context) ([]models.Candidate, error) {
	doc, err := fetchDocument(ctx, h.client, h.cfg.ListURL())
	if err != nil {
		return nil, err
	}
	return h.extract(doc), nil
}

func (h *LinksHandler) extract(doc *goquery.Document) []models.Candidate {
	var candidates []models.Candidate
	seen := make(map[string]bool)

	doc.Find(`a[href*="/groningen/"]`).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !grunoDetailPath.MatchString(href) {
			return
		}

		fullURL := AbsoluteURL(h.cfg.BaseURL, href)
		if seen[fullURL] {
			return
		}
		seen[fullURL] = true

		address := AddressFromPath(href)
		if address == "" {
			log.Printf("[%s] skipping link with unparseable path: %s", h.cfg.ID, href)
			return
		}

		c := models.NewCandidate()
		c.Title = address
		c.SourceURL = fullURL
		c.Location = "Groningen Centrum"

		// The surrounding card, when the layout provides one, carries the
		// numeric fields.
		card := a.Closest("article, li, .property, .object, .woning")
		if card.Length() > 0 {
			text := CleanText(card.Text())
			if price, ok := ParsePrice(text); ok {
				c.Price = price
			}
			if size, ok := ParseSize(text); ok {
				c.Size = size
			}
			if rooms, ok := ParseRooms(text); ok {
				c.Rooms = rooms
			}
			c.ImageURL = firstImage(card, h.cfg.BaseURL)
		}

		candidates = append(candidates, c)
	})

	return candidates
}

// firstImage returns the first usable image inside a card, skipping logos
// and icons.
func firstImage(card *goquery.Selection, baseURL string) string {
	var imageURL string
	card.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, ok = img.Attr("data-src")
		}
		if !ok || src == "" {
			return true
		}
		lower := strings.ToLower(src)
		if strings.Contains(lower, "logo") || strings.Contains(lower, "icon") ||
			strings.Contains(lower, "placeholder") || len(src) < 15 {
			return true
		}
		imageURL = AbsoluteURL(baseURL, src)
		return false
	})
	return imageURL
}
