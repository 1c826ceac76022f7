package scraper

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"grorent/config"
	"grorent/models"
)

// WordpressHandler covers agencies running stock WordPress property themes
// (Nova Vastgoed, DC Wonen): one <article> per listing, detail link on the
// heading, price and area in the excerpt text.
type WordpressHandler struct {
	cfg    *config.AgencyConfig
	client *http.Client
}

func NewWordpressHandler(cfg *config.AgencyConfig, client *http.Client) *WordpressHandler {
	return &WordpressHandler{cfg: cfg, client: client}
}

func (h *WordpressHandler) ID() string {
	return h.cfg.ID
}

// maxArchivePages caps how deep pagination is followed per run.
const maxArchivePages = 3

func (h *WordpressHandler) Scrape(ctx context.Context) ([]models.Candidate, error) {
	doc, err := fetchDocument(ctx, h.client, h.cfg.ListURL())
	if err != nil {
		return nil, err
	}
	candidates := h.extract(doc)

	// Archive pagination: follow the theme's next link, politely.
	for page := 2; page <= maxArchivePages; page++ {
		next, ok := doc.Find("a.next.page-numbers, .pagination a.next").First().Attr("href")
		if !ok || next == "" {
			break
		}
		if h.cfg.RateLimitMS > 0 {
			select {
			case <-time.After(time.Duration(h.cfg.RateLimitMS) * time.Millisecond):
			case <-ctx.Done():
				return candidates, ctx.Err()
			}
		}
		doc, err = fetchDocument(ctx, h.client, AbsoluteURL(h.cfg.BaseURL, next))
		if err != nil {
			// Later pages failing should not discard what page one gave.
			log.Printf("[%s] pagination stopped at page %d: %v", h.cfg.ID, page, err)
			break
		}
		candidates = append(candidates, h.extract(doc)...)
	}

	return candidates, nil
}

func (h *WordpressHandler) extract(doc *goquery.Document) []models.Candidate {
	var candidates []models.Candidate
	seen := make(map[string]bool)

	posts := doc.Find("article")
	if posts.Length() == 0 {
		// Some themes wrap posts in list items instead.
		posts = doc.Find(".property-item, .post, li.property")
	}

	posts.Each(func(_ int, post *goquery.Selection) {
		a := post.Find("h1 a, h2 a, h3 a, .entry-title a").First()
		if a.Length() == 0 {
			a = post.Find("a[href]").First()
		}
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		if !h.isDetailLink(href) {
			return
		}

		fullURL := AbsoluteURL(h.cfg.BaseURL, href)
		if seen[fullURL] {
			return
		}
		seen[fullURL] = true

		c := models.NewCandidate()
		c.SourceURL = fullURL
		c.Title = CleanText(a.Text())
		if c.Title == "" {
			c.Title = CleanText(post.Find("h1, h2, h3").First().Text())
		}

		text := CleanText(post.Text())
		if price, ok := ParsePrice(text); ok {
			c.Price = price
		}
		if size, ok := ParseSize(text); ok {
			c.Size = size
		}
		if rooms, ok := ParseRooms(text); ok {
			c.Rooms = rooms
		}

		// WordPress themes often show the address line with a postal code.
		if loc := CleanText(post.Find(".location, .address, .entry-meta").First().Text()); loc != "" {
			c.Location = loc
		} else {
			c.Location = "Groningen"
		}

		c.ImageURL = firstImage(post, h.cfg.BaseURL)

		candidates = append(candidates, c)
	})

	return candidates
}

// isDetailLink keeps only same-site property permalinks and filters out
// category/tag navigation.
func (h *WordpressHandler) isDetailLink(href string) bool {
	if strings.Contains(href, "/category/") || strings.Contains(href, "/tag/") ||
		strings.Contains(href, "#") || strings.Contains(href, "?") {
		return false
	}
	if strings.HasPrefix(href, "http") && !strings.Contains(href, hostOf(h.cfg.BaseURL)) {
		return false
	}
	return true
}

func hostOf(baseURL string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}
