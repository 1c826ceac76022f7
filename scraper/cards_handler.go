package scraper

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"grorent/config"
	"grorent/models"
)

// cardProfile captures where an agency's card layout keeps its fields.
type cardProfile struct {
	detailHref *regexp.Regexp // anchor must match to count as a listing
	slugTrim   *regexp.Regexp // stripped from the URL slug when deriving a title
}

var cardProfiles = map[string]cardProfile{
	"vandermeulen": {
		detailHref: regexp.MustCompile(`/huurwoningen/[a-z0-9-]+-h\d+/?$`),
		slugTrim:   regexp.MustCompile(`-groningen-h\d+/?$`),
	},
	"maxx": {
		detailHref: regexp.MustCompile(`/woning(?:-detail)?/[a-z0-9-]+`),
		slugTrim:   regexp.MustCompile(`-groningen/?$`),
	},
	"rotsvast": {
		detailHref: regexp.MustCompile(`/woningaanbod/[a-z0-9-]*\d{4,}`),
		slugTrim:   regexp.MustCompile(`-groningen/?$`),
	},
}

var neighborhoodRegex = regexp.MustCompile(`(?i)\b(centrum|noord|zuid|oost|west|helpman|grunobuurt|paddepoel|selwerd|zernike|hortusbuurt|schildersbuurt)\b`)

// CardsHandler covers agencies that render one card per listing with the
// price, size and room count inside the card (Van der Meulen, Maxx,
// Rotsvast).
type CardsHandler struct {
	cfg     *config.AgencyConfig
	client  *http.Client
	profile cardProfile
}

func NewCardsHandler(cfg *config.AgencyConfig, client *http.Client) *CardsHandler {
	profile, ok := cardProfiles[cfg.ID]
	if !ok {
		// Unknown cards agency: accept any same-host anchor with a numeric ref.
		profile = cardProfile{detailHref: regexp.MustCompile(`/[a-z0-9-]+\d+/?$`)}
	}
	return &CardsHandler{cfg: cfg, client: client, profile: profile}
}

func (h *CardsHandler) ID() string {
	return h.cfg.ID
}

func (h *CardsHandler) Scrape(ctx context.Context) ([]models.Candidate, error) {
	doc, err := fetchDocument(ctx, h.client, h.cfg.ListURL())
	if err != nil {
		return nil, err
	}
	return h.extract(doc), nil
}

func (h *CardsHandler) extract(doc *goquery.Document) []models.Candidate {
	var candidates []models.Candidate
	seen := make(map[string]bool)
	placeholderIdx := 0

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !h.profile.detailHref.MatchString(href) {
			return
		}
		if strings.Contains(href, "#") || strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}

		fullURL := AbsoluteURL(h.cfg.BaseURL, href)
		if seen[fullURL] {
			return
		}
		seen[fullURL] = true

		card := a.Closest("article, li, section, .property, .listing, .woning, .object")
		if card.Length() == 0 {
			card = a.Parent()
		}
		text := CleanText(card.Text())

		c := models.NewCandidate()
		c.SourceURL = fullURL

		c.Title = h.cardTitle(a, card, href)
		if c.Title == "" {
			placeholderIdx++
			c.Title = fmt.Sprintf("%s woning %d", h.cfg.Name, placeholderIdx)
		}

		if price, ok := ParsePrice(text); ok {
			c.Price = price
		}
		if size, ok := ParseSize(text); ok {
			c.Size = size
		}
		if rooms, ok := ParseRooms(text); ok {
			c.Rooms = rooms
		}

		if m := neighborhoodRegex.FindString(text); m != "" {
			c.Location = "Groningen " + strings.ToUpper(m[:1]) + strings.ToLower(m[1:])
		} else {
			c.Location = "Groningen"
		}

		c.ImageURL = firstImage(card, h.cfg.BaseURL)

		candidates = append(candidates, c)
	})

	return candidates
}

// cardTitle tries the card's heading, then the anchor's title attribute,
// then the URL slug.
func (h *CardsHandler) cardTitle(a, card *goquery.Selection, href string) string {
	if heading := CleanText(card.Find("h1, h2, h3, h4, .title, .address, .street").First().Text()); len(heading) > 5 {
		return heading
	}
	if title, ok := a.Attr("title"); ok && len(title) > 5 {
		return CleanText(title)
	}
	return h.titleFromSlug(href)
}

func (h *CardsHandler) titleFromSlug(href string) string {
	href = strings.TrimSuffix(href, "/")
	slug := href[strings.LastIndexByte(href, '/')+1:]
	if h.profile.slugTrim != nil {
		slug = h.profile.slugTrim.ReplaceAllString(slug, "")
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	title := strings.Join(words, " ")
	if len(title) < 3 {
		return ""
	}
	return title
}
