package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"

	"grorent/config"
	"grorent/models"
)

// BrowserHandler covers agencies that render their list pages client-side
// (Pararius). A headless Chromium loads the page, then the rendered DOM goes
// through the same goquery extraction as everything else.
type BrowserHandler struct {
	cfg         *config.AgencyConfig
	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	initialized bool
}

func NewBrowserHandler(cfg *config.AgencyConfig) *BrowserHandler {
	return &BrowserHandler{cfg: cfg}
}

func (h *BrowserHandler) ID() string {
	return h.cfg.ID
}

func (h *BrowserHandler) ensureBrowser() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return nil
	}

	var err error
	h.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	h.browser, err = h.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	h.initialized = true
	return nil
}

// Close shuts the browser down. Safe to call when never initialized.
func (h *BrowserHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.browser != nil {
		h.browser.Close()
	}
	if h.pw != nil {
		h.pw.Stop()
	}
	h.initialized = false
}

func (h *BrowserHandler) Scrape(ctx context.Context) ([]models.Candidate, error) {
	if err := h.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := h.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	listURL := h.cfg.ListURL()
	log.Printf("[%s] rendering %s", h.cfg.ID, listURL)

	if _, err := page.Goto(listURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(45000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, fmt.Errorf("goto %s: %w", listURL, err)
	}

	// Listing cards appear after the search results hydrate.
	if _, err := page.WaitForSelector("section.listing-search-item", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(15000),
	}); err != nil {
		log.Printf("[%s] listing cards never appeared: %v", h.cfg.ID, err)
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("page content: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	return h.extract(doc), nil
}

func (h *BrowserHandler) extract(doc *goquery.Document) []models.Candidate {
	var candidates []models.Candidate
	seen := make(map[string]bool)

	doc.Find("section.listing-search-item").Each(func(_ int, card *goquery.Selection) {
		a := card.Find("a.listing-search-item__link--title").First()
		href, ok := a.Attr("href")
		if !ok || href == "" {
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
		c.Location = CleanText(card.Find(".listing-search-item__sub-title").First().Text())
		if c.Location == "" {
			c.Location = "Groningen"
		}

		if price, ok := ParsePrice(card.Find(".listing-search-item__price").Text()); ok {
			c.Price = price
		}
		features := CleanText(card.Find(".illustrated-features").Text())
		if size, ok := ParseSize(features); ok {
			c.Size = size
		}
		if rooms, ok := ParseRooms(features); ok {
			c.Rooms = rooms
		}
		c.ImageURL = firstImage(card, h.cfg.BaseURL)

		candidates = append(candidates, c)
	})

	return candidates
}
