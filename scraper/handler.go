package scraper

import (
	"context"
	"net/http"

	"grorent/config"
	"grorent/models"
)

// Handler extracts listing candidates from one agency's public pages.
type Handler interface {
	ID() string
	Scrape(ctx context.Context) ([]models.Candidate, error)
}

// NewHandler selects the extraction strategy configured for the agency.
func NewHandler(cfg *config.AgencyConfig, client *http.Client) Handler {
	switch cfg.Handler {
	case "links":
		return NewLinksHandler(cfg, client)
	case "cards":
		return NewCardsHandler(cfg, client)
	case "wordpress":
		return NewWordpressHandler(cfg, client)
	case "browser":
		return NewBrowserHandler(cfg)
	default:
		return NewLinksHandler(cfg, client)
	}
}
