package mock

import (
	"context"

	"github.com/ChallX/gamedex"
)

var _ gamedex.Scraper = (*Scraper)(nil)

// Scraper is a mock implementation of gamedex.Scraper.
type Scraper struct {
	ScrapeFn func(ctx context.Context, url string) (*gamedex.PageArtifact, error)
}

func (s *Scraper) Scrape(ctx context.Context, url string) (*gamedex.PageArtifact, error) {
	return s.ScrapeFn(ctx, url)
}
