// Package slog provides logging decorators over the domain services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/ChallX/gamedex"
)

// Ensure LoggingScraper implements gamedex.Scraper.
var _ gamedex.Scraper = (*LoggingScraper)(nil)

// LoggingScraper wraps a Scraper with per-scrape logging.
type LoggingScraper struct {
	next   gamedex.Scraper
	logger *slog.Logger
}

// NewLoggingScraper creates a new LoggingScraper.
func NewLoggingScraper(next gamedex.Scraper, logger *slog.Logger) *LoggingScraper {
	return &LoggingScraper{next: next, logger: logger}
}

// Scrape delegates to the wrapped scraper and logs the outcome.
func (s *LoggingScraper) Scrape(ctx context.Context, url string) (*gamedex.PageArtifact, error) {
	begin := time.Now()
	artifact, err := s.next.Scrape(ctx, url)
	if err != nil {
		s.logger.Error("scrape",
			"url", url,
			"code", gamedex.ErrorCode(err),
			"duration", time.Since(begin),
			"err", gamedex.ErrorMessage(err),
		)
		return nil, err
	}
	s.logger.Info("scrape",
		"url", url,
		"bytes", len(artifact.TextContent),
		"images", len(artifact.Images),
		"links", len(artifact.Links),
		"duration", time.Since(begin),
	)
	return artifact, nil
}
