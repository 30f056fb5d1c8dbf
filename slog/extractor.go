package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/ChallX/gamedex"
)

// Ensure LoggingExtractor implements gamedex.RecordExtractor.
var _ gamedex.RecordExtractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps a RecordExtractor with per-extraction logging.
type LoggingExtractor struct {
	next   gamedex.RecordExtractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next gamedex.RecordExtractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the outcome.
func (e *LoggingExtractor) Extract(ctx context.Context, artifact *gamedex.PageArtifact, sourceURL string) (*gamedex.GameRecord, error) {
	begin := time.Now()
	rec, err := e.next.Extract(ctx, artifact, sourceURL)
	if err != nil {
		e.logger.Error("extract",
			"url", sourceURL,
			"code", gamedex.ErrorCode(err),
			"duration", time.Since(begin),
			"err", gamedex.ErrorMessage(err),
		)
		return nil, err
	}
	e.logger.Info("extract",
		"url", sourceURL,
		"name", rec.Name,
		"version", rec.Version,
		"links", len(rec.Links),
		"duration", time.Since(begin),
	)
	return rec, nil
}
