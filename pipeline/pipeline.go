// Package pipeline orchestrates the scrape-extract-reconcile-persist flow
// for one forum listing at a time, streaming progress to subscribers.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChallX/gamedex"
	"github.com/cespare/xxhash/v2"
)

// totalSteps is the number of progress stages one run reports.
const totalSteps = 6

// Pipeline runs the full flow for one thread URL: scrape, structured
// extraction, reconciliation against the store, size resolution, and
// persistence. Each run emits an ordered progress stream and ends with
// exactly one terminal event.
type Pipeline struct {
	Scraper     gamedex.Scraper
	Session     gamedex.SessionManager
	Extractor   gamedex.RecordExtractor
	Reconciler  *Reconciler
	Sizes       *SizeResolver
	Records     gamedex.RecordService
	Broker      *Broker
	Logger      *slog.Logger
	RetryDelays []time.Duration
}

// Run processes one URL end to end. The returned record is non-nil
// whenever extraction succeeded, including alongside a persistence error
// so the caller still has the data. Progress events are published under
// the correlation ID for the lifetime of the run.
func (p *Pipeline) Run(ctx context.Context, url, correlationID string) (*gamedex.GameRecord, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("url", url, "correlation_id", correlationID)
	defer p.closeStream(correlationID)

	start := time.Now()

	// Stage 1: scrape.
	p.publish(correlationID, gamedex.NewProgressEvent(1, totalSteps, "Scraping page"))
	if p.Session != nil {
		p.Session.EnsureAuthenticated(ctx)
	}
	artifact, err := ScrapeWithRetry(ctx, p.Scraper, p.Session, url, p.RetryDelays)
	if err != nil {
		return nil, p.fail(correlationID, logger, err)
	}
	hash := contentHash(artifact.TextContent)

	// An unchanged page needs no extraction-service call. The URL-only
	// lookup happens before stage 2 so the short-circuit actually saves
	// the call; a changed page reuses the match for stage 3.
	urlMatch, err := p.Reconciler.FindExisting(ctx, &gamedex.GameRecord{SourceURL: url})
	if err != nil {
		logger.Warn("existing-record lookup failed", "error", err)
		urlMatch = nil
	}
	if urlMatch != nil && urlMatch.Record.ContentHash == hash {
		logger.Info("content unchanged, refreshing sizes and timestamp",
			"number", urlMatch.Record.Number)
		return p.refresh(ctx, correlationID, logger, urlMatch.Record)
	}

	// Stage 2: structured extraction.
	p.publish(correlationID, gamedex.NewProgressEvent(2, totalSteps, "Extracting game data"))
	candidate, err := p.Extractor.Extract(ctx, artifact, url)
	if err != nil {
		return nil, p.fail(correlationID, logger, err)
	}
	candidate.ContentHash = hash

	// Stage 3: reconcile against the store.
	p.publish(correlationID, gamedex.NewProgressEvent(3, totalSteps, "Checking for existing record"))
	match := urlMatch
	if match == nil {
		match, err = p.Reconciler.FindExisting(ctx, candidate)
		if err != nil {
			// Degrade to treating the candidate as new rather than aborting.
			logger.Warn("existing-record lookup failed", "error", err)
			match = nil
		}
	}

	// Stage 4: resolve download sizes.
	p.publish(correlationID, gamedex.NewProgressEvent(4, totalSteps, "Resolving download sizes"))
	report, err := p.Sizes.Resolve(ctx, candidate.Links)
	if err != nil || report == nil {
		if err != nil {
			logger.Warn("size resolution failed", "error", err)
		}
		report = gamedex.ZeroSizeReport()
	}
	applySizes(candidate, report)

	// Stage 5: persist.
	p.publish(correlationID, gamedex.NewProgressEvent(5, totalSteps, "Saving record"))
	record, err := p.persist(ctx, match, candidate)
	if err != nil {
		perr := gamedex.Errorf(gamedex.EPERSISTENCE, "saving record: %v", err)
		p.publishError(correlationID, perr)
		logger.Error("persistence failed", "error", err)
		// The extracted record survives the failed write.
		return record, perr
	}
	p.Reconciler.Observe(record.SourceURL)

	logger.Info("pipeline completed",
		"number", record.Number,
		"name", record.Name,
		"duration", time.Since(start))
	p.complete(correlationID, record, fmt.Sprintf("Saved record #%d", record.Number))
	return record, nil
}

// refresh handles the unchanged-content path: the stored record keeps
// its extracted fields, but download sizes and the extraction timestamp
// are brought up to date.
func (p *Pipeline) refresh(ctx context.Context, correlationID string, logger *slog.Logger, rec *gamedex.GameRecord) (*gamedex.GameRecord, error) {
	p.publish(correlationID, gamedex.NewProgressEvent(4, totalSteps, "Resolving download sizes"))
	report, err := p.Sizes.Resolve(ctx, rec.Links)
	if err != nil {
		logger.Warn("size resolution failed", "error", err)
	}
	// Keep the previously resolved sizes when every probe came up empty.
	if report != nil && report.TotalBytes > 0 {
		applySizes(rec, report)
	}

	p.publish(correlationID, gamedex.NewProgressEvent(5, totalSteps, "Saving record"))
	rec.ExtractedAt = time.Now().UTC()
	if err := p.Records.UpdateRecord(ctx, rec.Number, rec); err != nil {
		perr := gamedex.Errorf(gamedex.EPERSISTENCE, "saving record: %v", err)
		p.publishError(correlationID, perr)
		logger.Error("persistence failed", "error", err)
		return rec, perr
	}

	p.complete(correlationID, rec, "Listing unchanged since last scrape")
	return rec, nil
}

// persist creates a new record or overwrites the matched one.
func (p *Pipeline) persist(ctx context.Context, match *Match, candidate *gamedex.GameRecord) (*gamedex.GameRecord, error) {
	candidate.ExtractedAt = time.Now().UTC()

	if match == nil {
		if err := p.Records.CreateRecord(ctx, candidate); err != nil {
			return candidate, err
		}
		return candidate, nil
	}

	merged := p.Reconciler.Reconcile(match, candidate)
	if err := p.Records.UpdateRecord(ctx, merged.Number, merged); err != nil {
		return merged, err
	}
	return merged, nil
}

// fail publishes the terminal error event and returns the error.
func (p *Pipeline) fail(correlationID string, logger *slog.Logger, err error) error {
	logger.Error("pipeline failed",
		"code", gamedex.ErrorCode(err),
		"error", gamedex.ErrorMessage(err))
	p.publishError(correlationID, err)
	return err
}

func (p *Pipeline) publish(id string, event gamedex.ProgressEvent) {
	if p.Broker != nil {
		p.Broker.Publish(id, event)
	}
}

func (p *Pipeline) publishError(id string, err error) {
	p.publish(id, gamedex.ProgressEvent{
		Status:  gamedex.ProgressError,
		Message: gamedex.ErrorMessage(err),
		Hint:    gamedex.ErrorHint(err),
	})
}

func (p *Pipeline) complete(id string, record *gamedex.GameRecord, message string) {
	p.publish(id, gamedex.ProgressEvent{
		Step:    totalSteps,
		Total:   totalSteps,
		Percent: 100,
		Status:  gamedex.ProgressCompleted,
		Message: message,
		Record:  record,
	})
}

func (p *Pipeline) closeStream(id string) {
	if p.Broker != nil {
		p.Broker.Close(id)
	}
}

// applySizes copies the aggregate and per-link sizes onto the record.
func applySizes(rec *gamedex.GameRecord, report *gamedex.SizeReport) {
	rec.TotalBytes = report.TotalBytes
	rec.TotalGiB = report.TotalGiB

	byURL := make(map[string]int64, len(report.PerLink))
	for _, ls := range report.PerLink {
		byURL[ls.URL] = ls.Bytes
	}
	for i := range rec.Links {
		rec.Links[i].SizeBytes = byURL[rec.Links[i].URL]
	}
}

// contentHash fingerprints the extracted text so an unchanged listing can
// short-circuit the update path.
func contentHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}
