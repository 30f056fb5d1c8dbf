package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ChallX/gamedex"
	"github.com/ChallX/gamedex/bloom"
	"github.com/antzucaro/matchr"
)

// Bloom filter sizing for the known-source-URL fast path.
const (
	expectedRecords   = 100000
	falsePositiveRate = 0.01
)

// developerSimilarityFloor is the Jaro-Winkler score below which two
// developer names are treated as disagreeing.
const developerSimilarityFloor = 0.8

// Match describes how an existing record was matched to a candidate.
type Match struct {
	Record *gamedex.GameRecord
	// Type is "url" for an exact source URL match, "name" for a
	// normalized-name match.
	Type string
}

// Reconciler decides whether a freshly extracted candidate is a new
// listing or an update to a persisted one. Source URL equality is
// authoritative; normalized name equality catches reposted threads. A
// Bloom filter over persisted source URLs lets the common brand-new-URL
// case skip the URL pass entirely.
type Reconciler struct {
	Records gamedex.RecordService
	Logger  *slog.Logger

	mu     sync.Mutex
	filter *bloom.Filter
	seeded bool
}

// NewReconciler creates a Reconciler over the given record store.
func NewReconciler(records gamedex.RecordService, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		Records: records,
		Logger:  logger,
		filter:  bloom.NewFilter(expectedRecords, falsePositiveRate),
	}
}

// FindExisting looks for a persisted record matching the candidate.
// Returns nil when the candidate is new. Lookup failures are returned so
// the caller can degrade to treating the candidate as new.
func (r *Reconciler) FindExisting(ctx context.Context, candidate *gamedex.GameRecord) (*Match, error) {
	if err := r.seed(ctx); err != nil {
		return nil, err
	}

	// A negative filter test proves the URL was never persisted, so the
	// URL-equality pass can be skipped. Positives may be false and still
	// require the authoritative store lookup.
	if r.testURL(candidate.SourceURL) {
		found, err := r.Records.FindRecords(ctx, gamedex.RecordFilter{SourceURL: &candidate.SourceURL})
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			return &Match{Record: found[0], Type: "url"}, nil
		}
	}

	return r.findByName(ctx, candidate)
}

// Observe records a persisted source URL in the fast-path filter.
func (r *Reconciler) Observe(sourceURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter.Add(sourceURL)
}

// Reconcile merges the candidate into the matched record and flags
// suspicious matches. A name match whose developers clearly disagree is
// probably two different games sharing a title; the merge still proceeds,
// with a warning, because the source URL is fresher evidence than the
// stored name.
func (r *Reconciler) Reconcile(match *Match, candidate *gamedex.GameRecord) *gamedex.GameRecord {
	if match.Type == "name" && match.Record.Developer != "" && candidate.Developer != "" {
		score := matchr.JaroWinkler(match.Record.Developer, candidate.Developer, true)
		if score < developerSimilarityFloor {
			r.Logger.Warn("name match with disagreeing developers",
				"name", candidate.Name,
				"existing_developer", match.Record.Developer,
				"candidate_developer", candidate.Developer,
				"similarity", score)
		}
	}
	return gamedex.MergeRecords(match.Record, candidate)
}

// seed loads persisted source URLs into the filter on first use.
func (r *Reconciler) seed(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seeded {
		return nil
	}
	records, err := r.Records.FindRecords(ctx, gamedex.RecordFilter{})
	if err != nil {
		return err
	}
	for _, rec := range records {
		r.filter.Add(rec.SourceURL)
	}
	r.seeded = true
	return nil
}

func (r *Reconciler) testURL(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter.Test(url)
}

// findByName scans persisted records for a normalized-name match.
func (r *Reconciler) findByName(ctx context.Context, candidate *gamedex.GameRecord) (*Match, error) {
	if candidate.Name == "" || candidate.Name == gamedex.DefaultName {
		return nil, nil
	}
	want := gamedex.NormalizeName(candidate.Name)
	if want == "" {
		return nil, nil
	}

	records, err := r.Records.FindRecords(ctx, gamedex.RecordFilter{})
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if gamedex.NormalizeName(rec.Name) == want {
			return &Match{Record: rec, Type: "name"}, nil
		}
	}
	return nil, nil
}
