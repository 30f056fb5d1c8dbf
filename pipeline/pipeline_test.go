package pipeline_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/ChallX/gamedex"
	"github.com/ChallX/gamedex/mock"
	"github.com/ChallX/gamedex/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRecords is an in-memory RecordService for orchestration tests.
type memoryRecords struct {
	mu      sync.Mutex
	records []*gamedex.GameRecord
}

func (s *memoryRecords) CreateRecord(ctx context.Context, rec *gamedex.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	clone.Number = len(s.records) + 1
	s.records = append(s.records, &clone)
	rec.Number = clone.Number
	return nil
}

func (s *memoryRecords) UpdateRecord(ctx context.Context, number int, rec *gamedex.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.records {
		if existing.Number == number {
			clone := *rec
			clone.Number = number
			s.records[i] = &clone
			return nil
		}
	}
	return gamedex.Errorf(gamedex.ENOTFOUND, "record %d not found", number)
}

func (s *memoryRecords) FindRecordByNumber(ctx context.Context, number int) (*gamedex.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Number == number {
			return rec, nil
		}
	}
	return nil, gamedex.Errorf(gamedex.ENOTFOUND, "record %d not found", number)
}

func (s *memoryRecords) FindRecords(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*gamedex.GameRecord
	for _, rec := range s.records {
		if filter.SourceURL != nil && rec.SourceURL != *filter.SourceURL {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func newTestPipeline(store gamedex.RecordService, broker *pipeline.Broker) *pipeline.Pipeline {
	scraper := &mock.Scraper{
		ScrapeFn: func(ctx context.Context, url string) (*gamedex.PageArtifact, error) {
			return sampleArtifact(), nil
		},
	}
	prober := &mock.SizeProber{
		HeadFn: func(ctx context.Context, url string) (http.Header, error) {
			return headerWithLength("1073741824"), nil
		},
	}
	return &pipeline.Pipeline{
		Scraper:    scraper,
		Extractor:  &pipeline.StructuredExtractor{},
		Reconciler: pipeline.NewReconciler(store, nil),
		Sizes:      &pipeline.SizeResolver{Prober: prober},
		Records:    store,
		Broker:     broker,
		RetryDelays: testDelays(),
	}
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	sourceURL := "https://f95zone.to/threads/sample-game.1/"

	t.Run("new listing is created with sizes and progress stream", func(t *testing.T) {
		t.Parallel()

		store := &memoryRecords{}
		broker := pipeline.NewBroker()
		ch, cancel := broker.Subscribe("run-1")
		defer cancel()

		p := newTestPipeline(store, broker)
		rec, err := p.Run(context.Background(), sourceURL, "run-1")
		require.NoError(t, err)

		assert.Equal(t, 1, rec.Number)
		assert.Equal(t, "Sample Game", rec.Name)
		assert.Equal(t, int64(1073741824), rec.TotalBytes)
		assert.Equal(t, "1.00", rec.TotalGiB)
		require.Len(t, rec.Links, 1)
		assert.Equal(t, int64(1073741824), rec.Links[0].SizeBytes)
		assert.False(t, rec.ExtractedAt.IsZero())

		var events []gamedex.ProgressEvent
		for len(ch) > 0 {
			events = append(events, <-ch)
		}
		require.NotEmpty(t, events)

		// Steps strictly increase and the terminal event carries the record.
		lastStep := 0
		completed := 0
		for _, e := range events {
			assert.Greater(t, e.Step, lastStep)
			lastStep = e.Step
			if e.Status == gamedex.ProgressCompleted {
				completed++
				require.NotNil(t, e.Record)
				assert.Equal(t, 1, e.Record.Number)
				assert.Equal(t, 100, e.Percent)
			}
		}
		assert.Equal(t, 1, completed)
	})

	t.Run("rescrape of unchanged listing short-circuits", func(t *testing.T) {
		t.Parallel()

		store := &memoryRecords{}
		p := newTestPipeline(store, pipeline.NewBroker())

		first, err := p.Run(context.Background(), sourceURL, "run-a")
		require.NoError(t, err)

		second, err := p.Run(context.Background(), sourceURL, "run-b")
		require.NoError(t, err)

		assert.Equal(t, first.Number, second.Number)
		assert.Len(t, store.records, 1)
		// Sizes and the timestamp are still refreshed on the stored record.
		assert.True(t, second.ExtractedAt.After(first.ExtractedAt))
		assert.Equal(t, first.ContentHash, second.ContentHash)
	})

	t.Run("rescrape of unchanged listing skips the extraction service", func(t *testing.T) {
		t.Parallel()

		var calls int
		generator := &mock.TextGenerator{
			GenerateFn: func(ctx context.Context, prompt string, opts gamedex.GenerateOptions) (string, error) {
				calls++
				return `{"game_name": "Sample Game", "version": "1.0"}`, nil
			},
		}

		store := &memoryRecords{}
		p := newTestPipeline(store, pipeline.NewBroker())
		p.Extractor = &pipeline.StructuredExtractor{Generator: generator}

		_, err := p.Run(context.Background(), sourceURL, "run-a")
		require.NoError(t, err)

		_, err = p.Run(context.Background(), sourceURL, "run-b")
		require.NoError(t, err)

		assert.Equal(t, 1, calls)
	})

	t.Run("rescrape of changed listing updates in place", func(t *testing.T) {
		t.Parallel()

		store := &memoryRecords{}
		broker := pipeline.NewBroker()
		p := newTestPipeline(store, broker)

		first, err := p.Run(context.Background(), sourceURL, "run-a")
		require.NoError(t, err)

		changed := sampleArtifact()
		changed.TextContent = "Sample Game v2.0 changelog: everything is different now."
		p.Scraper = &mock.Scraper{
			ScrapeFn: func(ctx context.Context, url string) (*gamedex.PageArtifact, error) {
				return changed, nil
			},
		}

		second, err := p.Run(context.Background(), sourceURL, "run-b")
		require.NoError(t, err)

		assert.Equal(t, first.Number, second.Number)
		assert.Len(t, store.records, 1)
		assert.NotEqual(t, first.ContentHash, second.ContentHash)
	})

	t.Run("scrape failure emits one error event with a hint", func(t *testing.T) {
		t.Parallel()

		store := &memoryRecords{}
		broker := pipeline.NewBroker()
		ch, cancel := broker.Subscribe("run-err")
		defer cancel()

		p := newTestPipeline(store, broker)
		p.Scraper = &mock.Scraper{
			ScrapeFn: func(ctx context.Context, url string) (*gamedex.PageArtifact, error) {
				return nil, gamedex.Errorf(gamedex.EAUTHREQUIRED, "login wall")
			},
		}

		rec, err := p.Run(context.Background(), sourceURL, "run-err")
		assert.Nil(t, rec)
		assert.Equal(t, gamedex.EAUTHREQUIRED, gamedex.ErrorCode(err))

		var errEvents int
		for len(ch) > 0 {
			e := <-ch
			if e.Status == gamedex.ProgressError {
				errEvents++
				assert.NotEmpty(t, e.Hint)
			}
		}
		assert.Equal(t, 1, errEvents)
	})

	t.Run("persistence failure still returns the record", func(t *testing.T) {
		t.Parallel()

		store := &mock.RecordService{
			CreateRecordFn: func(ctx context.Context, rec *gamedex.GameRecord) error {
				return gamedex.Errorf(gamedex.EPERSISTENCE, "disk full")
			},
			FindRecordsFn: func(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error) {
				return nil, nil
			},
		}

		p := newTestPipeline(store, pipeline.NewBroker())
		rec, err := p.Run(context.Background(), sourceURL, "run-p")
		assert.Equal(t, gamedex.EPERSISTENCE, gamedex.ErrorCode(err))
		require.NotNil(t, rec)
		assert.Equal(t, "Sample Game", rec.Name)
	})

	t.Run("lookup failure degrades to creating a new record", func(t *testing.T) {
		t.Parallel()

		created := false
		store := &mock.RecordService{
			CreateRecordFn: func(ctx context.Context, rec *gamedex.GameRecord) error {
				created = true
				rec.Number = 42
				return nil
			},
			FindRecordsFn: func(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error) {
				return nil, gamedex.Errorf(gamedex.EPERSISTENCE, "db locked")
			},
		}

		p := newTestPipeline(store, pipeline.NewBroker())
		rec, err := p.Run(context.Background(), sourceURL, "run-d")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 42, rec.Number)
	})
}
