package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ChallX/gamedex"
	gamedexhttp "github.com/ChallX/gamedex/http"
	"github.com/ChallX/gamedex/mock"
	"github.com/ChallX/gamedex/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner records run invocations and optionally publishes events.
type stubRunner struct {
	mu   sync.Mutex
	runs []string
	fn   func(ctx context.Context, url, correlationID string) (*gamedex.GameRecord, error)
}

func (r *stubRunner) Run(ctx context.Context, url, correlationID string) (*gamedex.GameRecord, error) {
	r.mu.Lock()
	r.runs = append(r.runs, url)
	r.mu.Unlock()
	if r.fn != nil {
		return r.fn(ctx, url, correlationID)
	}
	return &gamedex.GameRecord{Number: 1, Name: "Sample Game"}, nil
}

func newTestServer(runner gamedexhttp.Runner, broker *pipeline.Broker) *gamedexhttp.Server {
	return &gamedexhttp.Server{
		Runner: runner,
		Broker: broker,
		Records: &mock.RecordService{
			FindRecordsFn: func(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error) {
				return []*gamedex.GameRecord{{Number: 1, Name: "Sample Game"}}, nil
			},
		},
		Session: &mock.SessionManager{
			StatusFn: func(ctx context.Context) gamedex.SessionStatus {
				return gamedex.SessionAuthenticated
			},
		},
		Site: "f95zone.to",
	}
}

func TestServer_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("accepts a run and returns the correlation ID", func(t *testing.T) {
		t.Parallel()

		runner := &stubRunner{}
		srv := newTestServer(runner, pipeline.NewBroker())

		body := bytes.NewBufferString(`{"url": "https://f95zone.to/threads/x.1/", "correlationId": "run-1"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/scrape", body)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)
		var resp struct {
			CorrelationID string `json:"correlationId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "run-1", resp.CorrelationID)

		// The run starts asynchronously.
		assert.Eventually(t, func() bool {
			runner.mu.Lock()
			defer runner.mu.Unlock()
			return len(runner.runs) == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("generates a correlation ID when absent", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&stubRunner{}, pipeline.NewBroker())

		body := bytes.NewBufferString(`{"url": "https://f95zone.to/threads/x.1/"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/scrape", body)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)
		var resp struct {
			CorrelationID string `json:"correlationId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.CorrelationID)
	})

	t.Run("rejects a missing URL", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&stubRunner{}, pipeline.NewBroker())

		req := httptest.NewRequest(http.MethodPost, "/api/scrape", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "url is required")
	})

	t.Run("rejects a URL off the target site", func(t *testing.T) {
		t.Parallel()

		runner := &stubRunner{}
		srv := newTestServer(runner, pipeline.NewBroker())

		body := bytes.NewBufferString(`{"url": "https://example.com/threads/x.1/"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/scrape", body)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "f95zone.to")
		runner.mu.Lock()
		defer runner.mu.Unlock()
		assert.Empty(t, runner.runs)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&stubRunner{}, pipeline.NewBroker())

		req := httptest.NewRequest(http.MethodPost, "/api/scrape", bytes.NewBufferString(`not json`))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Progress(t *testing.T) {
	t.Parallel()

	broker := pipeline.NewBroker()
	runner := &stubRunner{
		fn: func(ctx context.Context, url, correlationID string) (*gamedex.GameRecord, error) {
			broker.Publish(correlationID, gamedex.NewProgressEvent(1, 6, "Scraping page"))
			broker.Publish(correlationID, gamedex.ProgressEvent{
				Status:  gamedex.ProgressCompleted,
				Percent: 100,
				Message: "Saved record #1",
			})
			return &gamedex.GameRecord{Number: 1}, nil
		},
	}
	srv := newTestServer(runner, broker)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	// Start the run after the events are buffered, then stream them.
	_, err := runner.Run(context.Background(), "https://f95zone.to/threads/x.1/", "run-sse")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/api/progress/run-sse")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var payloads []gamedex.ProgressEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event gamedex.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		payloads = append(payloads, event)
		if event.Status == gamedex.ProgressCompleted || event.Status == gamedex.ProgressError {
			break
		}
	}

	require.GreaterOrEqual(t, len(payloads), 3)
	assert.Equal(t, gamedex.ProgressConnected, payloads[0].Status)
	assert.Equal(t, gamedex.ProgressRunning, payloads[1].Status)
	assert.Equal(t, gamedex.ProgressCompleted, payloads[len(payloads)-1].Status)
}

func TestServer_Records(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubRunner{}, pipeline.NewBroker())

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var records []*gamedex.GameRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Sample Game", records[0].Name)
}

func TestServer_Status(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubRunner{}, pipeline.NewBroker())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "authenticated")
}
