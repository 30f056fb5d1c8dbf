package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/ChallX/gamedex"
	"github.com/ChallX/gamedex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps() (*Dependencies, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Dependencies{
		Ctx:    context.Background(),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestRecordsCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists records", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps()
		deps.Records = &mock.RecordService{
			FindRecordsFn: func(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error) {
				assert.Equal(t, 50, filter.Limit)
				return []*gamedex.GameRecord{
					{
						Number:    1,
						Name:      "Sample Game",
						Version:   "1.0",
						Developer: "Dev",
						TotalGiB:  "3.00",
						Links:     []gamedex.DownloadLink{{URL: "https://mega.nz/file/a"}},
					},
				}, nil
			},
		}

		cmd := &RecordsCmd{Limit: 50}
		require.NoError(t, cmd.Run(deps))
		assert.Contains(t, stdout.String(), "#1  Sample Game  1.0  Dev  3.00 GiB  1 links")
	})

	t.Run("empty store prints guidance", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps()
		deps.Records = &mock.RecordService{
			FindRecordsFn: func(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error) {
				return nil, nil
			},
		}

		require.NoError(t, (&RecordsCmd{}).Run(deps))
		assert.Contains(t, stdout.String(), "No records found")
	})

	t.Run("filters by source URL", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps()
		deps.Records = &mock.RecordService{
			FindRecordsFn: func(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error) {
				require.NotNil(t, filter.SourceURL)
				assert.Equal(t, "https://f95zone.to/threads/x.1/", *filter.SourceURL)
				return nil, nil
			},
		}

		cmd := &RecordsCmd{SourceURL: "https://f95zone.to/threads/x.1/"}
		require.NoError(t, cmd.Run(deps))
	})
}

func TestStatusCmd_Run(t *testing.T) {
	t.Parallel()

	deps, stdout, _ := testDeps()
	deps.Session = &mock.SessionManager{
		StatusFn: func(ctx context.Context) gamedex.SessionStatus {
			return gamedex.SessionAuthenticated
		},
	}

	require.NoError(t, (&StatusCmd{}).Run(deps))
	assert.Contains(t, stdout.String(), "session: authenticated (logged in)")
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("GAMEDEX_DB", "/tmp/test-gamedex.db")
	assert.Equal(t, "/tmp/test-gamedex.db", defaultDBPath())
}
