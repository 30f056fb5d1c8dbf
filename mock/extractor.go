package mock

import (
	"context"

	"github.com/ChallX/gamedex"
)

var _ gamedex.RecordExtractor = (*RecordExtractor)(nil)

// RecordExtractor is a mock implementation of gamedex.RecordExtractor.
type RecordExtractor struct {
	ExtractFn func(ctx context.Context, artifact *gamedex.PageArtifact, sourceURL string) (*gamedex.GameRecord, error)
}

func (e *RecordExtractor) Extract(ctx context.Context, artifact *gamedex.PageArtifact, sourceURL string) (*gamedex.GameRecord, error) {
	return e.ExtractFn(ctx, artifact, sourceURL)
}

var _ gamedex.ContentExtractor = (*ContentExtractor)(nil)

// ContentExtractor is a mock implementation of gamedex.ContentExtractor.
type ContentExtractor struct {
	ExtractFn func(html string) (*gamedex.ExtractResult, error)
}

func (e *ContentExtractor) Extract(html string) (*gamedex.ExtractResult, error) {
	return e.ExtractFn(html)
}
