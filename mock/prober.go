package mock

import (
	"context"
	"net/http"

	"github.com/ChallX/gamedex"
)

var _ gamedex.SizeProber = (*SizeProber)(nil)

// SizeProber is a mock implementation of gamedex.SizeProber.
type SizeProber struct {
	HeadFn     func(ctx context.Context, url string) (http.Header, error)
	RangeGetFn func(ctx context.Context, url string) (http.Header, error)
}

func (p *SizeProber) Head(ctx context.Context, url string) (http.Header, error) {
	return p.HeadFn(ctx, url)
}

func (p *SizeProber) RangeGet(ctx context.Context, url string) (http.Header, error) {
	return p.RangeGetFn(ctx, url)
}
