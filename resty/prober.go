// Package resty implements lightweight file-size probes over HTTP.
package resty

import (
	"context"
	"net/http"
	"time"

	"github.com/ChallX/gamedex"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds each probe request.
const DefaultTimeout = 15 * time.Second

// Ensure Prober implements gamedex.SizeProber at compile time.
var _ gamedex.SizeProber = (*Prober)(nil)

// Prober issues HEAD and partial-content probes against file hosts.
// It follows redirects, which most hosts use in front of their storage.
type Prober struct {
	client *resty.Client
}

// NewProber creates a new Prober with the given per-request timeout.
// A zero timeout selects DefaultTimeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	return &Prober{client: client}
}

// Head issues a HEAD request and returns the response headers.
func (p *Prober) Head(ctx context.Context, url string) (http.Header, error) {
	resp, err := p.client.R().SetContext(ctx).Head(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		return nil, gamedex.Errorf(gamedex.EUNAVAILABLE, "HEAD %s: status %d", url, resp.StatusCode())
	}
	return resp.Header(), nil
}

// RangeGet issues a one-byte partial-content GET for hosts that reject
// HEAD requests, and returns the response headers.
func (p *Prober) RangeGet(ctx context.Context, url string) (http.Header, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Range", "bytes=0-0").
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, err
	}
	if raw := resp.RawBody(); raw != nil {
		_ = raw.Close()
	}
	if resp.StatusCode() >= 400 {
		return nil, gamedex.Errorf(gamedex.EUNAVAILABLE, "GET %s: status %d", url, resp.StatusCode())
	}
	return resp.Header(), nil
}
