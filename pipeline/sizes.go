package pipeline

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/ChallX/gamedex"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeConcurrency bounds simultaneous size probes.
const DefaultProbeConcurrency = 4

// SizeResolver resolves download sizes for a record's links by probing the
// file hosts. Per-link failures are isolated: an unresolvable link is
// omitted from the report and the rest still aggregate.
type SizeResolver struct {
	Prober      gamedex.SizeProber
	Limiter     gamedex.DomainLimiter
	Concurrency int
	Logger      *slog.Logger
}

// Resolve probes every link concurrently and returns the aggregate report.
// PerLink entries preserve the input link order. Resolve only fails on
// context cancellation; probe failures degrade to omitted entries.
func (r *SizeResolver) Resolve(ctx context.Context, links []gamedex.DownloadLink) (*gamedex.SizeReport, error) {
	if len(links) == 0 {
		return gamedex.ZeroSizeReport(), nil
	}

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultProbeConcurrency
	}

	sizes := make([]int64, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			n, err := r.probeLink(gctx, link.URL)
			if err != nil {
				if r.Logger != nil {
					r.Logger.Debug("size probe failed", "url", link.URL, "error", err)
				}
				return nil
			}
			sizes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	report := &gamedex.SizeReport{PerLink: []gamedex.LinkSize{}}
	for i, link := range links {
		if sizes[i] <= 0 {
			continue
		}
		report.TotalBytes += sizes[i]
		report.PerLink = append(report.PerLink, gamedex.LinkSize{URL: link.URL, Bytes: sizes[i]})
	}
	report.TotalGiB = gamedex.FormatGiB(report.TotalBytes)
	return report, nil
}

// probeLink tries HEAD first, then a one-byte ranged GET for hosts that
// reject HEAD or omit Content-Length.
func (r *SizeResolver) probeLink(ctx context.Context, url string) (int64, error) {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx, hostOf(url)); err != nil {
			return 0, err
		}
	}

	if headers, err := r.Prober.Head(ctx, url); err == nil {
		if n := gamedex.ContentLength(headers); n > 0 {
			return n, nil
		}
	}

	headers, err := r.Prober.RangeGet(ctx, url)
	if err != nil {
		return 0, err
	}
	if cr := headers.Get("Content-Range"); cr != "" {
		if n, err := gamedex.ParseContentRange(cr); err == nil && n > 0 {
			return n, nil
		}
	}
	if n := gamedex.ContentLength(headers); n > 1 {
		return n, nil
	}
	return 0, gamedex.Errorf(gamedex.EUNAVAILABLE, "host reported no size for %s", url)
}

// hostOf extracts the hostname for rate limiting. Unparseable URLs fall
// into a single shared bucket.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
