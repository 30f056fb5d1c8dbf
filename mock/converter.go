package mock

import (
	"context"

	"github.com/ChallX/gamedex"
)

var _ gamedex.Converter = (*Converter)(nil)

// Converter is a mock implementation of gamedex.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ gamedex.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of gamedex.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.WaitFn(ctx, domain)
}
