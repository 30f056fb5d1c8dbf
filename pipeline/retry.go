package pipeline

import (
	"context"
	"time"

	"github.com/ChallX/gamedex"
)

// DefaultRetryDelays returns the linearly increasing backoff delays for
// scrape retries: 1s, 2s, 3s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 3 * time.Second}
}

// retryable reports whether a scrape failure is worth another attempt.
// Invalid input, missing authentication, and pages that genuinely have no
// content will fail identically on every attempt.
func retryable(err error) bool {
	switch gamedex.ErrorCode(err) {
	case gamedex.EINVALID, gamedex.EAUTHREQUIRED, gamedex.ECONTENTEMPTY:
		return false
	}
	return true
}

// ScrapeWithRetry attempts a scrape with backoff. An expired-session
// failure triggers re-authentication through the session manager before
// the next attempt; when re-authentication keeps failing the attempts are
// exhausted and the last error is returned.
func ScrapeWithRetry(ctx context.Context, scraper gamedex.Scraper, session gamedex.SessionManager, url string, delays []time.Duration) (*gamedex.PageArtifact, error) {
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	maxAttempts := len(delays) + 1

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		artifact, err := scraper.Scrape(ctx, url)
		attempts++
		if err == nil {
			return artifact, nil
		}
		lastErr = err

		if !retryable(err) || attempt >= maxAttempts-1 {
			break
		}

		if gamedex.ErrorCode(err) == gamedex.EAUTHFAILED && session != nil {
			if !session.EnsureAuthenticated(ctx) {
				break
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	if gamedex.ErrorCode(lastErr) == gamedex.EAUTHFAILED {
		return nil, gamedex.Errorf(gamedex.EAUTHFAILED, "authentication failed after %d attempts", attempts)
	}
	return nil, lastErr
}
