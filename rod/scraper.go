package rod

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ChallX/gamedex"
	gq "github.com/ChallX/gamedex/goquery"
	"github.com/go-rod/rod"
)

// DefaultNavTimeout bounds one navigation plus readiness wait.
const DefaultNavTimeout = 60 * time.Second

// Ensure Scraper implements gamedex.Scraper at compile time.
var _ gamedex.Scraper = (*Scraper)(nil)

// Scraper navigates to forum pages and extracts raw artifacts from the
// rendered DOM. It borrows the session manager's authenticated page when
// one is held, falling back to a fresh unauthenticated page otherwise.
type Scraper struct {
	Session    *SessionManager
	Manager    *BrowserManager
	Content    gamedex.ContentExtractor
	Converter  gamedex.Converter
	Limiter    gamedex.DomainLimiter
	Site       string
	NavTimeout time.Duration
	Logger     *slog.Logger
}

// Scrape navigates to the URL and returns a raw page artifact. The URL
// must be an absolute URL on the target site; violations fail fast with
// EINVALID and are never retried.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*gamedex.PageArtifact, error) {
	if err := gamedex.ValidateTargetURL(rawURL, s.Site); err != nil {
		return nil, err
	}

	if s.Limiter != nil {
		u, _ := url.Parse(rawURL)
		if err := s.Limiter.Wait(ctx, u.Hostname()); err != nil {
			return nil, err
		}
	}

	wasAuthenticated := s.Session != nil && s.Session.Authenticated()

	var html, currentURL string
	var err error
	if wasAuthenticated {
		err = s.Session.WithPage(ctx, func(page *rod.Page) error {
			html, currentURL, err = s.renderPage(ctx, page, rawURL)
			return err
		})
	} else {
		html, currentURL, err = s.renderFreshPage(ctx, rawURL)
	}
	if err != nil {
		return nil, err
	}

	if isLoginURL(currentURL) {
		if wasAuthenticated {
			// Session expired mid-scrape; the retry layer re-authenticates.
			s.Session.Invalidate()
			return nil, gamedex.Errorf(gamedex.EAUTHFAILED, "session expired while scraping %s", rawURL)
		}
		return nil, gamedex.Errorf(gamedex.EAUTHREQUIRED, "page %s requires a logged-in session", rawURL)
	}

	return s.buildArtifact(html, rawURL)
}

// renderPage navigates an existing page and returns its rendered HTML and
// final URL.
func (s *Scraper) renderPage(ctx context.Context, page *rod.Page, rawURL string) (html, currentURL string, err error) {
	timeout := s.NavTimeout
	if timeout <= 0 {
		timeout = DefaultNavTimeout
	}
	timed, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := page.Context(timed)

	if err := p.Navigate(rawURL); err != nil {
		return "", "", classifyNavError(rawURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", "", classifyNavError(rawURL, err)
	}

	s.Manager.IncrementPageCount()

	info, err := p.Info()
	if err != nil {
		return "", "", gamedex.Errorf(gamedex.EUNAVAILABLE, "reading page URL: %v", err)
	}
	html, err = p.HTML()
	if err != nil {
		return "", "", gamedex.Errorf(gamedex.EUNAVAILABLE, "reading page HTML: %v", err)
	}
	return html, info.URL, nil
}

// renderFreshPage opens a throwaway unauthenticated page, renders the
// URL, and closes it.
func (s *Scraper) renderFreshPage(ctx context.Context, rawURL string) (html, currentURL string, err error) {
	page, err := s.Manager.NewPage()
	if err != nil {
		return "", "", gamedex.Errorf(gamedex.EUNAVAILABLE, "opening page: %v", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil && s.Logger != nil {
			s.Logger.Warn("closing page", "error", cerr)
		}
	}()

	return s.renderPage(ctx, page, rawURL)
}

// buildArtifact assembles the artifact from rendered HTML: DOM scan for
// images and candidate links, main-content isolation for the text body.
// When isolation or markdown conversion fails, the raw visible page text
// stands in so a rendered page is never reported as empty.
func (s *Scraper) buildArtifact(html, rawURL string) (*gamedex.PageArtifact, error) {
	artifact, err := gq.BuildArtifact(html, rawURL)
	if err != nil {
		return nil, err
	}

	extracted, err := s.Content.Extract(html)
	if err != nil {
		s.warn("content isolation failed", "url", rawURL, "error", err)
	} else {
		if artifact.Title == "" {
			artifact.Title = extracted.Title
		}
		if extracted.ContentHTML != "" {
			text, cerr := s.Converter.Convert(extracted.ContentHTML)
			if cerr != nil {
				s.warn("markdown conversion failed", "url", rawURL, "error", cerr)
			} else {
				artifact.TextContent = strings.TrimSpace(text)
			}
		}
	}

	if artifact.TextContent == "" {
		artifact.TextContent = gq.VisibleText(html)
	}

	// Distinguish "page loaded but empty" from navigation failure.
	if artifact.TextContent == "" {
		return nil, gamedex.Errorf(gamedex.ECONTENTEMPTY, "no usable content at %s", rawURL)
	}

	return artifact, nil
}

func (s *Scraper) warn(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Warn(msg, args...)
	}
}

// classifyNavError separates deadline expiry from other navigation failures.
func classifyNavError(rawURL string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return gamedex.Errorf(gamedex.ETIMEOUT, "navigation to %s timed out", rawURL)
	}
	return gamedex.Errorf(gamedex.EUNAVAILABLE, "navigation to %s failed: %v", rawURL, err)
}
