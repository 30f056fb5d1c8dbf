package gamedex

import (
	"context"
	"net/url"
	"strings"
)

// ImageRef is an image found on a scraped page.
type ImageRef struct {
	URL string
	Alt string
}

// LinkRef is a candidate download link found on a scraped page, together
// with enough surrounding context to disambiguate it later (e.g. which
// version a link belongs to).
type LinkRef struct {
	URL       string
	Text      string
	Context   string
	InSpoiler bool
}

// PageArtifact holds the raw structured output of one scrape. Artifacts
// are immutable once produced and are not persisted.
type PageArtifact struct {
	URL         string
	Title       string
	TextContent string
	Images      []ImageRef
	Links       []LinkRef
}

// Scraper navigates to a forum page and extracts a raw artifact from the
// rendered DOM. Implementations use browser automation and may borrow the
// session manager's authenticated browsing context.
type Scraper interface {
	// Scrape returns an artifact with non-empty text content or a
	// categorized error. It never returns an empty artifact silently.
	Scrape(ctx context.Context, url string) (*PageArtifact, error)
}

// ContentExtractor isolates the main content of a page, removing forum
// chrome (navigation, sidebars, reply posts).
type ContentExtractor interface {
	Extract(html string) (*ExtractResult, error)
}

// ExtractResult holds the isolated main content of an HTML page.
type ExtractResult struct {
	Title       string
	ContentHTML string
}

// Converter transforms HTML content into plain-text Markdown.
type Converter interface {
	Convert(html string) (string, error)
}

// DomainLimiter rate limits requests on a per-domain basis.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	Wait(ctx context.Context, domain string) error
}

// ValidateTargetURL checks that raw parses as an absolute http(s) URL
// whose host belongs to the target site. Violations return EINVALID.
func ValidateTargetURL(raw, site string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return Errorf(EINVALID, "invalid URL %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINVALID, "URL %q must be absolute http(s)", raw)
	}
	host := strings.ToLower(u.Hostname())
	site = strings.ToLower(site)
	if host != site && !strings.HasSuffix(host, "."+site) {
		return Errorf(EINVALID, "URL host %q is not on %s", host, site)
	}
	return nil
}
