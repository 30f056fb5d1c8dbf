// Package goquery builds raw page artifacts from rendered forum HTML:
// title, image references, and candidate download links with surrounding
// context.
package goquery

import (
	"net/url"
	"strings"

	"github.com/ChallX/gamedex"
	"github.com/PuerkitoBio/goquery"
)

// maxContextLen bounds the surrounding-context snippet captured per link.
const maxContextLen = 200

// spoilerSelector matches the collapsed content regions the forum hides
// download sections in.
const spoilerSelector = ".bbCodeSpoiler, .bbCodeBlock--spoiler, details"

// BuildArtifact scans rendered HTML for the raw structured artifacts the
// extraction stage consumes. TextContent is left empty; the scraper fills
// it from the isolated main content.
func BuildArtifact(html, pageURL string) (*gamedex.PageArtifact, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, gamedex.Errorf(gamedex.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, gamedex.Errorf(gamedex.EINVALID, "failed to parse HTML: %v", err)
	}

	artifact := &gamedex.PageArtifact{URL: pageURL}
	artifact.Title = extractTitle(doc)
	artifact.Images = extractImages(doc, base)
	artifact.Links = extractLinks(doc, base)

	return artifact, nil
}

// VisibleText returns the page's visible body text with scripts and
// styles removed and whitespace collapsed. It serves as a lower-fidelity
// text body when main-content isolation fails.
func VisibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

// extractTitle prefers the thread title element over the document title,
// which the forum suffixes with the site name.
func extractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("h1.p-title-value").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractImages(doc *goquery.Document, base *url.URL) []gamedex.ImageRef {
	var images []gamedex.ImageRef
	seen := make(map[string]bool)

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			// The forum lazy-loads attachment images via data-src.
			src, ok = sel.Attr("data-src")
			if !ok || src == "" {
				return
			}
		}
		resolved := resolveURL(base, src)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		alt, _ := sel.Attr("alt")
		images = append(images, gamedex.ImageRef{URL: resolved, Alt: strings.TrimSpace(alt)})
	})

	return images
}

// extractLinks collects anchors whose host is a known file host or whose
// visible text signals download intent. A second pass walks collapsed
// spoiler regions, where the forum commonly hides download sections;
// matches found there are tagged distinctly, with the spoiler tag winning
// on duplicates.
func extractLinks(doc *goquery.Document, base *url.URL) []gamedex.LinkRef {
	seen := make(map[string]int)
	var links []gamedex.LinkRef

	collect := func(inSpoiler bool) func(_ int, sel *goquery.Selection) {
		return func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok || href == "" || isNonHTTPLink(href) {
				return
			}
			resolved := resolveURL(base, href)
			if resolved == "" {
				return
			}

			text := strings.TrimSpace(sel.Text())
			if !gamedex.IsProviderHost(resolved) && !gamedex.HasDownloadIntent(text) {
				return
			}

			link := gamedex.LinkRef{
				URL:       resolved,
				Text:      text,
				Context:   contextSnippet(sel),
				InSpoiler: inSpoiler,
			}

			if idx, ok := seen[resolved]; ok {
				if inSpoiler && !links[idx].InSpoiler {
					links[idx] = link
				}
				return
			}
			seen[resolved] = len(links)
			links = append(links, link)
		}
	}

	doc.Find("a[href]").Each(collect(false))
	doc.Find(spoilerSelector).Find("a[href]").Each(collect(true))

	return links
}

// contextSnippet returns a bounded-length snippet of the text surrounding
// a link, used later to disambiguate per-link versions.
func contextSnippet(sel *goquery.Selection) string {
	text := strings.TrimSpace(sel.Parent().Text())
	text = strings.Join(strings.Fields(text), " ")
	return gamedex.TruncateText(text, maxContextLen)
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed. Fragments are
// stripped for deduplication purposes.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
