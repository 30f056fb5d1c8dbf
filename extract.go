package gamedex

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// RecordExtractor turns a raw page artifact into a structured game record.
// Implementations never return a nil record without an error.
type RecordExtractor interface {
	Extract(ctx context.Context, artifact *PageArtifact, sourceURL string) (*GameRecord, error)
}

// GenerateOptions configure a single text-generation call.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int32
	JSON        bool
}

// TextGenerator is the natural-language extraction provider consumed by
// the structured-data extractor.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// MaxDescriptionLen caps the description field during validation.
const MaxDescriptionLen = 2000

// DefaultName is the sentinel used when extraction yields no name.
const DefaultName = "Unknown Game"

// aiRecord mirrors the JSON schema requested from the extraction service.
type aiRecord struct {
	GameName      string   `json:"game_name"`
	Version       string   `json:"version"`
	Developer     string   `json:"developer"`
	ReleaseDate   string   `json:"release_date"`
	CoverImage    string   `json:"cover_image"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	DownloadLinks []struct {
		URL      string `json:"url"`
		Provider string `json:"provider"`
		Platform string `json:"platform"`
		Version  string `json:"version"`
	} `json:"download_links"`
}

// TruncateText caps s at max bytes without splitting a UTF-8 sequence,
// backing up to the nearest rune boundary.
func TruncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

var codeFencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeFence removes a surrounding Markdown code fence, if present.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// ParseRecordJSON parses the extraction service's JSON response into a
// candidate record. A parse failure returns an error so the caller can
// fall back to deterministic extraction.
func ParseRecordJSON(raw, sourceURL string) (*GameRecord, error) {
	var ai aiRecord
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &ai); err != nil {
		return nil, Errorf(EEXTRACTION, "unparseable extraction response: %v", err)
	}

	rec := &GameRecord{
		Name:        ai.GameName,
		Version:     ai.Version,
		Developer:   ai.Developer,
		ReleaseDate: ai.ReleaseDate,
		CoverURL:    ai.CoverImage,
		Description: ai.Description,
		Tags:        ai.Tags,
		SourceURL:   sourceURL,
	}
	for _, l := range ai.DownloadLinks {
		if !ValidLinkURL(l.URL) {
			continue
		}
		link := DownloadLink{
			URL:      l.URL,
			Provider: l.Provider,
			Platform: l.Platform,
			Version:  l.Version,
		}
		if link.Provider == "" {
			link.Provider = ProviderForURL(l.URL)
		}
		if link.Platform == "" {
			link.Platform = "PC"
		}
		rec.Links = append(rec.Links, link)
	}
	return rec, nil
}

var titleVersionPattern = regexp.MustCompile(`(?i)\bv?(\d+(?:\.\d+)+[a-z0-9]*)\b`)

// coverHints mark images that look like cover art.
var coverHints = []string{"cover", "banner", "header"}

// FallbackExtract derives a candidate record from the artifact alone,
// without the extraction service. The result is lower fidelity but
// structurally valid; the function always terminates and never fails.
func FallbackExtract(artifact *PageArtifact, sourceURL string) *GameRecord {
	rec := &GameRecord{SourceURL: sourceURL}

	title := strings.TrimSpace(artifact.Title)
	name := title
	for _, delim := range []string{" - ", "|"} {
		if idx := strings.Index(name, delim); idx > 0 {
			name = name[:idx]
		}
	}
	rec.Name = strings.TrimSpace(name)

	if m := titleVersionPattern.FindStringSubmatch(title); m != nil {
		rec.Version = m[1]
	}

	for _, img := range artifact.Images {
		probe := strings.ToLower(img.Alt + " " + img.URL)
		for _, hint := range coverHints {
			if strings.Contains(probe, hint) {
				rec.CoverURL = img.URL
				break
			}
		}
		if rec.CoverURL != "" {
			break
		}
	}

	for _, link := range artifact.Links {
		if !IsProviderHost(link.URL) {
			continue
		}
		rec.Links = append(rec.Links, DownloadLink{
			URL:      link.URL,
			Provider: ProviderForURL(link.URL),
			Platform: "PC",
			Version:  rec.Version,
		})
	}

	rec.Description = strings.TrimSpace(TruncateText(artifact.TextContent, 500))

	return rec
}

// NormalizeRecord applies the uniform validation step to a candidate
// record regardless of which extraction path produced it. Every field is
// independently defaulted; the function never fails. On a nil candidate
// it returns an all-defaults minimal record so the pipeline can continue.
func NormalizeRecord(rec *GameRecord, sourceURL string) *GameRecord {
	if rec == nil {
		rec = &GameRecord{}
	}

	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		rec.Name = DefaultName
	}
	rec.Version = strings.TrimSpace(rec.Version)
	rec.Developer = strings.TrimSpace(rec.Developer)
	rec.ReleaseDate = strings.TrimSpace(rec.ReleaseDate)
	rec.Description = strings.TrimSpace(rec.Description)
	rec.Description = TruncateText(rec.Description, MaxDescriptionLen)
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if !ValidLinkURL(rec.CoverURL) {
		rec.CoverURL = ""
	}

	links := rec.Links[:0]
	for _, l := range rec.Links {
		if !ValidLinkURL(l.URL) {
			continue
		}
		if l.Provider == "" {
			l.Provider = ProviderForURL(l.URL)
		}
		if l.Platform == "" {
			l.Platform = "PC"
		}
		links = append(links, l)
	}
	rec.Links = links
	if rec.Links == nil {
		rec.Links = []DownloadLink{}
	}

	if sourceURL != "" {
		rec.SourceURL = sourceURL
	}
	return rec
}
