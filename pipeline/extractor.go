package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ChallX/gamedex"
)

// Prompt sizing limits. Forum threads run long; only the head of the text
// carries the listing fields.
const (
	maxPromptText   = 6000
	maxPromptImages = 10
	maxPromptLinks  = 20
)

var _ gamedex.RecordExtractor = (*StructuredExtractor)(nil)

// StructuredExtractor turns a page artifact into a game record. The
// primary path asks the text-generation service for strict JSON; when the
// service is unavailable or returns something unparseable, a deterministic
// heuristic pass over the artifact takes over. Both paths feed the same
// normalization step, so the output shape does not depend on which path
// produced it.
type StructuredExtractor struct {
	Generator gamedex.TextGenerator
	Logger    *slog.Logger
}

// Extract returns a structurally valid record for any non-nil artifact.
func (e *StructuredExtractor) Extract(ctx context.Context, artifact *gamedex.PageArtifact, sourceURL string) (*gamedex.GameRecord, error) {
	if artifact == nil {
		return nil, gamedex.Errorf(gamedex.EEXTRACTION, "nil artifact")
	}

	if e.Generator != nil {
		rec, err := e.aiExtract(ctx, artifact, sourceURL)
		if err == nil {
			return gamedex.NormalizeRecord(rec, sourceURL), nil
		}
		if e.Logger != nil {
			e.Logger.Warn("structured extraction fell back to heuristics",
				"url", sourceURL, "error", err)
		}
	}

	return gamedex.NormalizeRecord(gamedex.FallbackExtract(artifact, sourceURL), sourceURL), nil
}

// aiExtract runs the generation call and parses its JSON response.
func (e *StructuredExtractor) aiExtract(ctx context.Context, artifact *gamedex.PageArtifact, sourceURL string) (*gamedex.GameRecord, error) {
	raw, err := e.Generator.Generate(ctx, buildPrompt(artifact), gamedex.GenerateOptions{
		Temperature: 0.1,
		MaxTokens:   2048,
		JSON:        true,
	})
	if err != nil {
		return nil, gamedex.Errorf(gamedex.EEXTRACTION, "generation call failed: %v", err)
	}
	return gamedex.ParseRecordJSON(raw, sourceURL)
}

// buildPrompt assembles the extraction prompt from a bounded slice of the
// artifact.
func buildPrompt(artifact *gamedex.PageArtifact) string {
	var b strings.Builder

	b.WriteString("Extract structured game listing data from this forum page.\n")
	b.WriteString("Respond with a single JSON object with these keys:\n")
	b.WriteString(`game_name, version, developer, release_date, cover_image, description, tags (array of strings), download_links (array of {url, provider, platform, version}).`)
	b.WriteString("\nUse empty strings for unknown fields. Only include download links pointing at file hosts.\n")

	fmt.Fprintf(&b, "\nPage title: %s\n", artifact.Title)

	fmt.Fprintf(&b, "\nPage content:\n%s\n", gamedex.TruncateText(artifact.TextContent, maxPromptText))

	if len(artifact.Images) > 0 {
		b.WriteString("\nImages:\n")
		for i, img := range artifact.Images {
			if i >= maxPromptImages {
				break
			}
			fmt.Fprintf(&b, "- %s (alt: %s)\n", img.URL, img.Alt)
		}
	}

	if len(artifact.Links) > 0 {
		b.WriteString("\nCandidate links:\n")
		for i, link := range artifact.Links {
			if i >= maxPromptLinks {
				break
			}
			spoiler := ""
			if link.InSpoiler {
				spoiler = " [in spoiler]"
			}
			fmt.Fprintf(&b, "- %s (text: %s, context: %s)%s\n", link.URL, link.Text, link.Context, spoiler)
		}
	}

	return b.String()
}
