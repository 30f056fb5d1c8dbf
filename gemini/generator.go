// Package gemini implements the natural-language extraction provider
// using Google Gemini.
package gemini

import (
	"context"

	"github.com/ChallX/gamedex"
	"google.golang.org/genai"
)

// DefaultModel is the model used for structured extraction.
const DefaultModel = "gemini-2.5-flash"

// Ensure Generator implements gamedex.TextGenerator at compile time.
var _ gamedex.TextGenerator = (*Generator)(nil)

// Generator implements gamedex.TextGenerator using Google Gemini.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a new Generator. An empty model selects DefaultModel.
func NewGenerator(client *genai.Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

// Generate sends the prompt to Gemini and returns the response text.
func (g *Generator) Generate(ctx context.Context, prompt string, opts gamedex.GenerateOptions) (string, error) {
	if prompt == "" {
		return "", gamedex.Errorf(gamedex.EINVALID, "prompt required")
	}

	config := BuildConfig(opts)

	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		config,
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", gamedex.Errorf(gamedex.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig(opts gamedex.GenerateOptions) *genai.GenerateContentConfig {
	temp := opts.Temperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You extract structured data about games from forum thread content. Respond with strictly valid JSON matching the requested schema and nothing else. Use empty strings for fields you cannot determine.",
			}},
		},
		Temperature: &temp,
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = opts.MaxTokens
	}
	if opts.JSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}
