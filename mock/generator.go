package mock

import (
	"context"

	"github.com/ChallX/gamedex"
)

var _ gamedex.TextGenerator = (*TextGenerator)(nil)

// TextGenerator is a mock implementation of gamedex.TextGenerator.
type TextGenerator struct {
	GenerateFn func(ctx context.Context, prompt string, opts gamedex.GenerateOptions) (string, error)
}

func (g *TextGenerator) Generate(ctx context.Context, prompt string, opts gamedex.GenerateOptions) (string, error) {
	return g.GenerateFn(ctx, prompt, opts)
}
