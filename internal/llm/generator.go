package llm

import "context"

// Generator is the single capability the pipeline needs: turn a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ClientGenerator sends every prompt to a Client at a fixed tier.
type ClientGenerator struct {
	client Client
	tier   ModelTier
}

// NewGenerator adapts a Client to Generator.
func NewGenerator(client Client, tier ModelTier) *ClientGenerator {
	if tier == "" {
		tier = TierStandard
	}
	return &ClientGenerator{client: client, tier: tier}
}

// Generate returns the raw model text.
func (g *ClientGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.client.GenerateContent(ctx, prompt, g.tier)
}

// Model reports which model serves this generator.
func (g *ClientGenerator) Model() string {
	return g.client.GetModel(g.tier)
}
