package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIClient implements Client on the unified google.golang.org/genai SDK.
type GenAIClient struct {
	client *genai.Client
	config *Config
}

// NewGenAIClient creates a Gemini API backed client.
func NewGenAIClient(ctx context.Context, config *Config, apiKey string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIClient{client: client, config: config}, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, "")
}

// GenerateJSON generates JSON content using the specified model tier
func (c *GenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, "application/json")
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *GenAIClient) generate(ctx context.Context, prompt string, tier ModelTier, mimeType string) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.config.Temperature),
		ResponseMIMEType: mimeType,
	}
	resp, err := c.client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	return resp.Text(), nil
}

// GetModel returns the model name for a tier
func (c *GenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the genai client holds no closable resources.
func (c *GenAIClient) Close() error {
	return nil
}
