package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	einoMaxTokens = 16 * 1024
	einoTimeout   = 600 * time.Second
)

// EinoClient implements Client for the providers served by eino chat models
// (OpenAI, Claude, Ollama, Qwen, Ark and DeepSeek).
type EinoClient struct {
	config *Config
	apiKey string

	mu     sync.Mutex
	models map[string]model.BaseChatModel
	// newModel builds a chat model by name; replaced in tests.
	newModel func(ctx context.Context, name string) (model.BaseChatModel, error)
}

// NewEinoClient creates a client for an eino-backed provider.
func NewEinoClient(ctx context.Context, config *Config, apiKey string) (*EinoClient, error) {
	if apiKey == "" && config.Provider != ProviderOllama {
		return nil, fmt.Errorf("API key is required")
	}

	c := &EinoClient{
		config: config,
		apiKey: apiKey,
		models: make(map[string]model.BaseChatModel),
	}
	c.newModel = c.buildModel

	// Build the standard tier eagerly so bad configuration fails fast.
	if _, err := c.chatModel(ctx, TierStandard); err != nil {
		return nil, err
	}
	return c, nil
}

// GenerateContent generates text content using the specified model tier
func (c *EinoClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m, err := c.chatModel(ctx, tier)
	if err != nil {
		return "", err
	}

	msg, err := m.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("no content in response")
	}
	return msg.Content, nil
}

// GenerateJSON generates JSON content using the specified model tier
func (c *EinoClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *EinoClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *EinoClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = make(map[string]model.BaseChatModel)
	return nil
}

func (c *EinoClient) chatModel(ctx context.Context, tier ModelTier) (model.BaseChatModel, error) {
	name := c.config.GetModel(tier)
	if name == "" {
		return nil, fmt.Errorf("no model configured for tier %s", tier)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[name]; ok {
		return m, nil
	}
	m, err := c.newModel(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s model %s: %w", c.config.Provider, name, err)
	}
	c.models[name] = m
	return m, nil
}

func (c *EinoClient) buildModel(ctx context.Context, name string) (model.BaseChatModel, error) {
	temperature := c.config.Temperature
	maxTokens := einoMaxTokens
	baseURL := c.config.BaseURL

	switch c.config.Provider {
	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      c.apiKey,
			Model:       name,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
			Timeout:     einoTimeout,
		})
	case ProviderDeepSeek:
		if baseURL == "" {
			baseURL = "https://api.deepseek.com"
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      c.apiKey,
			Model:       name,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
			Timeout:     einoTimeout,
		})
	case ProviderQwen:
		if baseURL == "" {
			baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		}
		return qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      c.apiKey,
			Model:       name,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
			Timeout:     einoTimeout,
		})
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      c.apiKey,
			Model:       name,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
	case ProviderOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   name,
		})
	case ProviderAnthropic:
		cfg := &claude.Config{
			APIKey:      c.apiKey,
			Model:       name,
			Temperature: &temperature,
			MaxTokens:   maxTokens,
		}
		if baseURL != "" {
			cfg.BaseURL = &baseURL
		}
		return claude.NewChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("provider %q is not served by eino", c.config.Provider)
	}
}
