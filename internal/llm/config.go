// Package llm provides model configuration and client abstractions over the
// supported language model providers.
package llm

import (
	"fmt"
	"os"
	"strings"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: classification, extraction, basic summarization
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: requirement analysis, interview prep
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: rewriting and polishing
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is Google Gemini through the generative-ai-go SDK
	ProviderGemini Provider = "gemini"
	// ProviderGenAI is Google Gemini through the unified google.golang.org/genai SDK
	ProviderGenAI Provider = "genai"
	// ProviderOpenAI is the OpenAI chat completions API
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic is the Anthropic/Claude messages API
	ProviderAnthropic Provider = "anthropic"
	// ProviderOllama is a local Ollama server
	ProviderOllama Provider = "ollama"
	// ProviderQwen is Alibaba DashScope (OpenAI compatible mode)
	ProviderQwen Provider = "qwen"
	// ProviderArk is Volcengine Ark
	ProviderArk Provider = "ark"
	// ProviderDeepSeek is the DeepSeek API (OpenAI compatible)
	ProviderDeepSeek Provider = "deepseek"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{
	ProviderGemini, ProviderGenAI, ProviderOpenAI, ProviderAnthropic,
	ProviderOllama, ProviderQwen, ProviderArk, ProviderDeepSeek,
}

// ParseProvider converts a user supplied name into a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if p == "" {
		return ProviderGemini, nil
	}
	if p == "claude" {
		return ProviderAnthropic, nil
	}
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", name)
}

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// BaseURL overrides the provider endpoint. Empty means the provider default.
	BaseURL string
	// Temperature applied to every request.
	Temperature float32
}

// defaultTemperature keeps output stable across runs
const defaultTemperature = 0.1

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: defaultTemperature,
	}
}

// DefaultConfigFor returns the default model set for a provider.
func DefaultConfigFor(provider Provider) *Config {
	cfg := &Config{Provider: provider, Temperature: defaultTemperature}
	switch provider {
	case ProviderGemini, ProviderGenAI:
		cfg.Models = DefaultGeminiConfig().Models
	case ProviderOpenAI:
		cfg.Models = map[ModelTier]string{
			TierLite:     "gpt-4o-mini",
			TierStandard: "gpt-4o",
			TierAdvanced: "gpt-4.1",
		}
	case ProviderAnthropic:
		cfg.Models = map[ModelTier]string{
			TierLite:     "claude-3-5-haiku-latest",
			TierStandard: "claude-sonnet-4-0",
			TierAdvanced: "claude-opus-4-0",
		}
	case ProviderOllama:
		cfg.Models = map[ModelTier]string{TierStandard: "llama3.1"}
		cfg.BaseURL = "http://localhost:11434"
	case ProviderQwen:
		cfg.Models = map[ModelTier]string{
			TierLite:     "qwen-turbo",
			TierStandard: "qwen-plus",
			TierAdvanced: "qwen-max",
		}
		cfg.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	case ProviderArk:
		cfg.Models = map[ModelTier]string{TierStandard: "doubao-seed-1-6-250615"}
	case ProviderDeepSeek:
		cfg.Models = map[ModelTier]string{
			TierStandard: "deepseek-chat",
			TierAdvanced: "deepseek-reasoner",
		}
		cfg.BaseURL = "https://api.deepseek.com"
	default:
		return DefaultConfig()
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string),
		BaseURL:     c.BaseURL,
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

// APIKeyEnv returns the environment variable holding the key for a provider.
// Ollama needs no key and returns "".
func APIKeyEnv(provider Provider) string {
	switch provider {
	case ProviderGemini, ProviderGenAI:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderQwen:
		return "DASHSCOPE_API_KEY"
	case ProviderArk:
		return "ARK_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	default:
		return ""
	}
}

// APIKeyFromEnv reads the provider's key from the environment.
func APIKeyFromEnv(provider Provider) string {
	name := APIKeyEnv(provider)
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
