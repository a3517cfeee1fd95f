package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	// Empty config should return empty string
	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel(TierAdvanced, "custom-model")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))

	// New config should have custom model
	assert.Equal(t, "custom-model", newConfig.GetModel(TierAdvanced))

	// Other tiers should be copied
	assert.Equal(t, "gemini-2.5-flash-lite", newConfig.GetModel(TierLite))
}

func TestModelTierConstants(t *testing.T) {
	assert.Equal(t, ModelTier("lite"), TierLite)
	assert.Equal(t, ModelTier("standard"), TierStandard)
	assert.Equal(t, ModelTier("advanced"), TierAdvanced)
}

func TestProviderConstants(t *testing.T) {
	assert.Equal(t, Provider("gemini"), ProviderGemini)
	assert.Equal(t, Provider("openai"), ProviderOpenAI)
	assert.Equal(t, Provider("anthropic"), ProviderAnthropic)
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input    string
		expected Provider
		wantErr  bool
	}{
		{"", ProviderGemini, false},
		{"gemini", ProviderGemini, false},
		{" OpenAI ", ProviderOpenAI, false},
		{"claude", ProviderAnthropic, false},
		{"deepseek", ProviderDeepSeek, false},
		{"mystery", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParseProvider(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestDefaultConfigFor(t *testing.T) {
	for _, p := range Providers {
		cfg := DefaultConfigFor(p)
		assert.Equal(t, p, cfg.Provider)
		assert.NotEmpty(t, cfg.GetModel(TierStandard), "provider %s has no standard model", p)
	}

	assert.Equal(t, "https://api.deepseek.com", DefaultConfigFor(ProviderDeepSeek).BaseURL)
	assert.Equal(t, ProviderGemini, DefaultConfigFor("unknown").Provider)
}

func TestWithModel_KeepsProviderSettings(t *testing.T) {
	config := DefaultConfigFor(ProviderQwen)
	newConfig := config.WithModel(TierLite, "qwen-small")

	assert.Equal(t, config.BaseURL, newConfig.BaseURL)
	assert.Equal(t, config.Temperature, newConfig.Temperature)
	assert.Equal(t, "qwen-small", newConfig.GetModel(TierLite))
}

func TestAPIKeyEnv(t *testing.T) {
	assert.Equal(t, "GEMINI_API_KEY", APIKeyEnv(ProviderGenAI))
	assert.Equal(t, "ANTHROPIC_API_KEY", APIKeyEnv(ProviderAnthropic))
	assert.Equal(t, "", APIKeyEnv(ProviderOllama))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	assert.Equal(t, "sk-test", APIKeyFromEnv(ProviderOpenAI))
	assert.Equal(t, "", APIKeyFromEnv(ProviderOllama))
}
