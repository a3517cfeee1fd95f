package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func TestNewJWTConfig_DefaultValues(t *testing.T) {
	t.Setenv("RESUME_GENIE_JWT_SECRET", testSecret)
	t.Setenv("RESUME_GENIE_JWT_EXPIRATION_HOURS", "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, testSecret, cfg.Secret)
	assert.Equal(t, 24, cfg.ExpirationHours)
}

func TestNewJWTConfig_CustomExpiration(t *testing.T) {
	t.Setenv("RESUME_GENIE_JWT_SECRET", testSecret)
	t.Setenv("RESUME_GENIE_JWT_EXPIRATION_HOURS", "48")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.ExpirationHours)
}

func TestNewJWTConfig_MissingSecretDisablesAuth(t *testing.T) {
	t.Setenv("RESUME_GENIE_JWT_SECRET", "")

	cfg, err := NewJWTConfig()
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestNewJWTConfig_ShortSecret(t *testing.T) {
	t.Setenv("RESUME_GENIE_JWT_SECRET", "short")

	_, err := NewJWTConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestNewJWTConfig_InvalidExpiration(t *testing.T) {
	t.Setenv("RESUME_GENIE_JWT_SECRET", testSecret)

	for _, value := range []string{"abc", "0", "-3"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("RESUME_GENIE_JWT_EXPIRATION_HOURS", value)
			_, err := NewJWTConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), JWTExpirationEnv)
		})
	}
}

func TestJWTConfig_ValidateAndExpiration(t *testing.T) {
	cfg := &JWTConfig{Secret: testSecret, ExpirationHours: 6}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 6*time.Hour, cfg.Expiration())

	cfg.ExpirationHours = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), JWTExpirationEnv)

	cfg = &JWTConfig{Secret: strings.Repeat("k", 31), ExpirationHours: 1}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 31")
}
