package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by NewJWTConfig.
const (
	JWTSecretEnv     = "RESUME_GENIE_JWT_SECRET"
	JWTExpirationEnv = "RESUME_GENIE_JWT_EXPIRATION_HOURS"
)

const (
	minJWTSecretBytes     = 32
	defaultJWTExpiryHours = 24
)

// JWTConfig is the HS256 signing setup for API bearer tokens.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig builds the token config from the environment. A nil config
// with no error means no secret is set and the API is unauthenticated.
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv(JWTSecretEnv)
	if secret == "" {
		return nil, nil
	}

	cfg := &JWTConfig{Secret: secret, ExpirationHours: defaultJWTExpiryHours}
	if raw := os.Getenv(JWTExpirationEnv); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s=%q is not a whole number of hours", JWTExpirationEnv, raw)
		}
		cfg.ExpirationHours = hours
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects secrets shorter than 32 bytes and lifetimes under an hour.
func (c *JWTConfig) Validate() error {
	if n := len(c.Secret); n < minJWTSecretBytes {
		return fmt.Errorf("%s must be at least %d bytes, got %d", JWTSecretEnv, minJWTSecretBytes, n)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", JWTExpirationEnv, c.ExpirationHours)
	}
	return nil
}

// Expiration is the lifetime of an issued token.
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}
