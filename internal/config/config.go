// Package config provides configuration loading and validation for the CLI,
// server and worker.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration that can be loaded from a JSON or YAML
// file. All fields are optional; missing values use defaults, environment
// variables or CLI flags.
type Config struct {
	// Inputs: local paths, http(s) URLs or s3://bucket/key URIs
	JobPosting string `json:"job_posting,omitempty" yaml:"job_posting,omitempty"`
	Resume     string `json:"resume,omitempty" yaml:"resume,omitempty"`

	// Model
	Provider    string `json:"provider,omitempty" yaml:"provider,omitempty" validate:"omitempty,oneof=gemini genai openai anthropic claude ollama qwen ark deepseek"`
	Tier        string `json:"tier,omitempty" yaml:"tier,omitempty" validate:"omitempty,oneof=lite standard advanced"`
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`       // Overrides the model for Tier
	BaseURL     string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	PromptsFile string `json:"prompts_file,omitempty" yaml:"prompts_file,omitempty"` // JSON file overriding embedded prompts

	// Behavior
	StepTimeoutSeconds int    `json:"step_timeout_seconds,omitempty" yaml:"step_timeout_seconds,omitempty" validate:"gte=0"`
	RunTimeoutSeconds  int    `json:"run_timeout_seconds,omitempty" yaml:"run_timeout_seconds,omitempty" validate:"gte=0"`
	ValidateOutput     bool   `json:"validate_output,omitempty" yaml:"validate_output,omitempty"`
	UseBrowser         bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"` // Use headless browser for SPA job pages
	Verbose            bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	LogLevel           string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error"`
	LogFormat          string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=text json"`

	// Persistence (at most one)
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	SQLitePath  string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`

	// Server and worker
	Port        int    `json:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	AMQPURL     string `json:"amqp_url,omitempty" yaml:"amqp_url,omitempty" validate:"omitempty,url"`
	Concurrency int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0,lte=64"`

	// Object storage for s3:// inputs
	S3Endpoint string `json:"s3_endpoint,omitempty" yaml:"s3_endpoint,omitempty" validate:"omitempty,url"`
	S3Region   string `json:"s3_region,omitempty" yaml:"s3_region,omitempty"`
}

var validate = newValidator()

// newValidator reports fields by their config key instead of the Go name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		Provider:           "gemini",
		Tier:               "standard",
		StepTimeoutSeconds: 120,
		LogLevel:           "info",
		LogFormat:          "text",
		Port:               8080,
		Concurrency:        2,
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Environment variables in YAML files are expanded.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required inputs are not checked here since they may still come from flags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.DatabaseURL != "" && c.SQLitePath != "" {
		return fmt.Errorf("config error: 'database_url' and 'sqlite_path' are mutually exclusive")
	}

	if c.PromptsFile != "" {
		if _, err := os.Stat(c.PromptsFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: prompts file not found: %s", c.PromptsFile)
		}
	}

	inputs := []struct{ name, src string }{
		{"job_posting", c.JobPosting},
		{"resume", c.Resume},
	}
	for _, in := range inputs {
		if in.src == "" || IsRemote(in.src) {
			continue
		}
		if _, err := os.Stat(in.src); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", in.name, in.src)
		}
	}

	return nil
}

// IsRemote reports whether an input source is fetched over the network.
func IsRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "s3://")
}

// ApplyEnv fills empty fields from environment variables.
func (c *Config) ApplyEnv() {
	envs := []struct {
		field *string
		name  string
	}{
		{&c.JobPosting, "JOB_POSTING_PATH"},
		{&c.Resume, "RESUME_PATH"},
		{&c.DatabaseURL, "DATABASE_URL"},
		{&c.AMQPURL, "RABBITMQ_URL"},
		{&c.S3Endpoint, "S3_ENDPOINT"},
		{&c.S3Region, "AWS_REGION"},
		{&c.LogLevel, "LOG_LEVEL"},
	}
	for _, e := range envs {
		if *e.field == "" {
			*e.field = os.Getenv(e.name)
		}
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	strs := []struct{ dst, def *string }{
		{&result.JobPosting, &defaults.JobPosting},
		{&result.Resume, &defaults.Resume},
		{&result.Provider, &defaults.Provider},
		{&result.Tier, &defaults.Tier},
		{&result.Model, &defaults.Model},
		{&result.BaseURL, &defaults.BaseURL},
		{&result.APIKey, &defaults.APIKey},
		{&result.PromptsFile, &defaults.PromptsFile},
		{&result.LogLevel, &defaults.LogLevel},
		{&result.LogFormat, &defaults.LogFormat},
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.SQLitePath, &defaults.SQLitePath},
		{&result.AMQPURL, &defaults.AMQPURL},
		{&result.S3Endpoint, &defaults.S3Endpoint},
		{&result.S3Region, &defaults.S3Region},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = *s.def
		}
	}

	// Int fields: use default if zero
	if result.StepTimeoutSeconds == 0 {
		result.StepTimeoutSeconds = defaults.StepTimeoutSeconds
	}
	if result.RunTimeoutSeconds == 0 {
		result.RunTimeoutSeconds = defaults.RunTimeoutSeconds
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// StepTimeout returns the per-step timeout.
func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.StepTimeoutSeconds) * time.Second
}

// RunTimeout returns the per-run timeout.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}
