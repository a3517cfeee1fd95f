package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultRules limits the endpoints that start pipeline runs. Each run costs
// four model calls, so they get far stricter limits than reads.
func DefaultRules() []Rule {
	return []Rule{
		{Method: "POST", Path: "/runs", Limit: 20, Window: time.Hour, Burst: 3},
		{Method: "POST", Path: "/runs/stream", Limit: 20, Window: time.Hour, Burst: 3},
		{Method: "DELETE", Path: "/runs/", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// LoadConfig reads RATE_LIMIT_* environment variables. Limiting is on unless
// RATE_LIMIT_ENABLED is false.
func LoadConfig() Config {
	if !envBool("RATE_LIMIT_ENABLED", true) {
		return Config{}
	}
	return Config{
		Enabled:         true,
		DefaultLimit:    envInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   envDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: envDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Allowlist:       parseIPList(os.Getenv("RATE_LIMIT_ALLOWLIST")),
		Denylist:        parseIPList(os.Getenv("RATE_LIMIT_DENYLIST")),
		Rules:           DefaultRules(),
	}
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

// parseIPList parses a comma-separated list of client addresses.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
