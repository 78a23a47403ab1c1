package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/goreadable/internal/render"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.OutputPath == "" {
		cfg.OutputPath = os.Getenv("OUTPUT")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.Getenv("OUTPUT_DIR")
	}
	if cfg.Format == "" {
		if s := os.Getenv("OUTPUT_FORMAT"); s != "" {
			if f, err := render.ParseFormat(s); err == nil {
				cfg.Format = f
			}
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("BASE_URL")
	}
	if cfg.FetchUA == "" {
		cfg.FetchUA = os.Getenv("FETCH_UA")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}

	if cfg.Workers == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("WORKERS"))); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if cfg.FetchAttempts == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("FETCH_ATTEMPTS"))); err == nil && n > 0 {
			cfg.FetchAttempts = n
		}
	}
	if cfg.CacheMaxBytes == 0 {
		if n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("CACHE_MAX_BYTES")), 10, 64); err == nil && n > 0 {
			cfg.CacheMaxBytes = n
		}
	}
	if cfg.CacheMaxEntries == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CACHE_MAX_ENTRIES"))); err == nil && n > 0 {
			cfg.CacheMaxEntries = n
		}
	}

	// Optional durations
	setDuration := func(dst *time.Duration, envKey string) {
		if *dst != 0 {
			return
		}
		if s := os.Getenv(envKey); s != "" {
			if d, err := time.ParseDuration(s); err == nil && d > 0 {
				*dst = d
			}
		}
	}
	setDuration(&cfg.Timeout, "TIMEOUT")
	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	// Booleans
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.RobotsGate, "FETCH_ROBOTS")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment
// variables when the corresponding env vars are set. This lets env take
// precedence over values coming from a config file while flags remain
// highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("OUTPUT"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("OUTPUT_FORMAT"); v != "" {
		if f, err := render.ParseFormat(v); err == nil {
			cfg.Format = f
		}
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("FETCH_UA"); v != "" {
		cfg.FetchUA = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("WORKERS"))); err == nil && n > 0 {
		cfg.Workers = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("FETCH_ATTEMPTS"))); err == nil && n > 0 {
		cfg.FetchAttempts = n
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("CACHE_MAX_BYTES")), 10, 64); err == nil && n > 0 {
		cfg.CacheMaxBytes = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CACHE_MAX_ENTRIES"))); err == nil && n > 0 {
		cfg.CacheMaxEntries = n
	}

	setDuration := func(dst *time.Duration, envKey string) {
		if s := os.Getenv(envKey); s != "" {
			if d, err := time.ParseDuration(s); err == nil && d > 0 {
				*dst = d
			}
		}
	}
	setDuration(&cfg.Timeout, "TIMEOUT")
	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.RobotsGate, "FETCH_ROBOTS")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
