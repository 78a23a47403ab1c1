package app

import (
	"errors"
	"strings"
	"time"

	goreadable "github.com/hyperifyio/goreadable"
	"github.com/hyperifyio/goreadable/internal/render"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Inputs are the positional arguments: URLs, file paths, or "-" for
	// stdin. Empty means read stdin.
	Inputs []string

	// Output
	OutputPath string
	OutputDir  string
	Format     render.Format

	// BaseURL overrides the base used to resolve relative links. File and
	// stdin inputs have no natural base; URL inputs default to their final
	// post-redirect URL.
	BaseURL string

	// Extraction
	Reader  goreadable.Options
	Workers int
	// Timeout bounds load plus extraction per input. Zero disables.
	Timeout time.Duration

	// Fetch
	FetchUA       string
	FetchTimeout  time.Duration
	FetchAttempts int
	RobotsGate    bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxBytes    int64
	CacheMaxEntries  int

	Verbose bool
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if cfg.Format == "" {
		return errors.New("config: output format is required")
	}
	if len(cfg.Inputs) > 1 {
		if cfg.OutputPath != "" {
			return errors.New("config: -o applies to a single input; use -out.dir for multiple")
		}
		if strings.TrimSpace(cfg.OutputDir) == "" {
			return errors.New("config: -out.dir is required for multiple inputs")
		}
	}
	stdins := 0
	for _, in := range cfg.Inputs {
		if s := strings.TrimSpace(in); s == "" || s == "-" {
			stdins++
		}
	}
	if stdins > 1 {
		return errors.New("config: stdin may be given at most once")
	}
	if cfg.Format == render.FormatPDF && cfg.OutputPath == "" && cfg.OutputDir == "" {
		return errors.New("config: pdf output requires -o or -out.dir")
	}
	if cfg.Workers < 0 || cfg.Timeout < 0 || cfg.FetchTimeout < 0 || cfg.FetchAttempts < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.CacheMaxBytes < 0 || cfg.CacheMaxEntries < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative cache limits are not allowed")
	}
	return nil
}
