package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/goreadable/internal/render"
)

// FileConfig represents the single-file configuration schema. Nested
// sections mirror the dotted flag names. Durations are written as strings
// ("15s", "24h") and parsed when applied.
type FileConfig struct {
	Output  string `yaml:"output" json:"output"`
	OutDir  string `yaml:"outDir" json:"outDir"`
	Format  string `yaml:"format" json:"format"`
	Base    string `yaml:"base" json:"base"`
	Workers int    `yaml:"workers" json:"workers"`
	Timeout string `yaml:"timeout" json:"timeout"`
	Verbose bool   `yaml:"verbose" json:"verbose"`

	Fetch struct {
		UA       string `yaml:"ua" json:"ua"`
		Timeout  string `yaml:"timeout" json:"timeout"`
		Attempts int    `yaml:"attempts" json:"attempts"`
		Robots   bool   `yaml:"robots" json:"robots"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string `yaml:"dir" json:"dir"`
		MaxAge      string `yaml:"maxAge" json:"maxAge"`
		Clear       bool   `yaml:"clear" json:"clear"`
		StrictPerms bool   `yaml:"strictPerms" json:"strictPerms"`
		MaxBytes    int64  `yaml:"maxBytes" json:"maxBytes"`
		MaxEntries  int    `yaml:"maxEntries" json:"maxEntries"`
	} `yaml:"cache" json:"cache"`

	Reader struct {
		MaxElems          int      `yaml:"maxElems" json:"maxElems"`
		TopCandidates     int      `yaml:"topCandidates" json:"topCandidates"`
		CharThreshold     int      `yaml:"charThreshold" json:"charThreshold"`
		ClassesToPreserve []string `yaml:"classesToPreserve" json:"classesToPreserve"`
		KeepClasses       bool     `yaml:"keepClasses" json:"keepClasses"`
		DisableJSONLD     bool     `yaml:"disableJSONLD" json:"disableJSONLD"`
		LinkDensity       float64  `yaml:"linkDensity" json:"linkDensity"`
		Debug             bool     `yaml:"debug" json:"debug"`
	} `yaml:"reader" json:"reader"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Defaults from flag parsing that file config may override when the flags
// were not set explicitly. Keep in sync with cmd/goreadable.
const (
	formatDefault        = render.FormatMarkdown
	workersDefault       = 4
	fetchTimeoutDefault  = 15 * time.Second
	fetchAttemptsDefault = 2
)

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are currently unset or still at their flag default. Flags should
// already have been parsed; this lets file config supply defaults while
// preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}

	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.OutputDir == "" && fc.OutDir != "" {
		cfg.OutputDir = fc.OutDir
	}
	if (cfg.Format == "" || cfg.Format == formatDefault) && fc.Format != "" {
		if f, err := render.ParseFormat(fc.Format); err == nil {
			cfg.Format = f
		}
	}
	if cfg.BaseURL == "" && fc.Base != "" {
		cfg.BaseURL = fc.Base
	}
	if (cfg.Workers == 0 || cfg.Workers == workersDefault) && fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = parseOptionalDuration(fc.Timeout)
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if cfg.FetchUA == "" && fc.Fetch.UA != "" {
		cfg.FetchUA = fc.Fetch.UA
	}
	if cfg.FetchTimeout == 0 || cfg.FetchTimeout == fetchTimeoutDefault {
		if d := parseOptionalDuration(fc.Fetch.Timeout); d > 0 {
			cfg.FetchTimeout = d
		}
	}
	if (cfg.FetchAttempts == 0 || cfg.FetchAttempts == fetchAttemptsDefault) && fc.Fetch.Attempts > 0 {
		cfg.FetchAttempts = fc.Fetch.Attempts
	}
	if !cfg.RobotsGate && fc.Fetch.Robots {
		cfg.RobotsGate = true
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 {
		cfg.CacheMaxAge = parseOptionalDuration(fc.Cache.MaxAge)
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}

	if cfg.Reader.MaxElemsToParse == 0 && fc.Reader.MaxElems > 0 {
		cfg.Reader.MaxElemsToParse = fc.Reader.MaxElems
	}
	if cfg.Reader.NbTopCandidates == 0 && fc.Reader.TopCandidates > 0 {
		cfg.Reader.NbTopCandidates = fc.Reader.TopCandidates
	}
	if cfg.Reader.CharThreshold == 0 && fc.Reader.CharThreshold > 0 {
		cfg.Reader.CharThreshold = fc.Reader.CharThreshold
	}
	if len(cfg.Reader.ClassesToPreserve) == 0 && len(fc.Reader.ClassesToPreserve) > 0 {
		cfg.Reader.ClassesToPreserve = append([]string{}, fc.Reader.ClassesToPreserve...)
	}
	if !cfg.Reader.KeepClasses && fc.Reader.KeepClasses {
		cfg.Reader.KeepClasses = true
	}
	if !cfg.Reader.DisableJSONLD && fc.Reader.DisableJSONLD {
		cfg.Reader.DisableJSONLD = true
	}
	if cfg.Reader.LinkDensityModifier == 0 && fc.Reader.LinkDensity != 0 {
		cfg.Reader.LinkDensityModifier = fc.Reader.LinkDensity
	}
	if !cfg.Reader.Debug && fc.Reader.Debug {
		cfg.Reader.Debug = true
	}
}

// parseOptionalDuration parses a duration string, treating empty or
// malformed values as unset.
func parseOptionalDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
