package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	goreadable "github.com/hyperifyio/goreadable"
	"github.com/hyperifyio/goreadable/internal/app"
	"github.com/hyperifyio/goreadable/internal/render"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// .env is optional and loads before flag definitions so its values feed
	// the env-backed flag defaults below.
	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Warn().Err(err).Msg("load .env")
	}

	var (
		outputPath      string
		outputDir       string
		formatName      string
		baseURL         string
		workers         int
		timeout         time.Duration
		fetchUA         string
		fetchTimeout    time.Duration
		fetchAttempts   int
		fetchRobots     bool
		cacheDir        string
		cacheMaxAge     time.Duration
		cacheClear      bool
		cacheStrict     bool
		cacheMaxBytes   int64
		cacheMaxEntries int

		readerMaxElems      int
		readerTopCandidates int
		readerCharThreshold int
		readerClasses       string
		readerKeepClasses   bool
		readerNoJSONLD      bool
		readerLinkDensity   float64
		readerDebug         bool

		configPath  string
		verbose     bool
		showVersion bool
	)

	flag.StringVar(&outputPath, "o", os.Getenv("OUTPUT"), "Write the rendered article to this file instead of stdout")
	flag.StringVar(&outputDir, "out.dir", os.Getenv("OUTPUT_DIR"), "Directory for per-input output files (required for multiple inputs)")
	flag.StringVar(&formatName, "format", envOr("OUTPUT_FORMAT", "markdown"), "Output format: markdown, html, text, json or pdf")
	flag.StringVar(&baseURL, "base", os.Getenv("BASE_URL"), "Base URL for resolving relative links in file and stdin inputs")
	flag.IntVar(&workers, "workers", envOrInt("WORKERS", 4), "Maximum concurrent extractions for multiple inputs")
	flag.DurationVar(&timeout, "timeout", envOrDuration("TIMEOUT", 0), "Per-input time limit covering load and extraction (0 disables)")
	flag.StringVar(&fetchUA, "fetch.ua", os.Getenv("FETCH_UA"), "User-Agent for page fetches (default: a desktop browser string)")
	flag.DurationVar(&fetchTimeout, "fetch.timeout", envOrDuration("FETCH_TIMEOUT", 15*time.Second), "Timeout per fetch attempt")
	flag.IntVar(&fetchAttempts, "fetch.attempts", envOrInt("FETCH_ATTEMPTS", 2), "Fetch attempts per URL including the first")
	flag.BoolVar(&fetchRobots, "fetch.robots", false, "Honor robots.txt for URL inputs")
	flag.StringVar(&cacheDir, "cache.dir", os.Getenv("CACHE_DIR"), "HTTP cache directory (empty disables caching)")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", envOrDuration("CACHE_MAX_AGE", 0), "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear the cache directory before the run")
	flag.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.Int64Var(&cacheMaxBytes, "cache.maxBytes", 0, "Evict oldest cache entries above this total size in bytes (0 disables)")
	flag.IntVar(&cacheMaxEntries, "cache.maxEntries", 0, "Evict oldest cache entries above this count (0 disables)")

	flag.IntVar(&readerMaxElems, "reader.maxElems", 0, "Refuse documents with more elements than this (0 disables)")
	flag.IntVar(&readerTopCandidates, "reader.topCandidates", 0, "Number of scored candidates to weigh (0 uses the default)")
	flag.IntVar(&readerCharThreshold, "reader.charThreshold", 0, "Minimum article length in characters (0 uses the default)")
	flag.StringVar(&readerClasses, "reader.classesToPreserve", "", "Comma-separated class names kept on output elements")
	flag.BoolVar(&readerKeepClasses, "reader.keepClasses", false, "Keep all class attributes on output elements")
	flag.BoolVar(&readerNoJSONLD, "reader.disableJSONLD", false, "Skip JSON-LD metadata extraction")
	flag.Float64Var(&readerLinkDensity, "reader.linkDensity", 0, "Link density modifier; negative keeps more link-heavy blocks")
	flag.BoolVar(&readerDebug, "reader.debug", false, "Log extraction internals from the bundle")

	flag.StringVar(&configPath, "config", os.Getenv("GOREADABLE_CONFIG"), "Path to YAML or JSON config file")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&showVersion, "version", false, "Print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("goreadable %s (commit %s, built %s, bundle %s)\n",
			app.BuildVersion, app.BuildCommit, app.BuildDate, goreadable.BundleVersion())
		return
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	format, err := render.ParseFormat(formatName)
	if err != nil {
		log.Error().Err(err).Msg("bad -format")
		os.Exit(1)
	}

	cfg := app.Config{
		Inputs:           flag.Args(),
		OutputPath:       outputPath,
		OutputDir:        outputDir,
		Format:           format,
		BaseURL:          baseURL,
		Workers:          workers,
		Timeout:          timeout,
		FetchUA:          fetchUA,
		FetchTimeout:     fetchTimeout,
		FetchAttempts:    fetchAttempts,
		RobotsGate:       fetchRobots,
		CacheDir:         cacheDir,
		CacheMaxAge:      cacheMaxAge,
		CacheClear:       cacheClear,
		CacheStrictPerms: cacheStrict,
		CacheMaxBytes:    cacheMaxBytes,
		CacheMaxEntries:  cacheMaxEntries,
		Verbose:          verbose,
		Reader: goreadable.Options{
			MaxElemsToParse:     readerMaxElems,
			NbTopCandidates:     readerTopCandidates,
			CharThreshold:       readerCharThreshold,
			ClassesToPreserve:   splitList(readerClasses),
			KeepClasses:         readerKeepClasses,
			DisableJSONLD:       readerNoJSONLD,
			LinkDensityModifier: readerLinkDensity,
			Debug:               readerDebug,
		},
	}

	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
		// Environment still outranks file values.
		app.ApplyEnvOverrides(&cfg)
	} else {
		app.ApplyEnvToConfig(&cfg)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// A page with nothing readable is the common, expected failure and
		// gets its own exit code so scripts can tell it from real faults.
		if errors.Is(err, goreadable.ErrExtraction) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	return list
}
