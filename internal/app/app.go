// Package app wires the reader pool, the fetch and cache layers, and the
// renderer behind a single Run call driven by Config.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	goreadable "github.com/hyperifyio/goreadable"
	"github.com/hyperifyio/goreadable/internal/cache"
	"github.com/hyperifyio/goreadable/internal/fetch"
	"github.com/hyperifyio/goreadable/internal/render"
	"github.com/hyperifyio/goreadable/internal/robots"
)

type App struct {
	cfg       Config
	userAgent string
	pool      *goreadable.Pool
	fetcher   *fetch.Client
	httpCache *cache.HTTPCache
	robots    *robots.Manager

	// Stdin and Stdout are the process streams by default; tests substitute
	// buffers.
	Stdin  io.Reader
	Stdout io.Writer
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, Stdin: os.Stdin, Stdout: os.Stdout}

	if cfg.CacheDir != "" {
		// Apply cache invalidation controls before anything reads from it
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheMaxAge > 0 {
			_, _ = cache.PurgeHTTPCacheByAge(cfg.CacheDir, cfg.CacheMaxAge)
		}
		if cfg.CacheMaxBytes > 0 || cfg.CacheMaxEntries > 0 {
			_, _ = cache.EnforceHTTPCacheLimits(cfg.CacheDir, cfg.CacheMaxBytes, cfg.CacheMaxEntries)
		}
		a.httpCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	a.userAgent = cfg.FetchUA
	if a.userAgent == "" {
		a.userAgent = fetch.DefaultUserAgent
	}
	attempts := cfg.FetchAttempts
	if attempts <= 0 {
		attempts = fetchAttemptsDefault
	}
	perRequest := cfg.FetchTimeout
	if perRequest <= 0 {
		perRequest = fetchTimeoutDefault
	}

	// One engine per worker, but never more engines than inputs: each one
	// carries a full script runtime and is expensive to start.
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if n := len(cfg.Inputs); n == 0 && workers > 1 {
		workers = 1
	} else if n > 0 && workers > n {
		workers = n
	}

	a.fetcher = &fetch.Client{
		HTTPClient:        newFetchHTTPClient(),
		UserAgent:         a.userAgent,
		MaxAttempts:       attempts,
		PerRequestTimeout: perRequest,
		Cache:             a.httpCache,
		RedirectMaxHops:   5,
		MaxConcurrent:     workers,
	}
	if cfg.RobotsGate {
		a.robots = &robots.Manager{
			HTTPClient:        newFetchHTTPClient(),
			Cache:             a.httpCache,
			UserAgent:         a.userAgent,
			AllowPrivateHosts: true,
		}
	}

	pool, err := goreadable.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("start readers: %w", err)
	}
	a.pool = pool
	return a, nil
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// Run processes every configured input. A single input reports its error
// directly; a batch isolates per-input failures and only fails as a whole
// when no input succeeded.
func (a *App) Run(ctx context.Context) error {
	args := a.cfg.Inputs
	if len(args) == 0 {
		args = []string{"-"}
	}
	inputs := make([]input, 0, len(args))
	for _, raw := range args {
		in, err := classifyInput(raw)
		if err != nil {
			return err
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 1 {
		return a.runOne(ctx, inputs[0])
	}
	return a.runBatch(ctx, inputs)
}

func (a *App) runOne(ctx context.Context, in input) error {
	art, err := a.extract(ctx, in)
	if err != nil {
		return err
	}
	dest, err := a.writeArticle(in, art)
	if err != nil {
		return err
	}
	evt := log.Info().Str("title", art.Title).Int("chars", art.Length)
	if dest != "" {
		evt = evt.Str("out", dest)
	}
	evt.Msg("extracted")
	return nil
}

func (a *App) runBatch(ctx context.Context, inputs []input) error {
	errs := make([]error, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.pool.Size())
	for i, in := range inputs {
		g.Go(func() error {
			art, err := a.extract(gctx, in)
			if err == nil {
				var dest string
				if dest, err = a.writeArticle(in, art); err == nil {
					log.Info().Str("input", in.raw).Str("out", dest).Msg("extracted")
				}
			}
			if err != nil {
				// Per-input failures are isolated so one bad page does
				// not stop the rest of the batch.
				errs[i] = err
				log.Warn().Err(err).Str("input", in.raw).Msg("input failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	var first error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if first == nil {
			first = fmt.Errorf("%s: %w", inputs[i].raw, err)
		}
	}
	if failed == len(inputs) {
		return first
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Int("total", len(inputs)).Msg("finished with failures")
	}
	return nil
}

func (a *App) extract(ctx context.Context, in input) (*goreadable.Article, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	html, base, err := a.load(ctx, in)
	if err != nil {
		return nil, err
	}
	return a.pool.Parse(ctx, html, base, &a.cfg.Reader)
}

// load produces the HTML and the base URL for one input.
func (a *App) load(ctx context.Context, in input) (string, string, error) {
	switch in.kind {
	case inputFile:
		b, err := os.ReadFile(in.raw)
		if err != nil {
			return "", "", fmt.Errorf("read input: %w", err)
		}
		return string(b), a.cfg.BaseURL, nil
	case inputURL:
		if a.robots != nil {
			allowed, err := a.robots.Allowed(ctx, in.url, a.userAgent)
			if err != nil {
				return "", "", fmt.Errorf("robots check: %w", err)
			}
			if !allowed {
				return "", "", fmt.Errorf("blocked by robots.txt: %s", in.url)
			}
		}
		page, err := a.fetcher.Get(ctx, in.url)
		if err != nil {
			return "", "", fmt.Errorf("fetch %s: %w", in.url, err)
		}
		base := a.cfg.BaseURL
		if base == "" {
			base = page.FinalURL
		}
		return string(page.Body), base, nil
	default:
		r := a.Stdin
		if r == nil {
			r = os.Stdin
		}
		b, err := io.ReadAll(r)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), a.cfg.BaseURL, nil
	}
}

// writeArticle renders to -o, to a derived file under -out.dir, or to
// stdout. The returned path is empty for stdout.
func (a *App) writeArticle(in input, art *goreadable.Article) (string, error) {
	dest := a.cfg.OutputPath
	if dest == "" && a.cfg.OutputDir != "" {
		dest = filepath.Join(a.cfg.OutputDir, outputFileName(in, art.Title, a.cfg.Format))
	}
	if dest == "" {
		return "", render.Article(a.Stdout, art, a.cfg.Format)
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	if err := render.Article(f, art, a.cfg.Format); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("render: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close output: %w", err)
	}
	return dest, nil
}
