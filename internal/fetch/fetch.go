// Package fetch retrieves HTML documents over HTTP with bounded retries,
// optional on-disk caching with conditional revalidation, and transparent
// decoding of the response body to UTF-8.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/hyperifyio/goreadable/internal/cache"
)

// DefaultUserAgent mirrors a desktop browser. Some hosts serve reduced or
// empty markup to obviously non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// Page is one fetched document.
type Page struct {
	// Body is the document decoded to UTF-8.
	Body []byte
	// ContentType is the Content-Type header as sent by the server.
	ContentType string
	// FinalURL is the request URL after following redirects. Use it as the
	// base for resolving relative links in the document.
	FinalURL string
}

// Client wraps http.Client and provides timeouts, limited retry on transient
// errors, and conditional revalidation against an optional cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for bodies and validator headers.
	Cache *cache.HTTPCache
	// BypassCache fetches fresh without conditional headers but still saves
	// the latest response to cache.
	BypassCache bool

	// RedirectMaxHops caps redirect following to avoid loops. Zero means
	// default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client
	// instance. Zero means unlimited.
	MaxConcurrent int

	// internal limiter initialized on first use when MaxConcurrent > 0
	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET with context and bounded retry, revalidating against the
// cache when one is configured. The returned page body is UTF-8.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		res, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			if res.status == http.StatusNotModified {
				if page, ok := c.cachedPage(ctx, rawURL); ok {
					return page, nil
				}
				// The entry vanished between revalidation and read.
				// Refetch without validators.
				etag, lastMod = "", ""
				lastErr = errors.New("cache entry missing after 304")
				continue
			}
			if c.Cache != nil {
				_ = c.Cache.Save(ctx, rawURL, cache.HTTPEntry{
					FinalURL:     res.finalURL,
					ContentType:  res.contentType,
					ETag:         res.etag,
					LastModified: res.lastModified,
				}, res.body)
			}
			return newPage(res.body, res.contentType, res.finalURL)
		}
		if !isTransient(err) || i == attempts-1 {
			return nil, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

// cachedPage reconstructs a Page from the cache, or reports that it cannot.
func (c *Client) cachedPage(ctx context.Context, rawURL string) (*Page, bool) {
	if c.Cache == nil {
		return nil, false
	}
	meta, err := c.Cache.LoadMeta(ctx, rawURL)
	if err != nil {
		return nil, false
	}
	body, err := c.Cache.LoadBody(ctx, rawURL)
	if err != nil {
		return nil, false
	}
	finalURL := meta.FinalURL
	if finalURL == "" {
		finalURL = rawURL
	}
	page, err := newPage(body, meta.ContentType, finalURL)
	if err != nil {
		return nil, false
	}
	return page, true
}

type result struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	finalURL     string
	status       int
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, etag string, lastMod string) (*result, error) {
	// Concurrency gate per client instance
	c.acquire()
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("unsupported URL scheme in %q", rawURL)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", acceptHeader)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return nil, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotModified {
		return &result{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type")}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isAllowedHTMLContentType(contentType) {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &result{
		body:         body,
		contentType:  contentType,
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		finalURL:     finalURL,
		status:       resp.StatusCode,
	}, nil
}

func newPage(body []byte, contentType, finalURL string) (*Page, error) {
	decoded, err := DecodeToUTF8(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", finalURL, err)
	}
	return &Page{Body: decoded, ContentType: contentType, FinalURL: finalURL}, nil
}

// DecodeToUTF8 converts body to UTF-8 using the charset declared in the
// Content-Type header or sniffed from the document head. Content that is
// already valid UTF-8 passes through untouched even when no charset is
// declared, since the windows-1252 fallback would mangle multibyte
// sequences.
func DecodeToUTF8(body []byte, contentType string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return body, nil
	}
	if !certain && utf8.Valid(body) {
		return body, nil
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return nil, fmt.Errorf("charset %s: %w", name, err)
	}
	return decoded, nil
}

func isTransient(err error) bool {
	// Treat HTTP 5xx and context deadline as transient.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// A missing header is tolerated; charset sniffing still applies.
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
