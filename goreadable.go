// Package goreadable extracts the readable article from an HTML document.
//
// The extraction algorithm is the JavaScript Readability implementation
// embedded under internal/bundle and executed in an in-process goja
// runtime. A Reader owns one such runtime: creating a Reader is expensive
// (the bundle is evaluated into a fresh execution context), parsing with it
// is cheap, so create few and reuse them. For concurrent workloads use a
// Pool, which keeps one Reader per slot.
//
// Failures are *Error values classified by Kind. Input-level verdicts
// (KindHTMLParse, KindRuntime, KindExtraction) describe the document and
// leave the Reader fully usable; KindEngine means the embedding itself
// failed and the instance should be discarded.
package goreadable

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/hyperifyio/goreadable/internal/bundle"
	"github.com/hyperifyio/goreadable/internal/engine"
)

// Reader extracts articles using one dedicated execution context. Safe for
// concurrent use; calls are serialized internally because the underlying
// context handles a single invocation at a time.
type Reader struct {
	mu  sync.Mutex
	eng *engine.Engine
}

// New creates a Reader with a freshly initialized execution context.
func New() (*Reader, error) {
	eng, err := engine.New()
	if err != nil {
		return nil, &Error{Kind: KindEngine, Message: "initialize engine", Err: err}
	}
	return &Reader{eng: eng}, nil
}

// Parse extracts the readable content from html using default options and
// no base URL.
func (r *Reader) Parse(html string) (*Article, error) {
	return r.ParseContext(context.Background(), html, "", nil)
}

// ParseWithURL extracts the readable content from html, resolving relative
// links in the result against baseURL.
func (r *Reader) ParseWithURL(html, baseURL string) (*Article, error) {
	return r.ParseContext(context.Background(), html, baseURL, nil)
}

// ParseContext is the full-control variant: ctx bounds the extraction (a
// canceled or expired context interrupts the engine mid-call), baseURL may
// be empty, opts may be nil for defaults.
//
// A failed call never poisons the Reader unless the returned error matches
// ErrEngine.
func (r *Reader) ParseContext(ctx context.Context, html, baseURL string, opts *Options) (*Article, error) {
	if baseURL != "" {
		if err := validateBaseURL(baseURL); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eng == nil {
		return nil, &Error{Kind: KindEngine, Message: "reader is closed"}
	}
	raw, err := r.eng.Invoke(ctx, html, baseURL, opts.wire())
	if err != nil {
		return nil, &Error{Kind: KindEngine, Message: "invoke extraction", Err: err}
	}
	return decodeResult(raw)
}

// Close releases the execution context. Further calls fail with an engine
// error. Safe to call more than once.
func (r *Reader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eng != nil {
		r.eng.Close()
		r.eng = nil
	}
}

// validateBaseURL rejects base URLs the extraction output must never link
// against. Only absolute http and https URLs with a host are accepted;
// javascript: and data: in particular are refused outright.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("invalid base URL %q", raw), Err: err}
	}
	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "http", "https":
		if u.Host == "" {
			return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("base URL %q has no host", raw)}
		}
		return nil
	case "":
		return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("base URL %q is not absolute", raw)}
	default:
		return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("base URL scheme %q not allowed, want http or https", scheme)}
	}
}

// BundleVersion reports the version of the embedded extraction bundle.
func BundleVersion() string { return bundle.Version }

// BundleChecksum reports the SHA-256 checksum of the embedded extraction
// bundle source.
func BundleChecksum() string { return bundle.Checksum() }
