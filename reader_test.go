package goreadable

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

const simpleArticleHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<title>T</title>
</head>
<body>
<div id="main">
<p>Hello world, this is enough content to be considered an article by the
length heuristics, with commas, clauses, and a steady stream of prose that
keeps the character count climbing well past the default threshold.</p>
<p>Readable pages, in practice, carry several paragraphs of flowing text,
each contributing sentences, commas, and characters to the total. Follow the
<a href="/about">about page</a> for details. This second paragraph continues
the argument at a comfortable pace and adds more material for the scorer to
weigh, including an image: <img src="img/pic.png">.</p>
<p>The third paragraph closes the piece, still unhurried, still wordy, and
still contributing to the overall character count, which by now has cleared
five hundred characters with room to spare.</p>
</div>
</body>
</html>`

func mustNewReader(t *testing.T) *Reader {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestParseExtractsArticle(t *testing.T) {
	r := mustNewReader(t)

	a, err := r.Parse(simpleArticleHTML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a.Title != "T" {
		t.Fatalf("title = %q, want %q", a.Title, "T")
	}
	if !strings.Contains(a.TextContent, "Hello world") {
		t.Fatalf("textContent missing fixture prose: %q", a.TextContent)
	}
	if !strings.Contains(a.Content, `id="readability-page-1"`) {
		t.Fatalf("content not wrapped in page container: %q", a.Content)
	}
	if a.Length != len(a.TextContent) {
		t.Fatalf("length = %d, want %d", a.Length, len(a.TextContent))
	}
	if a.Length < 500 {
		t.Fatalf("article implausibly short: %d chars", a.Length)
	}
	if a.Lang != "en" {
		t.Fatalf("lang = %q, want en", a.Lang)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	r := mustNewReader(t)

	first, err := r.Parse(simpleArticleHTML)
	if err != nil {
		t.Fatalf("first Parse: %v", err)
	}
	second, err := r.Parse(simpleArticleHTML)
	if err != nil {
		t.Fatalf("second Parse: %v", err)
	}
	if first.Title != second.Title || first.Content != second.Content || first.TextContent != second.TextContent {
		t.Fatalf("same input produced different articles:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestParseBareBodyIsExtractionError(t *testing.T) {
	r := mustNewReader(t)

	_, err := r.Parse("<html><body></body></html>")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Message != "Failed to extract readable content" {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestParseBrokenHTMLIsParseError(t *testing.T) {
	r := mustNewReader(t)

	_, err := r.Parse("<html")
	if !errors.Is(err, ErrHTMLParse) {
		t.Fatalf("expected HTML parse error, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !strings.HasPrefix(e.Message, "Failed to parse HTML:") {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestParseEmptyInput(t *testing.T) {
	r := mustNewReader(t)

	for _, input := range []string{"", "   \n\t  "} {
		if _, err := r.Parse(input); !errors.Is(err, ErrHTMLParse) {
			t.Fatalf("input %q: expected HTML parse error, got %v", input, err)
		}
	}
}

func TestParseGarbageNeverPanics(t *testing.T) {
	r := mustNewReader(t)

	inputs := []string{
		"\x00\x01\x02\x7f\xfe\xff",
		"plain text without any markup at all",
		"<<<<>>>>",
		"<!doctype html>",
	}
	for _, input := range inputs {
		_, err := r.Parse(input)
		if err == nil {
			t.Fatalf("input %q: expected an error", input)
		}
		var e *Error
		if !errors.As(err, &e) {
			t.Fatalf("input %q: expected *Error, got %T: %v", input, err, err)
		}
	}
}

func TestReaderUsableAfterFailure(t *testing.T) {
	r := mustNewReader(t)

	if _, err := r.Parse("<html"); !errors.Is(err, ErrHTMLParse) {
		t.Fatalf("setup failure parse: %v", err)
	}
	a, err := r.Parse(simpleArticleHTML)
	if err != nil {
		t.Fatalf("reader unusable after input failure: %v", err)
	}
	if a.Title != "T" {
		t.Fatalf("title = %q after failure round trip", a.Title)
	}
}

func TestCharThresholdFlipsResult(t *testing.T) {
	r := mustNewReader(t)

	a, err := r.Parse(simpleArticleHTML)
	if err != nil {
		t.Fatalf("default threshold should extract: %v", err)
	}
	_, err = r.ParseContext(context.Background(), simpleArticleHTML, "", &Options{
		CharThreshold: a.Length + 1000,
	})
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("raised threshold should flip to extraction error, got %v", err)
	}
}

func TestMaxElemsToParseAborts(t *testing.T) {
	r := mustNewReader(t)

	_, err := r.ParseContext(context.Background(), simpleArticleHTML, "", &Options{
		MaxElemsToParse: 2,
	})
	if !errors.Is(err, ErrRuntime) {
		t.Fatalf("expected runtime error from element cap, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !strings.HasPrefix(e.Message, "Readability runtime error:") {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestParseWithURLResolvesRelativeLinks(t *testing.T) {
	r := mustNewReader(t)

	a, err := r.ParseWithURL(simpleArticleHTML, "https://example.com/posts/1")
	if err != nil {
		t.Fatalf("ParseWithURL: %v", err)
	}
	if !strings.Contains(a.Content, `href="https://example.com/about"`) {
		t.Fatalf("relative href not resolved: %s", a.Content)
	}
	if !strings.Contains(a.Content, `src="https://example.com/posts/img/pic.png"`) {
		t.Fatalf("relative img src not resolved: %s", a.Content)
	}
}

func TestParseWithoutURLKeepsLinksRelative(t *testing.T) {
	r := mustNewReader(t)

	a, err := r.Parse(simpleArticleHTML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(a.Content, `href="/about"`) {
		t.Fatalf("expected untouched relative href: %s", a.Content)
	}
}

func TestBaseURLValidation(t *testing.T) {
	r := mustNewReader(t)

	rejected := []string{
		"javascript:alert(1)",
		"data:text/html,<p>x</p>",
		"ftp://example.com/file",
		"/relative/path",
		"example.com/no-scheme",
		"https://",
	}
	for _, base := range rejected {
		_, err := r.ParseWithURL(simpleArticleHTML, base)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("base %q: expected invalid input error, got %v", base, err)
		}
	}

	if _, err := r.ParseWithURL(simpleArticleHTML, "http://example.com"); err != nil {
		t.Fatalf("valid base rejected: %v", err)
	}
}

func TestClosedReader(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Close()
	r.Close() // idempotent
	if _, err := r.Parse(simpleArticleHTML); !errors.Is(err, ErrEngine) {
		t.Fatalf("expected engine error from closed reader, got %v", err)
	}
}

func TestConcurrentParsesAreSerialized(t *testing.T) {
	r := mustNewReader(t)

	const goroutines = 8
	errCh := make(chan error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				if _, err := r.Parse(simpleArticleHTML); err != nil {
					errCh <- err
					return
				}
			}
			errCh <- nil
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent parse failed: %v", err)
		}
	}
}

func TestCanceledContextIsEngineError(t *testing.T) {
	r := mustNewReader(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ParseContext(ctx, simpleArticleHTML, "", nil)
	if !errors.Is(err, ErrEngine) {
		t.Fatalf("expected engine error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cause chain should carry context.Canceled, got %v", err)
	}
	// The reader stays usable; only the call was aborted.
	if _, err := r.Parse(simpleArticleHTML); err != nil {
		t.Fatalf("reader unusable after canceled call: %v", err)
	}
}

func TestBundleInfo(t *testing.T) {
	if BundleVersion() == "" {
		t.Fatalf("empty bundle version")
	}
	if sum := BundleChecksum(); len(sum) != 64 {
		t.Fatalf("checksum %q is not sha256 hex", sum)
	}
}
