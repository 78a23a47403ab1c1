package goreadable

import (
	"context"
	"strings"
	"testing"
)

const metadataArticleHTML = `<!DOCTYPE html>
<html lang="fi">
<head>
<title>Meta Title</title>
<meta property="og:site_name" content="Example News">
<meta property="og:description" content="A concise summary of the piece.">
<meta property="article:published_time" content="2024-03-01T10:00:00Z">
<meta name="author" content="Jane Doe">
<script type="application/ld+json">
{"@type":"NewsArticle","headline":"Structured Title","author":{"name":"John Writer"},"datePublished":"2024-02-28T08:00:00Z"}
</script>
</head>
<body>
<div id="main" dir="rtl">
<p>Hello world, this is enough content to be considered an article by the
length heuristics, with commas, clauses, and a steady stream of prose that
keeps the character count climbing well past the default threshold.</p>
<p>Readable pages, in practice, carry several paragraphs of flowing text,
each contributing sentences, commas, and characters to the total. This
second paragraph continues the argument at a comfortable pace and adds more
material for the scorer to weigh.</p>
<p>The third paragraph closes the piece, still unhurried, still wordy, and
still contributing to the overall character count, which by now has cleared
five hundred characters with room to spare.</p>
</div>
</body>
</html>`

func TestMetadataFields(t *testing.T) {
	r := mustNewReader(t)

	a, err := r.Parse(metadataArticleHTML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// JSON-LD outranks meta tags and the title element.
	if a.Title != "Structured Title" {
		t.Fatalf("title = %q, want JSON-LD headline", a.Title)
	}
	if a.Byline != "John Writer" {
		t.Fatalf("byline = %q, want JSON-LD author", a.Byline)
	}
	if a.PublishedTime != "2024-02-28T08:00:00Z" {
		t.Fatalf("publishedTime = %q", a.PublishedTime)
	}
	if a.SiteName != "Example News" {
		t.Fatalf("siteName = %q", a.SiteName)
	}
	if a.Excerpt != "A concise summary of the piece." {
		t.Fatalf("excerpt = %q", a.Excerpt)
	}
	if a.Lang != "fi" {
		t.Fatalf("lang = %q", a.Lang)
	}
	if a.Dir != "rtl" {
		t.Fatalf("dir = %q", a.Dir)
	}
}

func TestDisableJSONLDFallsBackToMeta(t *testing.T) {
	r := mustNewReader(t)

	a, err := r.ParseContext(context.Background(), metadataArticleHTML, "", &Options{
		DisableJSONLD: true,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a.Title != "Meta Title" {
		t.Fatalf("title = %q, want title element fallback", a.Title)
	}
	if a.Byline != "Jane Doe" {
		t.Fatalf("byline = %q, want meta author", a.Byline)
	}
	if a.PublishedTime != "2024-03-01T10:00:00Z" {
		t.Fatalf("publishedTime = %q, want meta value", a.PublishedTime)
	}
}

const classedArticleHTML = `<!DOCTYPE html>
<html>
<head><title>Classes</title></head>
<body>
<div id="main">
<p class="fancy callout">Hello world, this is enough content to be considered
an article by the length heuristics, with commas, clauses, and a steady
stream of prose that keeps the character count climbing well past the
default threshold.</p>
<p class="fancy">Readable pages, in practice, carry several paragraphs of
flowing text, each contributing sentences, commas, and characters to the
total. This second paragraph continues the argument at a comfortable pace
and adds more material for the scorer to weigh.</p>
<p>The third paragraph closes the piece, still unhurried, still wordy, and
still contributing to the overall character count, which by now has cleared
five hundred characters with room to spare.</p>
</div>
</body>
</html>`

func TestClassStrippingDefault(t *testing.T) {
	r := mustNewReader(t)

	a, err := r.Parse(classedArticleHTML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Contains(a.Content, "callout") || strings.Contains(a.Content, "fancy") {
		t.Fatalf("classes not stripped: %s", a.Content)
	}
}

func TestKeepClasses(t *testing.T) {
	r := mustNewReader(t)

	a, err := r.ParseContext(context.Background(), classedArticleHTML, "", &Options{
		KeepClasses: true,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(a.Content, `class="fancy callout"`) {
		t.Fatalf("classes should survive with KeepClasses: %s", a.Content)
	}
}

func TestClassesToPreserve(t *testing.T) {
	r := mustNewReader(t)

	a, err := r.ParseContext(context.Background(), classedArticleHTML, "", &Options{
		ClassesToPreserve: []string{"callout"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(a.Content, `class="callout"`) {
		t.Fatalf("preserved class missing: %s", a.Content)
	}
	if strings.Contains(a.Content, "fancy") {
		t.Fatalf("non-preserved class should be stripped: %s", a.Content)
	}
}
