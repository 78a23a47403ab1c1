package render

import (
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	goreadable "github.com/hyperifyio/goreadable"
)

// Markdown writes the article as Markdown: a top-level heading with the
// title, an italic attribution line when the document carried one, then the
// converted article body. Links and images survive the conversion; relative
// URLs were already resolved by the extractor when a base URL was given.
func Markdown(w io.Writer, a *goreadable.Article) error {
	body, err := htmltomarkdown.ConvertString(a.Content)
	if err != nil {
		return fmt.Errorf("convert article HTML to markdown: %w", err)
	}

	var b strings.Builder
	if title := strings.TrimSpace(a.Title); title != "" {
		b.WriteString("# ")
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	if attr := attributionLine(a); attr != "" {
		b.WriteString("*")
		b.WriteString(attr)
		b.WriteString("*\n\n")
	}
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")

	_, err = io.WriteString(w, b.String())
	return err
}

// attributionLine joins the article's provenance metadata into one line,
// e.g. "Jane Doe · Example News · 2024-03-01T10:00:00Z". Empty when the
// document carried none of it.
func attributionLine(a *goreadable.Article) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{a.Byline, a.SiteName, a.PublishedTime} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " · ")
}
