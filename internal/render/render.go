// Package render turns extracted articles into output documents: Markdown,
// plain text, raw article HTML, JSON, or a simple PDF.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	goreadable "github.com/hyperifyio/goreadable"
)

// Format selects the output representation of an extracted article.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatPDF      Format = "pdf"
)

// ParseFormat maps a user-supplied format name to a Format. Matching is
// case-insensitive and accepts the common short spellings.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown format %q (want markdown, html, text, json or pdf)", s)
	}
}

// Extension returns the conventional file extension for the format,
// including the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatText:
		return ".txt"
	case FormatJSON:
		return ".json"
	case FormatPDF:
		return ".pdf"
	default:
		return ".md"
	}
}

// Article writes the article rendered in the requested format to w.
func Article(w io.Writer, a *goreadable.Article, f Format) error {
	switch f {
	case FormatMarkdown:
		return Markdown(w, a)
	case FormatHTML:
		// The cleaned article HTML, byte for byte.
		_, err := io.WriteString(w, a.Content)
		return err
	case FormatText:
		_, err := io.WriteString(w, ensureTrailingNewline(a.TextContent))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	case FormatPDF:
		return PDF(w, a)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
