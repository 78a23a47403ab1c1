package render

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	goreadable "github.com/hyperifyio/goreadable"
)

var markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// PDF writes the article as a minimal A4 PDF. The article is first rendered
// to Markdown, then laid out line by line: headings get a larger bold font,
// Markdown links become clickable PDF links, everything else flows as
// paragraphs. This is intentionally simple and does not attempt full
// Markdown layout.
func PDF(w io.Writer, a *goreadable.Article) error {
	var md strings.Builder
	if err := Markdown(&md, a); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	for _, line := range strings.Split(md.String(), "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if strings.HasPrefix(s, "#") {
			writeHeading(pdf, s)
			continue
		}
		writeBodyLine(pdf, s)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeHeading(pdf *gofpdf.Fpdf, s string) {
	level := 0
	for level < len(s) && s[level] == '#' {
		level++
	}
	text := strings.TrimSpace(s[level:])
	if text == "" {
		return
	}
	size := 14.0
	if level >= 2 {
		size = 12.0
	}
	pdf.SetFont("Helvetica", "B", size)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

// writeBodyLine flows one line of text, turning [text](url) spans into
// clickable links.
func writeBodyLine(pdf *gofpdf.Fpdf, s string) {
	matches := markdownLinkRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		pdf.MultiCell(0, 5, s, "", "L", false)
		return
	}
	pos := 0
	for _, m := range matches {
		// m: [fullStart, fullEnd, textStart, textEnd, urlStart, urlEnd]
		if m[0] > pos {
			pdf.Write(5, s[pos:m[0]])
		}
		text := s[m[2]:m[3]]
		url := s[m[4]:m[5]]
		if strings.HasPrefix(url, "#") {
			// Intra-document anchors render as plain text.
			pdf.Write(5, text)
		} else {
			pdf.WriteLinkString(5, text, url)
		}
		pos = m[1]
	}
	if pos < len(s) {
		pdf.Write(5, s[pos:])
	}
	pdf.Ln(6)
}
