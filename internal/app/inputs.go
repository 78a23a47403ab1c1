package app

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/hyperifyio/goreadable/internal/render"
)

type inputKind int

const (
	inputStdin inputKind = iota
	inputFile
	inputURL
)

// input is one classified positional argument.
type input struct {
	raw  string
	kind inputKind
	// url is the absolute URL for inputURL, including any https:// prefix
	// added during detection.
	url string
}

// classifyInput decides how one positional argument is read: "-" or empty
// means stdin, an existing file is read from disk, and anything else must
// parse as an http(s) URL. Bare domains like example.com/page are retried
// with an https:// prefix.
func classifyInput(raw string) (input, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return input{raw: s, kind: inputStdin}, nil
	}
	if st, err := os.Stat(s); err == nil && !st.IsDir() {
		return input{raw: s, kind: inputFile}, nil
	}
	if u, ok := parseTargetURL(s); ok {
		return input{raw: s, kind: inputURL, url: u}, nil
	}
	return input{}, fmt.Errorf("file not found: %s", s)
}

// parseTargetURL accepts s as an absolute http(s) URL, retrying with an
// https:// prefix so bare domains work.
func parseTargetURL(s string) (string, bool) {
	if u, err := url.Parse(s); err == nil && isUsableHTTPURL(u) {
		return u.String(), true
	}
	if u, err := url.Parse("https://" + s); err == nil && isUsableHTTPURL(u) {
		return u.String(), true
	}
	return "", false
}

// isUsableHTTPURL requires an http(s) scheme and a dotted host with no empty
// labels, which keeps single words like "readme" classified as file paths.
func isUsableHTTPURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host != "" && strings.Contains(host, ".") && !strings.Contains(host, "..")
}

// outputFileName derives a stable per-input file name for batch output: a
// slug of the article title (or of the input itself when the title is
// empty) plus a short hash of the input so repeated titles cannot collide.
func outputFileName(in input, title string, format render.Format) string {
	source := strings.TrimSpace(title)
	if source == "" {
		source = in.raw
	}
	h := sha256.Sum256([]byte(in.raw))
	short := hex.EncodeToString(h[:])[:12]
	return slugify(source) + "-" + short + format.Extension()
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = strings.Trim(s[:80], "-")
	}
	if s == "" {
		s = "article"
	}
	return s
}
