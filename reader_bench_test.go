package goreadable

import (
	"strings"
	"testing"
)

// Benchmark instance creation separately from parsing: creation evaluates
// the whole bundle into a fresh runtime and is expected to dominate, which
// is why instances are pooled and reused.
func BenchmarkNewReader(b *testing.B) {
	for i := 0; i < b.N; i++ {
		r, err := New()
		if err != nil {
			b.Fatalf("New: %v", err)
		}
		r.Close()
	}
}

func BenchmarkParse(b *testing.B) {
	small := simpleArticleHTML
	medium := makePage(40, 8)
	large := makePage(200, 20)

	r, err := New()
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	defer r.Close()

	b.Run("small", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := r.Parse(small); err != nil {
				b.Fatalf("Parse: %v", err)
			}
		}
	})
	b.Run("medium", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := r.Parse(medium); err != nil {
				b.Fatalf("Parse: %v", err)
			}
		}
	})
	b.Run("large", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := r.Parse(large); err != nil {
				b.Fatalf("Parse: %v", err)
			}
		}
	})
}

const benchSentence = "Benchmarks need prose with commas, clauses, and steady length, " +
	"so every paragraph repeats this sentence a few times to stay realistic. "

func makePage(sections, parasPerSection int) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>Benchmark Page</title></head><body><div id=\"content\">")
	for s := 0; s < sections; s++ {
		sb.WriteString("<section><h2>Section heading</h2>")
		for p := 0; p < parasPerSection; p++ {
			sb.WriteString("<p>")
			sb.WriteString(benchSentence)
			sb.WriteString(benchSentence)
			sb.WriteString("</p>")
		}
		sb.WriteString("<ul><li>item one</li><li>item two</li><li>item three</li></ul>")
		sb.WriteString("</section>")
	}
	sb.WriteString("</div></body></html>")
	return sb.String()
}
