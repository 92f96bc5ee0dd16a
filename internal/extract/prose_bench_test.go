package extract

import (
	"strings"
	"testing"

	"github.com/hyperifyio/gocards/internal/content"
)

// BenchmarkGeneric measures the full generic tier chain on pages of increasing size.
func BenchmarkGeneric(b *testing.B) {
	loc := content.NewLocator("https://example.com/bench")
	g := NewGeneric()
	for _, tc := range []struct {
		name string
		page []byte
	}{
		{"small", []byte("<html><head><title>t</title></head><body><main><p>a</p></main></body></html>")},
		{"medium", makeHTML(50, 60)},
		{"large", makeHTML(200, 200)},
	} {
		doc, err := ParseHTML(tc.page)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(tc.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = g.Extract(loc, doc, tc.page)
			}
		})
	}
}

func makeHTML(paras int, itemsPerList int) []byte {
	builder := new(strings.Builder)
	builder.WriteString("<html><head><title>demo</title></head><body><main>")
	for i := 0; i < paras; i++ {
		builder.WriteString("<h2>Heading</h2><p>")
		builder.WriteString(sampleText)
		builder.WriteString("</p>")
	}
	builder.WriteString("<ul>")
	for i := 0; i < itemsPerList; i++ {
		builder.WriteString("<li>")
		builder.WriteString(sampleText)
		builder.WriteString("</li>")
	}
	builder.WriteString("</ul></main></body></html>")
	return []byte(builder.String())
}

const sampleText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."
