// Package normalize turns extraction results into the artifacts the card
// pipeline consumes: sanitized text, file-safe names, a structured JSON
// record, and a Markdown rendering with a fixed layout.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/gocards/internal/content"
)

// Sanitize removes control characters other than newline and tab, null bytes
// included, and returns the NFC form. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return norm.NFC.String(cleaned)
}

// SanitizeResult applies Sanitize to every text field of r. The input is not
// modified.
func SanitizeResult(r content.Result) content.Result {
	out := r
	if loc := r.Locator.String(); Sanitize(loc) != loc {
		out.Locator = content.NewLocator(Sanitize(loc))
	}
	out.Domain = Sanitize(r.Domain)
	out.Title = Sanitize(r.Title)
	out.Author = Sanitize(r.Author)
	out.Published = Sanitize(r.Published)
	out.Description = Sanitize(r.Description)
	if r.Blocks != nil {
		out.Blocks = make([]content.Block, len(r.Blocks))
		for i, b := range r.Blocks {
			b.Text = Sanitize(b.Text)
			if b.Items != nil {
				items := make([]string, len(b.Items))
				for j, it := range b.Items {
					items[j] = Sanitize(it)
				}
				b.Items = items
			}
			out.Blocks[i] = b
		}
	}
	if r.Images != nil {
		out.Images = make([]content.ImageRef, len(r.Images))
		for i, img := range r.Images {
			img.URL = Sanitize(img.URL)
			img.LocalPath = Sanitize(img.LocalPath)
			img.Alt = Sanitize(img.Alt)
			img.Caption = Sanitize(img.Caption)
			out.Images[i] = img
		}
	}
	if r.Warnings != nil {
		out.Warnings = make([]string, len(r.Warnings))
		for i, w := range r.Warnings {
			out.Warnings[i] = Sanitize(w)
		}
	}
	return out
}
