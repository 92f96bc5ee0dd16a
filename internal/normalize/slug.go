package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hyperifyio/gocards/internal/content"
)

// MaxSlugRunes bounds file base names derived from titles.
const MaxSlugRunes = 200

var (
	unsafeNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	spaceRuns       = regexp.MustCompile(`\s+`)
)

// Slug derives a file base name from a title. It returns "" when nothing
// usable remains.
func Slug(title string) string {
	s := unsafeNameChars.ReplaceAllString(title, "")
	s = Sanitize(s)
	s = strings.TrimSpace(s)
	s = spaceRuns.ReplaceAllString(s, "_")
	if r := []rune(s); len(r) > MaxSlugRunes {
		s = string(r[:MaxSlugRunes])
	}
	return s
}

// FallbackName is the base name used when a document has no usable title.
func FallbackName(domain string, now time.Time) string {
	d := unsafeNameChars.ReplaceAllString(strings.TrimSpace(domain), "")
	if d == "" {
		d = "local"
	}
	return fmt.Sprintf("%s_%d", d, now.Unix())
}

// BaseName picks the artifact base name for r.
func BaseName(r content.Result, now time.Time) string {
	if s := Slug(r.Title); s != "" {
		return s
	}
	domain := r.Domain
	if domain == "" {
		domain = r.Locator.Domain()
	}
	return FallbackName(domain, now)
}
