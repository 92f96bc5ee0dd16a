// Package content holds the data shapes shared by extractors, the normalizer,
// and the card pipeline: locators, typed content blocks, image references, and
// extraction results.
package content

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Locator identifies a source document. It is either an http(s) URL or a local
// filesystem path and is never modified after creation.
type Locator struct {
	raw string
}

// NewLocator trims surrounding whitespace and wraps s.
func NewLocator(s string) Locator {
	return Locator{raw: strings.TrimSpace(s)}
}

func (l Locator) String() string { return l.raw }

// IsZero reports whether the locator is empty.
func (l Locator) IsZero() bool { return l.raw == "" }

// IsRemote reports whether the locator is an http or https URL.
func (l Locator) IsRemote() bool {
	u, err := url.Parse(l.raw)
	if err != nil || u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// URL parses the locator as a URL. It returns nil for local paths.
func (l Locator) URL() *url.URL {
	if !l.IsRemote() {
		return nil
	}
	u, _ := url.Parse(l.raw)
	return u
}

// Domain returns the host of a remote locator, or "local" for paths.
func (l Locator) Domain() string {
	if u := l.URL(); u != nil {
		return strings.ToLower(u.Host)
	}
	return "local"
}

// Ext returns the lowercased file extension of a local path locator.
func (l Locator) Ext() string {
	if l.IsRemote() {
		return ""
	}
	return strings.ToLower(filepath.Ext(l.raw))
}

// Contains reports whether the lowercased locator contains sub.
func (l Locator) Contains(sub string) bool {
	return strings.Contains(strings.ToLower(l.raw), strings.ToLower(sub))
}

// Kind enumerates block types.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindQuote     Kind = "quote"
	KindCode      Kind = "code"
	KindList      Kind = "list"
)

// Block is one typed unit of document content. Level is set for headings
// only (1..6); Ordered and Items are set for lists only.
type Block struct {
	Kind    Kind     `json:"type"`
	Level   int      `json:"level,omitempty"`
	Text    string   `json:"text,omitempty"`
	Ordered bool     `json:"ordered,omitempty"`
	Items   []string `json:"items,omitempty"`
}

// Heading builds a heading block, clamping level into 1..6.
func Heading(level int, text string) Block {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return Block{Kind: KindHeading, Level: level, Text: text}
}

func Paragraph(text string) Block { return Block{Kind: KindParagraph, Text: text} }
func Quote(text string) Block     { return Block{Kind: KindQuote, Text: text} }
func Code(text string) Block      { return Block{Kind: KindCode, Text: text} }

// List builds an ordered or unordered list block.
func List(ordered bool, items []string) Block {
	return Block{Kind: KindList, Ordered: ordered, Items: items}
}

// PlainText returns the block's text; list items are joined by newlines.
func (b Block) PlainText() string {
	if b.Kind == KindList {
		return strings.Join(b.Items, "\n")
	}
	return b.Text
}

// ImageRef references an image found inside the main content. LocalPath is
// only set after a successful download.
type ImageRef struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	Caption   string `json:"caption,omitempty"`
	LocalPath string `json:"local_path,omitempty"`
}

// Result is the outcome of one extraction attempt. Empty optional strings mean
// absent. When Err is set every content field is empty.
type Result struct {
	Locator     Locator
	Domain      string
	Extractor   string
	Title       string
	Author      string
	Published   string
	Description string
	Blocks      []Block
	Images      []ImageRef
	Warnings    []string
	Err         error
}

// Failed builds an error result that carries only identification fields.
func Failed(loc Locator, extractor string, err error) Result {
	return Result{Locator: loc, Domain: loc.Domain(), Extractor: extractor, Err: err}
}

// Failed reports whether the attempt produced an error instead of content.
func (r Result) Failed() bool { return r.Err != nil }

// Empty reports whether a successful result carries no blocks.
func (r Result) Empty() bool { return r.Err == nil && len(r.Blocks) == 0 }
