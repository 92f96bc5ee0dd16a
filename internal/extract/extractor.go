package extract

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/gocards/internal/content"
)

// Extractor turns one parsed document into a content.Result. Each
// implementation encodes the layout of a single site or a generic fallback.
type Extractor interface {
	// Name identifies the extractor in results and logs.
	Name() string
	// CanHandle reports whether this extractor claims the locator.
	CanHandle(loc content.Locator) bool
	// Extract reads the parsed document and the raw bytes it came from.
	// doc is nil for sources that are not HTML. Finding nothing is not an
	// error: the result simply has no blocks.
	Extract(loc content.Locator, doc *goquery.Document, raw []byte) content.Result
}

// ParseHTML builds the goquery document shared by every extractor.
func ParseHTML(raw []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Run extracts with e and turns a panic inside the extractor into a failed
// result so one broken page cannot end a multi-document run.
func Run(e Extractor, loc content.Locator, doc *goquery.Document, raw []byte) (res content.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = content.Failed(loc, e.Name(), fmt.Errorf("%w: %v", ErrExtraction, p))
		}
	}()
	return e.Extract(loc, doc, raw)
}
