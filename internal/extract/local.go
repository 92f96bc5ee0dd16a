package extract

import (
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/gocards/internal/content"
)

// LocalText handles transcripts and notes stored as local text or Markdown.
type LocalText struct{}

var localExts = map[string]bool{".txt": true, ".md": true, ".markdown": true}

func (LocalText) Name() string { return "LocalTextExtractor" }

func (LocalText) CanHandle(loc content.Locator) bool {
	return !loc.IsRemote() && localExts[loc.Ext()]
}

func (l LocalText) Extract(loc content.Locator, _ *goquery.Document, raw []byte) content.Result {
	res := content.Result{Locator: loc, Domain: loc.Domain(), Extractor: l.Name()}
	res.Blocks = content.BlocksFromText(string(raw))
	for _, b := range res.Blocks {
		if b.Kind == content.KindHeading && b.Level == 1 {
			res.Title = b.Text
			break
		}
	}
	if res.Title == "" {
		base := filepath.Base(loc.String())
		res.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return res
}
