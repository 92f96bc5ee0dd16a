package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/gocards/internal/content"
)

// Heuristic is the last-resort DOM walk used when no earlier tier found a body.
type Heuristic struct{}

// HeuristicMinChars is the exclusive lower bound for heuristic blocks.
const HeuristicMinChars = 20

var contentClassRe = regexp.MustCompile(`(?i)article|content|post|entry`)

var heuristicImageSkip = []string{"icon", "logo", "avatar", "pixel"}

func (Heuristic) Name() string { return "heuristic" }

func (Heuristic) Apply(loc content.Locator, doc *goquery.Document, _ []byte) Partial {
	if doc == nil {
		return Partial{}
	}
	p := Partial{Title: firstText(doc, "h1")}
	if p.Title == "" {
		p.Title = metaContent(doc, `meta[property="og:title"]`)
	}
	if p.Title == "" {
		p.Title = firstText(doc, "title")
	}

	container := firstMatch(doc, "article", "main")
	if container == nil {
		container = firstAttrMatch(doc, "div", "class", contentClassRe)
	}
	if container == nil {
		container = firstAttrMatch(doc, "div", "id", contentClassRe)
	}
	if container == nil {
		return p
	}
	p.Blocks = collectBlocks(container, newBlockRules(HeuristicMinChars+1, withHeadings(1, "p", "blockquote", "pre")...))
	p.Images = collectImages(container, imageRules{base: loc.URL(), skip: heuristicImageSkip})
	return p
}

// firstAttrMatch returns the first tag element whose attr matches re.
func firstAttrMatch(doc *goquery.Document, tag, attr string, re *regexp.Regexp) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(attr)
		if ok && strings.TrimSpace(v) != "" && re.MatchString(v) {
			found = s
			return false
		}
		return true
	})
	return found
}
