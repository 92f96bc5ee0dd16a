package extract

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hyperifyio/gocards/internal/content"
)

// DefaultMinBlockChars filters UI labels and boilerplate in site extractors.
const DefaultMinBlockChars = 10

// blockRules selects which elements become blocks and how short a block may be.
type blockRules struct {
	tags     map[string]bool
	minChars int
}

func newBlockRules(minChars int, tags ...string) blockRules {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return blockRules{tags: set, minChars: minChars}
}

var allHeadings = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

func withHeadings(from int, rest ...string) []string {
	out := append([]string{}, allHeadings[from-1:]...)
	return append(out, rest...)
}

// ignoredTags are never descended into while collecting blocks.
var ignoredTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true, "iframe": true,
}

// collectBlocks walks every node of sel in document order. A node that
// becomes a block is not descended into, so nested matches (a <p> inside a
// <blockquote> or <li>) never produce duplicates.
func collectBlocks(sel *goquery.Selection, rules blockRules) []content.Block {
	var out []content.Block
	for _, n := range sel.Nodes {
		walkBlocks(n, rules, true, &out)
	}
	return out
}

func walkBlocks(n *html.Node, rules blockRules, root bool, out *[]content.Block) {
	if n.Type == html.ElementNode && !root {
		tag := strings.ToLower(n.Data)
		if ignoredTags[tag] {
			return
		}
		if rules.tags[tag] {
			if b, ok := blockFromNode(n, tag, rules.minChars); ok {
				*out = append(*out, b)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkBlocks(c, rules, false, out)
	}
}

func blockFromNode(n *html.Node, tag string, minChars int) (content.Block, bool) {
	switch tag {
	case "ul", "ol":
		var items []string
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && strings.EqualFold(c.Data, "li") {
				if t := collapse(nodeText(c)); t != "" {
					items = append(items, t)
				}
			}
		}
		if len(items) == 0 || !longEnough(strings.Join(items, " "), minChars) {
			return content.Block{}, false
		}
		return content.List(tag == "ol", items), true
	case "pre", "code":
		text := strings.Trim(nodeText(n), "\n")
		if strings.TrimSpace(text) == "" || !longEnough(strings.TrimSpace(text), minChars) {
			return content.Block{}, false
		}
		return content.Code(text), true
	}
	text := collapse(nodeText(n))
	if text == "" || !longEnough(text, minChars) {
		return content.Block{}, false
	}
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return content.Heading(int(tag[1]-'0'), text), true
	case "blockquote":
		return content.Quote(text), true
	default:
		// p, li and any other paragraph-like tag
		return content.Paragraph(text), true
	}
}

func longEnough(s string, minChars int) bool {
	return utf8.RuneCountInString(s) >= minChars
}

// nodeText concatenates every descendant text node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(cur *html.Node) {
		if cur.Type == html.ElementNode && ignoredTags[strings.ToLower(cur.Data)] {
			return
		}
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, "br") {
			b.WriteString("\n")
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

// collapse trims s and folds whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// imageRules controls image collection inside a container.
type imageRules struct {
	base *url.URL
	skip []string
	// figcaption prefers the enclosing <figure>'s caption over the title attribute.
	figcaption bool
	// altAsCaption falls back to the alt text when no caption exists.
	altAsCaption bool
}

// collectImages reads <img> elements under sel only, never the whole page.
func collectImages(sel *goquery.Selection, rules imageRules) []content.ImageRef {
	var out []content.ImageRef
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			src = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if src == "" {
			return
		}
		lower := strings.ToLower(src)
		for _, kw := range rules.skip {
			if strings.Contains(lower, kw) {
				return
			}
		}
		src = resolveURL(rules.base, src)
		alt := collapse(img.AttrOr("alt", ""))
		caption := ""
		if rules.figcaption {
			caption = collapse(img.Closest("figure").Find("figcaption").First().Text())
		}
		if caption == "" {
			caption = collapse(img.AttrOr("title", ""))
		}
		if caption == "" && rules.altAsCaption {
			caption = alt
		}
		out = append(out, content.ImageRef{URL: src, Alt: alt, Caption: caption})
	})
	return out
}

// resolveURL resolves ref against base. Control characters, which url.Parse
// rejects, are dropped first.
func resolveURL(base *url.URL, ref string) string {
	ref = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ref)
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// metaContent returns the content attribute of the first matching <meta>.
func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, s := range selectors {
		if v := collapse(doc.Find(s).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

// firstText returns the collapsed text of the first element matching any selector.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, s := range selectors {
		if v := collapse(doc.Find(s).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

// firstMatch returns the first non-empty selection among selectors.
func firstMatch(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, s := range selectors {
		if sel := doc.Find(s).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// timeValue reads a <time> element's datetime attribute, then its text.
func timeValue(doc *goquery.Document) string {
	t := doc.Find("time").First()
	if t.Length() == 0 {
		return ""
	}
	if v := strings.TrimSpace(t.AttrOr("datetime", "")); v != "" {
		return v
	}
	return collapse(t.Text())
}
