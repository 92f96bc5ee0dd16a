package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/gocards/internal/content"
)

// ArticleObject builds an article model from structured page data: JSON-LD
// Article objects, OpenGraph tags, <time>, and paragraphs inside <article>.
// It exists to fill what the prose tier left empty.
type ArticleObject struct{}

func (ArticleObject) Name() string { return "article-object" }

// articleTypes are the schema.org types treated as articles.
var articleTypes = map[string]bool{
	"article": true, "blogposting": true, "newsarticle": true, "techarticle": true, "report": true,
}

type ldArticle struct {
	Type          any               `json:"@type"`
	Headline      string            `json:"headline"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	DatePublished string            `json:"datePublished"`
	ArticleBody   string            `json:"articleBody"`
	Author        any               `json:"author"`
	Image         any               `json:"image"`
	Graph         []json.RawMessage `json:"@graph"`
}

func (ArticleObject) Apply(loc content.Locator, doc *goquery.Document, _ []byte) Partial {
	if doc == nil {
		return Partial{}
	}
	var p Partial
	if ld, ok := findLDArticle(doc); ok {
		p.Title = collapse(firstNonEmpty(ld.Headline, ld.Name))
		p.Author = strings.Join(ldNames(ld.Author), ", ")
		p.Published = strings.TrimSpace(ld.DatePublished)
		p.Description = collapse(ld.Description)
		p.Body = strings.TrimSpace(ld.ArticleBody)
		for _, u := range ldURLs(ld.Image) {
			p.Images = append(p.Images, content.ImageRef{URL: resolveURL(loc.URL(), u)})
		}
	}

	var og Partial
	og.Title = metaContent(doc, `meta[property="og:title"]`)
	og.Description = metaContent(doc, `meta[property="og:description"]`)
	og.Author = metaContent(doc, `meta[property="article:author"]`)
	og.Published = timeValue(doc)
	if img := metaContent(doc, `meta[property="og:image"]`); img != "" {
		og.Images = []content.ImageRef{{URL: resolveURL(loc.URL(), img)}}
	}
	if article := doc.Find("article").First(); article.Length() > 0 {
		var paras []string
		article.Find("p").Each(func(_ int, s *goquery.Selection) {
			if t := collapse(s.Text()); t != "" {
				paras = append(paras, t)
			}
		})
		og.Body = strings.Join(paras, "\n\n")
		if imgs := collectImages(article, imageRules{base: loc.URL(), figcaption: true}); len(imgs) > 0 {
			og.Images = imgs
		}
	}
	p.Fill(og)
	return p
}

func findLDArticle(doc *goquery.Document) (ldArticle, bool) {
	var found ldArticle
	ok := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found, ok = parseLD([]byte(s.Text()))
		return !ok
	})
	return found, ok
}

// parseLD accepts a single object, an array of objects, or an @graph.
func parseLD(data []byte) (ldArticle, bool) {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return ldArticle{}, false
	}
	if data[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return ldArticle{}, false
		}
		for _, item := range list {
			if a, ok := parseLD(item); ok {
				return a, true
			}
		}
		return ldArticle{}, false
	}
	var a ldArticle
	if err := json.Unmarshal(data, &a); err != nil {
		return ldArticle{}, false
	}
	for _, t := range ldStrings(a.Type) {
		if articleTypes[strings.ToLower(t)] {
			return a, true
		}
	}
	for _, item := range a.Graph {
		if g, ok := parseLD(item); ok {
			return g, true
		}
	}
	return ldArticle{}, false
}

// ldStrings flattens a JSON-LD value that may be a string or a list of strings.
func ldStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, x := range t {
			out = append(out, ldStrings(x)...)
		}
		return out
	}
	return nil
}

// ldNames reads author values given as strings, Person objects, or lists.
func ldNames(v any) []string {
	switch t := v.(type) {
	case string:
		if s := collapse(t); s != "" {
			return []string{s}
		}
	case map[string]any:
		if name, ok := t["name"].(string); ok && collapse(name) != "" {
			return []string{collapse(name)}
		}
	case []any:
		var out []string
		for _, x := range t {
			out = append(out, ldNames(x)...)
		}
		return out
	}
	return nil
}

// ldURLs reads image values given as strings, ImageObjects, or lists.
func ldURLs(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case map[string]any:
		if u, ok := t["url"].(string); ok && strings.TrimSpace(u) != "" {
			return []string{strings.TrimSpace(u)}
		}
	case []any:
		var out []string
		for _, x := range t {
			out = append(out, ldURLs(x)...)
		}
		return out
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
