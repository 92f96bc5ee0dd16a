package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/content"
)

// siteBlockTags are the block elements collected by site extractors.
var siteBlockTags = withHeadings(1, "p", "ul", "ol", "blockquote", "pre")

// Uber extracts posts from the Uber Engineering blog.
type Uber struct{}

var uberClassRe = regexp.MustCompile(`(?i)article|content|post`)

func (Uber) Name() string { return "UberBlogExtractor" }

func (Uber) CanHandle(loc content.Locator) bool { return loc.Contains("uber.com/blog") }

func (u Uber) Extract(loc content.Locator, doc *goquery.Document, _ []byte) content.Result {
	res := content.Result{Locator: loc, Domain: "uber.com", Extractor: u.Name()}
	if doc == nil {
		return res
	}
	res.Title = firstText(doc, "h1")
	res.Description = metaContent(doc, `meta[property="og:description"]`)

	container := firstMatch(doc, "article", "main")
	if container == nil {
		container = firstAttrMatch(doc, "div", "class", uberClassRe)
	}
	if container == nil {
		return res
	}
	res.Blocks = collectBlocks(container, newBlockRules(DefaultMinBlockChars, siteBlockTags...))
	res.Images = collectImages(container, imageRules{base: loc.URL()})
	return res
}

// JaneStreet extracts posts from blog.janestreet.com. Its pages render the
// post and its "related posts" with the same <article> tag; the post is the
// one carrying a div.post-header.
type JaneStreet struct{}

// janeStreetMarker identifies the main article among sibling <article> tags.
const janeStreetMarker = "div.post-header"

// WarnNoMainArticle flags a low-confidence container choice.
const WarnNoMainArticle = "main article marker not found; using first article"

func (JaneStreet) Name() string { return "JaneStreetBlogExtractor" }

func (JaneStreet) CanHandle(loc content.Locator) bool { return loc.Contains("blog.janestreet.com") }

func (j JaneStreet) Extract(loc content.Locator, doc *goquery.Document, _ []byte) content.Result {
	res := content.Result{Locator: loc, Domain: "blog.janestreet.com", Extractor: j.Name()}
	if doc == nil {
		return res
	}
	res.Title = firstText(doc, "h1.post-title", "h1.entry-title", "h1")
	res.Author = firstText(doc, `a[rel="author"]`, `[class*="author"]`)
	res.Published = timeValue(doc)

	articles := doc.Find("article")
	if articles.Length() == 0 {
		return res
	}
	var main *goquery.Selection
	articles.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if a.Find(janeStreetMarker).Length() > 0 {
			main = a
			return false
		}
		return true
	})
	if main == nil {
		log.Warn().Str("url", loc.String()).Msg(WarnNoMainArticle)
		res.Warnings = append(res.Warnings, WarnNoMainArticle)
		main = articles.First()
	}
	res.Blocks = collectBlocks(main, newBlockRules(DefaultMinBlockChars, withHeadings(2, "p", "ul", "ol", "blockquote", "pre")...))
	res.Images = collectImages(main, imageRules{base: loc.URL()})
	return res
}

// Substack extracts Substack newsletters, SemiAnalysis included.
type Substack struct{}

// substackSkip drops placeholders and tracking images.
var substackSkip = []string{"placeholder", "tracking", "pixel"}

func (Substack) Name() string { return "SubstackExtractor" }

func (Substack) CanHandle(loc content.Locator) bool {
	d := loc.Domain()
	return loc.IsRemote() && (hasDomainSuffix(d, "substack.com") || d == "newsletter.semianalysis.com")
}

func (s Substack) Extract(loc content.Locator, doc *goquery.Document, _ []byte) content.Result {
	res := content.Result{Locator: loc, Domain: loc.Domain(), Extractor: s.Name()}
	if doc == nil {
		return res
	}
	res.Title = metaContent(doc, `meta[property="og:title"]`)
	if res.Title == "" {
		res.Title = firstText(doc, "title", "h1.post-title")
	}
	res.Description = metaContent(doc, `meta[property="og:description"]`)
	res.Author = metaContent(doc, `meta[name="author"]`)
	res.Published = timeValue(doc)

	container := firstMatch(doc, "div.available-content", "div.body", "article", "div.post-content")
	if container == nil {
		log.Warn().Str("url", loc.String()).Msg("substack container not found")
		return res
	}
	res.Blocks = collectBlocks(container, newBlockRules(1, siteBlockTags...))
	res.Images = collectImages(container, imageRules{
		base:         loc.URL(),
		skip:         substackSkip,
		figcaption:   true,
		altAsCaption: true,
	})
	return res
}

func hasDomainSuffix(host, suffix string) bool {
	return host == suffix || (len(host) > len(suffix) && host[len(host)-len(suffix)-1:] == "."+suffix)
}
