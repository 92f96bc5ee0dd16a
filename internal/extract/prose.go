package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hyperifyio/gocards/internal/content"
)

// Prose is the readability-style tier of the generic extractor. It prefers
// <main> or <article>, falls back to <body>, skips navigation and consent
// boilerplate, and returns Markdown-shaped text plus page metadata.
type Prose struct{}

func (Prose) Name() string { return "prose" }

func (Prose) Apply(_ content.Locator, doc *goquery.Document, raw []byte) Partial {
	root := rootNode(doc, raw)
	if root == nil {
		return Partial{}
	}
	p := Partial{
		Title: strings.TrimSpace(findTitle(root)),
		Body:  ProseText(root),
	}
	if doc != nil {
		p.Author = metaContent(doc, `meta[name="author"]`)
		p.Published = metaContent(doc, `meta[property="article:published_time"]`, `meta[name="date"]`)
		p.Description = metaContent(doc, `meta[name="description"]`)
	}
	return p
}

func rootNode(doc *goquery.Document, raw []byte) *html.Node {
	if doc != nil && len(doc.Nodes) > 0 {
		return doc.Nodes[0]
	}
	if len(raw) == 0 {
		return nil
	}
	n, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	return n
}

// ProseText extracts readable text from a parsed page. Headings are written
// with '#' markers, list items with "- ", and pre blocks fenced, so the
// result can be split back into blocks.
func ProseText(node *html.Node) string {
	content := findFirst(node, "main")
	if content == nil {
		content = findFirst(node, "article")
	}
	if content == nil {
		content = findFirst(node, "body")
	}
	if content == nil {
		return ""
	}
	var b strings.Builder
	collectText(&b, content, false)
	return normalizeWhitespace(b.String())
}

func findTitle(n *html.Node) string {
	head := findFirst(n, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		if isBoilerplateContainer(n) {
			return
		}
		switch name := strings.ToLower(n.Data); name {
		case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "header", "form":
			return
		case "pre":
			if !inPre {
				b.WriteString("\n\n```\n")
				b.WriteString(strings.Trim(nodeText(n), "\n"))
				b.WriteString("\n```\n\n")
				return
			}
		case "br", "hr":
			b.WriteString("\n")
		case "p", "blockquote", "ul", "ol", "table":
			b.WriteString("\n\n")
		case "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n")
			b.WriteString(strings.Repeat("#", int(name[1]-'0')))
			b.WriteString(" ")
		case "li":
			b.WriteString("\n- ")
		}
	}

	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.ReplaceAll(data, "\t", " ")
			data = strings.ReplaceAll(data, "\r", " ")
			data = strings.ReplaceAll(data, "\n", " ")
		}
		b.WriteString(data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}

	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "ul", "ol", "table":
			b.WriteString("\n\n")
		case "li", "tr":
			b.WriteString("\n")
		}
	}
}

// isBoilerplateContainer reports cookie and consent banners.
func isBoilerplateContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && !strings.HasPrefix(key, "data-") && key != "aria-label" && key != "role" {
			continue
		}
		val := strings.ToLower(attr.Val)
		if containsAny(val, []string{"cookie", "consent", "gdpr"}) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// normalizeWhitespace collapses spaces, keeps at most one blank line in a row,
// and leaves fenced code untouched.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "```" {
			inFence = !inFence
			out = append(out, trimmed)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		// markers whose element had no text collapse to blank lines
		if trimmed == "" || trimmed == "-" || strings.Trim(trimmed, "#") == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, strings.Join(strings.Fields(trimmed), " "))
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
