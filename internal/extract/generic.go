package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/content"
)

// Partial is what a single extraction strategy found. Empty fields are absent.
type Partial struct {
	Title       string
	Author      string
	Published   string
	Description string
	// Body is raw prose text; Blocks is structured content. Either counts as body.
	Body   string
	Blocks []content.Block
	Images []content.ImageRef
}

// HasBody reports whether the strategy produced any body content.
func (p Partial) HasBody() bool {
	return strings.TrimSpace(p.Body) != "" || len(p.Blocks) > 0
}

// Fill copies fields from later into p only where p is still empty. Fields
// already populated by an earlier strategy are never replaced.
func (p *Partial) Fill(later Partial) {
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	fill(&p.Title, later.Title)
	fill(&p.Author, later.Author)
	fill(&p.Published, later.Published)
	fill(&p.Description, later.Description)
	// Body and Blocks are one field: the first tier with any body owns it.
	if !p.HasBody() && later.HasBody() {
		p.Body = later.Body
		p.Blocks = later.Blocks
	}
	if len(p.Images) == 0 && len(later.Images) > 0 {
		p.Images = later.Images
	}
}

// Strategy is one tier of the generic extractor.
type Strategy interface {
	Name() string
	Apply(loc content.Locator, doc *goquery.Document, raw []byte) Partial
}

// Generic is the universal fallback. Strategies run in order and may only
// fill gaps left by earlier ones; Heuristic runs last and only when no
// strategy produced body content.
type Generic struct {
	Strategies []Strategy
	Heuristic  Strategy
}

// NewGeneric wires prose extraction, then the article object model, then the
// DOM heuristic.
func NewGeneric() *Generic {
	return &Generic{
		Strategies: []Strategy{Prose{}, ArticleObject{}},
		Heuristic:  Heuristic{},
	}
}

func (*Generic) Name() string { return "GenericExtractor" }

// CanHandle always matches.
func (*Generic) CanHandle(content.Locator) bool { return true }

func (g *Generic) Extract(loc content.Locator, doc *goquery.Document, raw []byte) content.Result {
	var merged Partial
	for _, s := range g.Strategies {
		p := s.Apply(loc, doc, raw)
		log.Debug().Str("url", loc.String()).Str("strategy", s.Name()).Bool("body", p.HasBody()).Msg("generic tier")
		merged.Fill(p)
	}
	if !merged.HasBody() && g.Heuristic != nil {
		merged.Fill(g.Heuristic.Apply(loc, doc, raw))
	}

	res := content.Result{
		Locator:     loc,
		Domain:      loc.Domain(),
		Extractor:   g.Name(),
		Title:       merged.Title,
		Author:      merged.Author,
		Published:   merged.Published,
		Description: merged.Description,
		Images:      merged.Images,
	}
	if len(merged.Blocks) > 0 {
		res.Blocks = merged.Blocks
	} else if strings.TrimSpace(merged.Body) != "" {
		res.Blocks = content.BlocksFromText(merged.Body)
	}
	return res
}
