package extract

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/content"
)

// ErrExtraction marks failures raised inside an extractor.
var ErrExtraction = errors.New("extraction failed")

// Resolver picks the extractor for a locator. Extractors are tried in
// registration order; the fallback is always last and always matches, so
// Resolve never fails.
type Resolver struct {
	chain    []Extractor
	fallback Extractor
}

// NewResolver builds a resolver with the given site extractors ahead of the
// fallback. A nil fallback is replaced with a default Generic extractor.
func NewResolver(fallback Extractor, extractors ...Extractor) *Resolver {
	if fallback == nil {
		fallback = NewGeneric()
	}
	r := &Resolver{fallback: fallback}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// DefaultResolver registers every built-in site extractor before Generic.
func DefaultResolver() *Resolver {
	return NewResolver(NewGeneric(),
		Uber{},
		JaneStreet{},
		Substack{},
		LocalText{},
		Epub{},
	)
}

// Register appends e just ahead of the fallback.
func (r *Resolver) Register(e Extractor) {
	if e == nil {
		return
	}
	r.chain = append(r.chain, e)
}

// Insert places e at position pos among the site extractors. Positions past
// the end, or negative, append before the fallback.
func (r *Resolver) Insert(pos int, e Extractor) {
	if e == nil {
		return
	}
	if pos < 0 || pos >= len(r.chain) {
		r.chain = append(r.chain, e)
		return
	}
	r.chain = append(r.chain, nil)
	copy(r.chain[pos+1:], r.chain[pos:])
	r.chain[pos] = e
}

// Extractors returns the resolution order, fallback included.
func (r *Resolver) Extractors() []Extractor {
	out := make([]Extractor, 0, len(r.chain)+1)
	out = append(out, r.chain...)
	return append(out, r.fallback)
}

// Fallback returns the universal extractor.
func (r *Resolver) Fallback() Extractor { return r.fallback }

// Resolve returns the first extractor whose CanHandle matches loc.
func (r *Resolver) Resolve(loc content.Locator) Extractor {
	for _, e := range r.chain {
		if e.CanHandle(loc) {
			log.Debug().Str("locator", loc.String()).Str("extractor", e.Name()).Msg("extractor resolved")
			return e
		}
	}
	log.Debug().Str("locator", loc.String()).Str("extractor", r.fallback.Name()).Msg("using fallback extractor")
	return r.fallback
}
