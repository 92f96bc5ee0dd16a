// Package cards turns batches of document text into spaced-repetition cards:
// it builds the synthesis prompt, calls the model, parses the delimited
// output, and hands each card to a Store.
package cards

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// DefaultDelimiter separates cards in model output.
const DefaultDelimiter = "---"

// Card is one front/back study prompt bound for a deck.
type Card struct {
	Front  string `json:"front"`
	Back   string `json:"back"`
	Source string `json:"source"`
	Deck   string `json:"deck"`
}

// Valid reports whether both sides carry text.
func (c Card) Valid() bool {
	return strings.TrimSpace(c.Front) != "" && strings.TrimSpace(c.Back) != ""
}

// Diagnostic describes a segment that did not yield a card.
type Diagnostic struct {
	// Segment is the zero-based index of the segment after splitting.
	Segment int    `json:"segment"`
	Reason  string `json:"reason"`
}

// Store persists cards. Implementations must be safe to call sequentially
// with independent cards; a failure for one card says nothing about the next.
type Store interface {
	CreateCard(ctx context.Context, c Card) error
}

// Collector keeps created cards in memory.
type Collector struct {
	mu    sync.Mutex
	cards []Card
}

func (c *Collector) CreateCard(_ context.Context, card Card) error {
	c.mu.Lock()
	c.cards = append(c.cards, card)
	c.mu.Unlock()
	return nil
}

// Cards returns a copy of everything collected so far, in creation order.
func (c *Collector) Cards() []Card {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Tee forwards every card to each store in order. All stores are tried;
// their errors are joined.
type Tee []Store

func (t Tee) CreateCard(ctx context.Context, card Card) error {
	var errs []error
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.CreateCard(ctx, card); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
