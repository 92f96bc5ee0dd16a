package cards

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/batch"
)

// TextGenerator is the model call the Synthesizer needs.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summary counts what happened for one document.
type Summary struct {
	Batches       int      `json:"batches"`
	Created       int      `json:"cards_created"`
	Skipped       int      `json:"cards_skipped"`
	StoreFailures int      `json:"store_failures"`
	FailedBatches int      `json:"failed_batches"`
	Errors        []string `json:"errors,omitempty"`
}

// Synthesizer runs batching, generation, parsing, and storage for a document.
type Synthesizer struct {
	Generator    TextGenerator
	Batcher      batch.Batcher
	Store        Store
	Delimiter    string
	Instructions string
	Deck         string
}

// Run splits text into batches that fit capacity tokens and generates cards
// for each batch in order. A failed batch or a rejected card is recorded in
// the Summary and processing moves on. Only batching errors and context
// cancellation are returned.
func (s *Synthesizer) Run(ctx context.Context, source, text string, capacity int) (Summary, error) {
	var sum Summary
	if s.Generator == nil || s.Store == nil {
		return sum, errors.New("synthesizer not configured")
	}
	batches, err := s.Batcher.Split(text, capacity)
	if err != nil {
		return sum, fmt.Errorf("split %s: %w", source, err)
	}
	sum.Batches = len(batches)
	instructions := s.Instructions
	if instructions == "" {
		instructions = Prompt(DefaultCardCount, s.Delimiter)
	}

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		out, err := s.Generator.Generate(ctx, BuildPrompt(instructions, b.Text))
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			log.Warn().Err(err).Str("source", source).Int("batch", b.Index).Msg("card generation failed")
			sum.FailedBatches++
			sum.Errors = append(sum.Errors, fmt.Sprintf("batch %d: %v", b.Index, err))
			continue
		}
		cards, diags := Parse(out, source, s.Deck, s.Delimiter)
		for _, d := range diags {
			log.Warn().Str("source", source).Int("batch", b.Index).Int("segment", d.Segment).Str("reason", d.Reason).Msg("skipped malformed card")
		}
		sum.Skipped += len(diags)
		for _, c := range cards {
			if err := s.Store.CreateCard(ctx, c); err != nil {
				log.Error().Err(err).Str("source", source).Int("batch", b.Index).Str("front", c.Front).Msg("card store rejected card")
				sum.StoreFailures++
				sum.Errors = append(sum.Errors, fmt.Sprintf("store: %v", err))
				continue
			}
			sum.Created++
		}
		log.Info().Str("source", source).Int("batch", b.Index).Int("tokens", b.Tokens).Int("cards", len(cards)).Msg("batch done")
	}
	return sum, nil
}
