// Package batch splits document text into token-bounded batches that each fit
// a single generation call.
package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoCapacity means the model has no room left for document text.
	ErrNoCapacity = errors.New("no token capacity for document text")
	// ErrBudgetTooSmall means the per-batch budget rounds down to zero tokens.
	ErrBudgetTooSmall = errors.New("per-batch token budget too small")
)

// BudgetDivisor divides the model capacity into the per-batch budget. The
// split is deliberately small so prompt framing and output fit alongside.
const BudgetDivisor = 4

// Oracle counts and splits tokens for a specific model.
type Oracle interface {
	CountTokens(text string) int
	Tokenize(text string) []string
	Detokenize(tokens []string) string
	MaxContextTokens() int
}

// Batch is one slice of a document.
type Batch struct {
	Index  int
	Text   string
	Tokens int
}

// Batcher splits text using its Oracle.
type Batcher struct {
	Oracle Oracle
}

// Split returns text as one batch when it fits maxModelTokens, otherwise as
// consecutive batches of at most maxModelTokens/BudgetDivisor tokens each.
// Batches are in document order, trimmed, and never empty. A window that
// holds only whitespace is dropped, so the batch count can be lower than
// ceil(tokens/budget) and the batches do not rebuild the exact input.
func (b Batcher) Split(text string, maxModelTokens int) ([]Batch, error) {
	if b.Oracle == nil {
		return nil, errors.New("batcher has no token oracle")
	}
	if maxModelTokens <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrNoCapacity, maxModelTokens)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	total := b.Oracle.CountTokens(text)
	if total <= maxModelTokens {
		return []Batch{{Index: 0, Text: strings.TrimSpace(text), Tokens: total}}, nil
	}

	budget := maxModelTokens / BudgetDivisor
	if budget == 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrBudgetTooSmall, maxModelTokens)
	}

	tokens := b.Oracle.Tokenize(text)
	out := make([]Batch, 0, len(tokens)/budget+1)
	for start := 0; start < len(tokens); start += budget {
		end := start + budget
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := strings.TrimSpace(b.Oracle.Detokenize(tokens[start:end]))
		if chunk == "" {
			continue
		}
		out = append(out, Batch{Index: len(out), Text: chunk, Tokens: end - start})
	}
	log.Debug().Int("tokens", total).Int("budget", budget).Int("batches", len(out)).Msg("text split")
	return out, nil
}
