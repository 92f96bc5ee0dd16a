package budget

import (
	"strings"
	"unicode"
)

// MaxPieceRunes bounds a single heuristic token.
const MaxPieceRunes = 4

// Tokenizer is a model-free token oracle. A token is a run of at most
// MaxPieceRunes runes, and a new token starts wherever non-whitespace follows
// whitespace. Joining the tokens reproduces the input exactly, and a count is
// never below a quarter of the rune count.
type Tokenizer struct {
	// Model selects the context window from the model table.
	Model string
	// ContextTokens overrides the table when positive.
	ContextTokens int
}

// CountTokens returns len(Tokenize(text)) without allocating the pieces.
func (t Tokenizer) CountTokens(text string) int {
	n := 0
	eachPiece(text, func(int, int) { n++ })
	return n
}

// Tokenize splits text into pieces.
func (t Tokenizer) Tokenize(text string) []string {
	var out []string
	eachPiece(text, func(start, end int) { out = append(out, text[start:end]) })
	return out
}

// Detokenize joins pieces back into text.
func (t Tokenizer) Detokenize(tokens []string) string {
	return strings.Join(tokens, "")
}

// MaxContextTokens reports the model's context window.
func (t Tokenizer) MaxContextTokens() int {
	if t.ContextTokens > 0 {
		return t.ContextTokens
	}
	return ModelContextTokens(t.Model)
}

func eachPiece(text string, emit func(start, end int)) {
	start, runes := 0, 0
	prevSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if runes > 0 && (runes == MaxPieceRunes || (prevSpace && !space)) {
			emit(start, i)
			start, runes = i, 0
		}
		runes++
		prevSpace = space
	}
	if runes > 0 {
		emit(start, len(text))
	}
}
