package budget

import (
	"math"
	"strings"
)

// DefaultContextTokens is assumed for unknown models.
const DefaultContextTokens = 8192

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Unknown models fall back to DefaultContextTokens.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return DefaultContextTokens
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range sizeSuffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") {
		// most current "mini" models ship a 128k window
		return 128_000
	}
	return DefaultContextTokens
}

// HeadroomTokens is the safety margin kept free of a context window: the
// larger of 5% of the window or 512 tokens.
func HeadroomTokens(contextTokens int) int {
	dyn := int(math.Ceil(float64(contextTokens) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// Capacity is the number of document tokens one generation call may carry
// after the prompt, the output reservation, and headroom are taken out of the
// context window. It may be zero or negative; callers treat that as fatal.
func Capacity(contextTokens, promptTokens, reservedForOutput int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	return contextTokens - promptTokens - reservedForOutput - HeadroomTokens(contextTokens)
}

// knownModelMax contains rough context sizes for common model identifiers.
var knownModelMax = map[string]int{
	"gpt-4o":             128_000,
	"gpt-4o-mini":        128_000,
	"gpt-4-turbo":        128_000,
	"gpt-4-0125-preview": 128_000,
	"gpt-4.1":            1_000_000,
	"gpt-4.1-mini":       1_000_000,
	"gpt-3.5-turbo":      16_384,

	"claude-3-5-sonnet": 200_000,
	"claude-3-opus":     200_000,
	"claude-3-haiku":    200_000,

	"llama-3":   8_192,
	"llama-3.1": 128_000,

	"openai/gpt-oss-20b": 4_096,
	"gpt-oss-20b":        4_096,
}

var sizeSuffixes = []struct {
	suffix string
	tokens int
}{
	{"1m", 1_000_000},
	{"512k", 512_000},
	{"200k", 200_000},
	{"128k", 128_000},
	{"32k", 32_768},
	{"16k", 16_384},
}
