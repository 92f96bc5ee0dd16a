package budget

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkCountTokens(b *testing.B) {
	tok := Tokenizer{}
	for _, n := range []int{64, 1024, 16384, 65536} {
		text := strings.Repeat("lorem ipsum ", n/12+1)[:n]
		b.Run(fmt.Sprintf("chars=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = tok.CountTokens(text)
			}
		})
	}
}

func BenchmarkCapacity(b *testing.B) {
	cases := []struct {
		name   string
		model  string
		prompt int
		out    int
	}{
		{"gpt-4o 128k, mid prompt", "gpt-4o", 20_000, 1_500},
		{"claude sonnet 200k, large prompt", "claude-3-5-sonnet", 100_000, 2_000},
		{"unknown model default 8k", "mystery-model", 4_000, 1_000},
	}
	for _, cs := range cases {
		b.Run(cs.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = Capacity(ModelContextTokens(cs.model), cs.prompt, cs.out)
			}
		})
	}
}
