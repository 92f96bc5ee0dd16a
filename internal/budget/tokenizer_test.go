package budget

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTokenize_Pieces(t *testing.T) {
	tok := Tokenizer{}
	got := tok.Tokenize("hello world  ok")
	want := []string{"hell", "o ", "worl", "d  ", "ok"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("Tokenize = %q, want %q", got, want)
	}
	if tok.CountTokens("hello world  ok") != len(want) {
		t.Fatalf("CountTokens disagrees with Tokenize")
	}
}

func TestTokenize_RoundTrip(t *testing.T) {
	tok := Tokenizer{}
	inputs := []string{
		"",
		"   leading and trailing   ",
		"multi\nline\n\n\ttext with ünïcödé and 日本語の文章",
		"\xff\xfe invalid bytes",
	}
	for _, in := range inputs {
		if out := tok.Detokenize(tok.Tokenize(in)); out != in {
			t.Fatalf("round trip changed %q into %q", in, out)
		}
	}
}

func TestCountTokens_NeverBelowQuarterOfRunes(t *testing.T) {
	tok := Tokenizer{}
	for _, in := range []string{"a", "abcd", "abcde", "a b c d e f", strings.Repeat("word ", 100)} {
		est := (utf8.RuneCountInString(in) + MaxPieceRunes - 1) / MaxPieceRunes
		if got := tok.CountTokens(in); got < est {
			t.Fatalf("%q: count %d below estimate %d", in, got, est)
		}
	}
}

func TestMaxContextTokens(t *testing.T) {
	if (Tokenizer{Model: "gpt-4o"}).MaxContextTokens() != 128_000 {
		t.Fatal("model table not used")
	}
	if (Tokenizer{Model: "gpt-4o", ContextTokens: 2048}).MaxContextTokens() != 2048 {
		t.Fatal("explicit override ignored")
	}
}
