package cards

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_TwoWellFormedCards(t *testing.T) {
	out := "### Card 1\nFront: What is X?\nBack: X is Y\n---\n### Card 2\nFront: What is Z?\nBack: Z is W\n---"
	got, diags := Parse(out, "https://example.com/a", "deck1", "---")
	want := []Card{
		{Front: "What is X?", Back: "X is Y", Source: "https://example.com/a", Deck: "deck1"},
		{Front: "What is Z?", Back: "Z is W", Source: "https://example.com/a", Deck: "deck1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cards mismatch (-want +got):\n%s", diff)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
}

func TestParse_NoCarryOverAcrossSegments(t *testing.T) {
	out := "Front: Q1\nBack: A1\n---\nFront: Q2\n---\nBack: A3\n---\nnothing useful here\n---"
	got, diags := Parse(out, "src", "d", "")
	want := []Card{{Front: "Q1", Back: "A1", Source: "src", Deck: "d"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cards mismatch (-want +got):\n%s", diff)
	}
	wantDiags := []Diagnostic{
		{Segment: 1, Reason: "missing Back"},
		{Segment: 2, Reason: "missing Front"},
		{Segment: 3, Reason: "no Front or Back line"},
	}
	if diff := cmp.Diff(wantDiags, diags); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_LaterLineOverridesWithinSegment(t *testing.T) {
	got, _ := Parse("Front: first\nFront: second \nBack: b1\nBack:  b2\n", "s", "d", "---")
	want := []Card{{Front: "second", Back: "b2", Source: "s", Deck: "d"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cards mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CRLFAndCustomDelimiter(t *testing.T) {
	out := "Front: Q\r\nBack: A\r\n===\r\n\r\n===Front: ignored prefix\r\n"
	got, diags := Parse(out, "s", "d", "===")
	want := []Card{{Front: "Q", Back: "A", Source: "s", Deck: "d"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cards mismatch (-want +got):\n%s", diff)
	}
	// the last segment starts with "Front: " and has no Back
	if len(diags) != 1 || diags[0].Segment != 2 {
		t.Fatalf("diagnostics = %+v", diags)
	}
}

func TestParse_PrefixMustStartLine(t *testing.T) {
	got, diags := Parse("  Front: indented\nBack: b\n", "s", "d", "---")
	if len(got) != 0 {
		t.Fatalf("indented Front accepted: %+v", got)
	}
	if len(diags) != 1 || diags[0].Reason != "missing Front" {
		t.Fatalf("diagnostics = %+v", diags)
	}
}

func TestParse_NSegmentsYieldNCards(t *testing.T) {
	for _, n := range []int{1, 3, 17} {
		var sb strings.Builder
		var want []Card
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "### Card %d\nFront: q%d\nBack: a%d\n---\n", i+1, i, i)
			want = append(want, Card{Front: fmt.Sprintf("q%d", i), Back: fmt.Sprintf("a%d", i), Source: "s", Deck: "d"})
		}
		got, diags := Parse(sb.String(), "s", "d", "---")
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("n=%d mismatch (-want +got):\n%s", n, diff)
		}
		if len(diags) != 0 {
			t.Fatalf("n=%d diagnostics: %+v", n, diags)
		}
	}
}

func TestParse_EmptyOutput(t *testing.T) {
	got, diags := Parse("  \n\n", "s", "d", "---")
	if got != nil || diags != nil {
		t.Fatalf("expected nothing, got %+v %+v", got, diags)
	}
}

func TestCard_Valid(t *testing.T) {
	if (Card{Front: "q", Back: " "}).Valid() {
		t.Fatal("blank back should be invalid")
	}
	if !(Card{Front: "q", Back: "a"}).Valid() {
		t.Fatal("expected valid")
	}
}

func TestPrompt_MentionsLayoutAndDelimiter(t *testing.T) {
	p := Prompt(7, "%%%")
	for _, want := range []string{"7 spaced repetition cards", "### Card <n>", "Front: <prompt>", "Back: <answer>", "%%%"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if got := BuildPrompt("do it", "text"); got != "do it\ntext" {
		t.Fatalf("BuildPrompt = %q", got)
	}
	if got := BuildPrompt(p, "text"); !strings.HasSuffix(got, "format:\ntext") {
		t.Fatalf("BuildPrompt should append directly after trailing newline: %q", got[len(got)-20:])
	}
}
