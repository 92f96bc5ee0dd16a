package cards

import (
	"fmt"
	"strings"
)

// DefaultCardCount is how many cards are requested per batch.
const DefaultCardCount = 10

// Prompt returns the synthesis instructions asking for count cards, each
// followed by delimiter.
func Prompt(count int, delimiter string) string {
	if count <= 0 {
		count = DefaultCardCount
	}
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a set of %d spaced repetition cards from the article below so I can retain its important points.\n", count)
	sb.WriteString("Each card has a front and a back. The front is a retrieval practice prompt and the back is its answer.\n")
	sb.WriteString("Structure every card as three lines:\n")
	sb.WriteString("### Card <n>\n")
	sb.WriteString("Front: <prompt>\n")
	sb.WriteString("Back: <answer>\n")
	fmt.Fprintf(&sb, "Put the delimiter %s on its own line after each card.\n\n", delimiter)
	sb.WriteString("Guidelines for good retrieval practice prompts:\n")
	sb.WriteString("1. Focused: ask about one detail at a time.\n")
	sb.WriteString("2. Precise: say exactly what the answer should contain.\n")
	sb.WriteString("3. Consistent: the same prompt should produce the same answer on every review.\n")
	sb.WriteString("4. Tractable: you should almost always be able to answer it; break hard ideas down or add cues.\n")
	sb.WriteString("5. Effortful: the answer must come from memory and not be trivially inferred from the prompt.\n")
	sb.WriteString("6. Above all, cover the technical details of the article. No questions about the authors, social media, or other unrelated content.\n\n")
	sb.WriteString("Use only the article text for prompts and answers.\n")
	sb.WriteString("Here is the article in Markdown format:\n")
	return sb.String()
}

// BuildPrompt prepends instructions to one batch of article text.
func BuildPrompt(instructions, batchText string) string {
	if instructions == "" {
		return batchText
	}
	if strings.HasSuffix(instructions, "\n") {
		return instructions + batchText
	}
	return instructions + "\n" + batchText
}
