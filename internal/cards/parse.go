package cards

import (
	"strings"
)

const (
	frontPrefix = "Front: "
	backPrefix  = "Back: "
)

// Parse splits model output on delimiter and reads one card per segment.
// Front and Back must both be set inside the same segment; a later line of
// the same kind overrides an earlier one. Segments holding only whitespace
// are ignored, any other segment missing a side is reported as a Diagnostic.
// An empty delimiter means DefaultDelimiter.
func Parse(output, source, deck, delimiter string) ([]Card, []Diagnostic) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	var (
		out   []Card
		diags []Diagnostic
	)
	for i, seg := range strings.Split(output, delimiter) {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		front, back := scanSegment(seg)
		switch {
		case front == "" && back == "":
			diags = append(diags, Diagnostic{Segment: i, Reason: "no Front or Back line"})
		case front == "":
			diags = append(diags, Diagnostic{Segment: i, Reason: "missing Front"})
		case back == "":
			diags = append(diags, Diagnostic{Segment: i, Reason: "missing Back"})
		default:
			out = append(out, Card{Front: front, Back: back, Source: source, Deck: deck})
		}
	}
	return out, diags
}

func scanSegment(seg string) (front, back string) {
	for _, line := range strings.Split(seg, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, frontPrefix):
			front = strings.TrimSpace(line[len(frontPrefix):])
		case strings.HasPrefix(line, backPrefix):
			back = strings.TrimSpace(line[len(backPrefix):])
		}
	}
	return front, back
}
