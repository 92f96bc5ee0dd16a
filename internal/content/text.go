package content

import (
	"regexp"
	"strings"
)

var (
	headingLineRe   = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	unorderedItemRe = regexp.MustCompile(`^[-*+]\s+(.+)$`)
	orderedItemRe   = regexp.MustCompile(`^\d{1,3}[.)]\s+(.+)$`)
)

// BlocksFromText splits plain or lightly formatted Markdown text into blocks.
// Blank lines separate paragraphs; ATX headings, fenced code, quote lines and
// list item runs map onto their block kinds. Order follows the input.
func BlocksFromText(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var (
		out       []Block
		para      []string
		quote     []string
		items     []string
		ordered   bool
		inFence   bool
		fenceBody []string
	)
	flush := func() {
		if len(para) > 0 {
			out = append(out, Paragraph(strings.Join(para, "\n")))
			para = nil
		}
		if len(quote) > 0 {
			out = append(out, Quote(strings.Join(quote, "\n")))
			quote = nil
		}
		if len(items) > 0 {
			out = append(out, List(ordered, items))
			items = nil
		}
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		if inFence {
			if strings.HasPrefix(trimmed, "```") {
				out = append(out, Code(strings.Join(fenceBody, "\n")))
				fenceBody = nil
				inFence = false
				continue
			}
			fenceBody = append(fenceBody, line)
			continue
		}
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "```"):
			flush()
			inFence = true
		case headingLineRe.MatchString(trimmed):
			flush()
			m := headingLineRe.FindStringSubmatch(trimmed)
			out = append(out, Heading(len(m[1]), m[2]))
		case strings.HasPrefix(trimmed, ">"):
			if len(para) > 0 || len(items) > 0 {
				flush()
			}
			quote = append(quote, strings.TrimSpace(strings.TrimPrefix(trimmed, ">")))
		case unorderedItemRe.MatchString(trimmed):
			if len(items) > 0 && ordered {
				flush()
			} else if len(para) > 0 || len(quote) > 0 {
				flush()
			}
			ordered = false
			items = append(items, unorderedItemRe.FindStringSubmatch(trimmed)[1])
		case orderedItemRe.MatchString(trimmed):
			if len(items) > 0 && !ordered {
				flush()
			} else if len(para) > 0 || len(quote) > 0 {
				flush()
			}
			ordered = true
			items = append(items, orderedItemRe.FindStringSubmatch(trimmed)[1])
		default:
			if len(items) > 0 || len(quote) > 0 {
				flush()
			}
			para = append(para, trimmed)
		}
	}
	if inFence && len(fenceBody) > 0 {
		// unterminated fence keeps its body as code
		out = append(out, Code(strings.Join(fenceBody, "\n")))
	}
	flush()
	return out
}
