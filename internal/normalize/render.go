package normalize

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/hyperifyio/gocards/internal/content"
)

// RenderMarkdown renders r with a fixed header, one section per block, and an
// optional numbered image list. The layout is stable byte for byte so saved
// files can be diffed and re-ingested.
func RenderMarkdown(r content.Result) string {
	var b strings.Builder
	title := r.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if r.Author != "" {
		fmt.Fprintf(&b, "**Author:** %s\n\n", r.Author)
	}
	if r.Published != "" {
		fmt.Fprintf(&b, "**Date:** %s\n\n", r.Published)
	}
	fmt.Fprintf(&b, "**Source:** %s\n\n", r.Locator.String())
	extractor := r.Extractor
	if extractor == "" {
		extractor = "Unknown"
	}
	fmt.Fprintf(&b, "**Extracted by:** %s\n\n", extractor)
	b.WriteString("---\n\n")

	for _, blk := range r.Blocks {
		writeBlock(&b, blk)
	}

	if len(r.Images) > 0 {
		b.WriteString("\n---\n\n## Images\n\n")
		for i, img := range r.Images {
			fmt.Fprintf(&b, "%d. %s\n", i+1, img.URL)
			if img.Caption != "" {
				fmt.Fprintf(&b, "   Caption: %s\n", img.Caption)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeBlock(b *strings.Builder, blk content.Block) {
	switch blk.Kind {
	case content.KindHeading:
		level := blk.Level
		if level < 1 || level > 6 {
			level = 2
		}
		fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", level), blk.Text)
	case content.KindQuote:
		fmt.Fprintf(b, "> %s\n\n", blk.Text)
	case content.KindCode:
		fmt.Fprintf(b, "```\n%s\n```\n\n", blk.Text)
	case content.KindList:
		for i, item := range blk.Items {
			if blk.Ordered {
				fmt.Fprintf(b, "%d. %s\n", i+1, item)
			} else {
				fmt.Fprintf(b, "- %s\n", item)
			}
		}
		b.WriteString("\n")
	default:
		fmt.Fprintf(b, "%s\n\n", blk.Text)
	}
}

// SourceFromMarkdown recovers the locator from a rendered document's
// "**Source:**" line. ok is false when the line is missing.
func SourceFromMarkdown(md string) (content.Locator, bool) {
	const prefix = "**Source:** "
	sc := bufio.NewScanner(strings.NewReader(md))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, prefix) {
			loc := content.NewLocator(strings.TrimPrefix(line, prefix))
			return loc, !loc.IsZero()
		}
		if line == "---" {
			break
		}
	}
	return content.Locator{}, false
}
