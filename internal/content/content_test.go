package content

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocator_RemoteAndDomain(t *testing.T) {
	cases := []struct {
		in     string
		remote bool
		domain string
	}{
		{"https://www.uber.com/blog/example", true, "www.uber.com"},
		{"  http://Blog.JaneStreet.com/post/  ", true, "blog.janestreet.com"},
		{"/tmp/transcript.txt", false, "local"},
		{"notes/lecture.md", false, "local"},
		{"ftp://example.com/file", false, "local"},
	}
	for _, c := range cases {
		loc := NewLocator(c.in)
		if loc.IsRemote() != c.remote {
			t.Fatalf("IsRemote(%q) = %v, want %v", c.in, loc.IsRemote(), c.remote)
		}
		if got := loc.Domain(); got != c.domain {
			t.Fatalf("Domain(%q) = %q, want %q", c.in, got, c.domain)
		}
	}
	if ext := NewLocator("notes/Lecture.MD").Ext(); ext != ".md" {
		t.Fatalf("Ext = %q", ext)
	}
}

func TestFailed_CarriesOnlyIdentification(t *testing.T) {
	loc := NewLocator("https://example.com/a")
	r := Failed(loc, "Generic", errors.New("boom"))
	if !r.Failed() {
		t.Fatal("expected failed result")
	}
	if r.Title != "" || len(r.Blocks) != 0 || len(r.Images) != 0 {
		t.Fatalf("failed result carries content: %+v", r)
	}
	if r.Domain != "example.com" || r.Extractor != "Generic" {
		t.Fatalf("unexpected identification: %+v", r)
	}
}

func TestHeading_ClampsLevel(t *testing.T) {
	if Heading(0, "x").Level != 1 || Heading(9, "x").Level != 6 {
		t.Fatal("heading level not clamped")
	}
}

func TestBlocksFromText(t *testing.T) {
	in := "# Lecture 3\n\nIntro line one\nintro line two\n\n- alpha\n- beta\n1. first\n2. second\n\n> quoted\n> more\n\n```\nfunc main() {}\n```\n\n## Outro\nbye"
	want := []Block{
		Heading(1, "Lecture 3"),
		Paragraph("Intro line one\nintro line two"),
		List(false, []string{"alpha", "beta"}),
		List(true, []string{"first", "second"}),
		Quote("quoted\nmore"),
		Code("func main() {}"),
		Heading(2, "Outro"),
		Paragraph("bye"),
	}
	got := BlocksFromText(in)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("BlocksFromText mismatch (-want +got):\n%s", diff)
	}
}

func TestBlocksFromText_EmptyAndWhitespace(t *testing.T) {
	if got := BlocksFromText("  \n\n\t\n"); len(got) != 0 {
		t.Fatalf("expected no blocks, got %v", got)
	}
}
