package extract

import (
	"strings"
	"testing"

	"github.com/hyperifyio/gocards/internal/content"
)

func applyProse(t *testing.T, page string) Partial {
	t.Helper()
	doc, err := ParseHTML([]byte(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Prose{}.Apply(content.NewLocator("https://example.com/post"), doc, []byte(page))
}

func TestProse_PrefersMainOverBody(t *testing.T) {
	page := `<!doctype html>
	<html>
	  <head><title>Test Page</title><meta name="author" content="Ada"></head>
	  <body>
	    <nav>Nav should be ignored</nav>
	    <main>
	      <h1>Main Heading</h1>
	      <p>This is the main content paragraph.</p>
	    </main>
	    <footer>Footer text</footer>
	  </body>
	</html>`

	p := applyProse(t, page)
	if p.Title != "Test Page" {
		t.Fatalf("expected title 'Test Page', got %q", p.Title)
	}
	if p.Author != "Ada" {
		t.Fatalf("expected author Ada, got %q", p.Author)
	}
	if !strings.Contains(p.Body, "# Main Heading") {
		t.Fatalf("expected heading marker in body: %q", p.Body)
	}
	if !strings.Contains(p.Body, "This is the main content paragraph.") {
		t.Fatalf("expected main paragraph")
	}
	if strings.Contains(p.Body, "Nav should be ignored") || strings.Contains(p.Body, "Footer text") {
		t.Fatalf("did not expect nav or footer text: %q", p.Body)
	}
}

func TestProse_FallbackToBody(t *testing.T) {
	page := `<html><head><title>No Main</title></head>
	<body><h2>Body Heading</h2><p>Body paragraph</p></body></html>`

	p := applyProse(t, page)
	if !strings.Contains(p.Body, "## Body Heading") || !strings.Contains(p.Body, "Body paragraph") {
		t.Fatalf("unexpected body: %q", p.Body)
	}
}

func TestProse_PreservesCodeAndListItems(t *testing.T) {
	page := `<html><head><title>Code and List</title></head><body>
	<article>
	  <h3>Examples</h3>
	  <ul>
	    <li>First item</li>
	    <li>Second item</li>
	  </ul>
	  <pre><code>print("hello")
print("world")</code></pre>
	</article></body></html>`

	p := applyProse(t, page)
	for _, want := range []string{"### Examples", "- First item", "- Second item", "```\nprint(\"hello\")\nprint(\"world\")\n```"} {
		if !strings.Contains(p.Body, want) {
			t.Fatalf("expected %q in body:\n%s", want, p.Body)
		}
	}
}

func TestProse_SkipsCookieBanner(t *testing.T) {
	page := `<html><body><main>
	<div class="cookie-banner">We use cookies</div>
	<p>Actual article text.</p>
	</main></body></html>`

	p := applyProse(t, page)
	if strings.Contains(p.Body, "cookies") {
		t.Fatalf("cookie banner leaked: %q", p.Body)
	}
	if p.Body != "Actual article text." {
		t.Fatalf("unexpected body: %q", p.Body)
	}
}

func TestProse_EmptyHeadingDoesNotLeaveMarker(t *testing.T) {
	p := applyProse(t, `<html><body><main><h2> </h2><p>Text after an empty heading.</p></main></body></html>`)
	if p.Body != "Text after an empty heading." {
		t.Fatalf("unexpected body: %q", p.Body)
	}
}
