package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDomains_Match(t *testing.T) {
	d := Domains{"medium.com", " Example.org "}
	cases := map[string]bool{
		"medium.com":          true,
		"blog.medium.com":     true,
		"notmedium.com":       false,
		"EXAMPLE.org":         true,
		"example.org.evil.io": false,
		"":                    false,
	}
	for host, want := range cases {
		if got := d.Match(host); got != want {
			t.Errorf("Match(%q) = %v, want %v", host, got, want)
		}
	}
}

// Launching a browser is opt-in.
func TestChrome_RendersScriptContent(t *testing.T) {
	if os.Getenv("GOCARDS_CHROME_TEST") == "" {
		t.Skip("set GOCARDS_CHROME_TEST=1 to run against a local Chrome")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><main id="m"></main>
<script>document.getElementById("m").innerHTML = "<p>rendered by script</p>";</script></body></html>`))
	}))
	defer srv.Close()

	c := &Chrome{Timeout: 30 * time.Second}
	html, err := c.Render(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(html), "rendered by script") {
		t.Fatalf("script output missing from DOM: %s", html)
	}
}
