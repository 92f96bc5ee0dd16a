package robots

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperifyio/gocards/internal/cache"
)

// robotsServer serves handler at /robots.txt and counts hits.
func robotsServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestManager_Revalidates(t *testing.T) {
	t.Parallel()
	lastMod := time.Now().UTC().Format(http.TimeFormat)
	cases := []struct {
		name        string
		validator   string
		value       string
		conditional string
	}{
		{"etag", "ETag", `W/"v1"`, "If-None-Match"},
		{"last-modified", "Last-Modified", lastMod, "If-Modified-Since"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv, hits := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(tc.validator, tc.value)
				if r.Header.Get(tc.conditional) != "" {
					w.WriteHeader(http.StatusNotModified)
					return
				}
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("User-agent: *\nDisallow: /drafts\n"))
			})
			m := &Manager{
				HTTPClient:        srv.Client(),
				Cache:             &cache.HTTPCache{Dir: t.TempDir()},
				UserAgent:         "gocards-test/1.0",
				EntryExpiry:       time.Hour,
				AllowPrivateHosts: true,
			}
			ctx := context.Background()
			u := srv.URL + "/robots.txt"

			want := []Source{SourceNetwork, SourceMemory}
			for i, w := range want {
				_, src, err := m.Get(ctx, u)
				if err != nil {
					t.Fatalf("get %d: %v", i, err)
				}
				if src != w {
					t.Fatalf("get %d: source=%v, want %v", i, src, w)
				}
			}
			if n := atomic.LoadInt32(hits); n != 1 {
				t.Fatalf("hits=%d, want 1", n)
			}

			m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
			rules, src, err := m.Get(ctx, u)
			if err != nil {
				t.Fatalf("revalidate: %v", err)
			}
			if src != SourceCache304 {
				t.Fatalf("source=%v, want SourceCache304", src)
			}
			if rules.IsAllowed("gocards", "/drafts/x") {
				t.Fatal("rules lost after 304")
			}
			if n := atomic.LoadInt32(hits); n != 2 {
				t.Fatalf("hits=%d, want 2", n)
			}
		})
	}
}

func TestManager_StatusPolicy(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status  int
		allowed bool
	}{
		{http.StatusNotFound, true},
		{http.StatusGone, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusServiceUnavailable, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			t.Parallel()
			srv, hits := robotsServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})
			m := &Manager{HTTPClient: srv.Client(), UserAgent: "gocards-test", EntryExpiry: time.Minute, AllowPrivateHosts: true}
			u := srv.URL + "/robots.txt"
			rules, src, err := m.Get(context.Background(), u)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if src != SourceNetwork {
				t.Fatalf("source=%v, want SourceNetwork", src)
			}
			if got := rules.IsAllowed("gocards", "/any"); got != tc.allowed {
				t.Fatalf("allowed=%v, want %v", got, tc.allowed)
			}
			if _, src, _ := m.Get(context.Background(), u); src != SourceMemory {
				t.Fatalf("second get source=%v, want SourceMemory", src)
			}
			if n := atomic.LoadInt32(hits); n != 1 {
				t.Fatalf("hits=%d, want 1", n)
			}
		})
	}
}

func TestManager_TimeoutDisallows(t *testing.T) {
	t.Parallel()
	srv, _ := robotsServer(t, func(http.ResponseWriter, *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client := *srv.Client()
	client.Timeout = 50 * time.Millisecond
	m := &Manager{HTTPClient: &client, UserAgent: "gocards-test", EntryExpiry: time.Minute, AllowPrivateHosts: true}
	rules, _, err := m.Get(context.Background(), srv.URL+"/robots.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rules.IsAllowed("gocards", "/any") {
		t.Fatal("timeout should disallow until expiry")
	}
}

func TestRules_IsAllowed(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		txt   string
		agent string
		path  string
		want  bool
	}{
		{"exact agent group wins", "User-agent: gocards\nDisallow: /private\n\nUser-agent: *\nAllow: /\n", "gocards", "/private/page", false},
		{"wildcard group for others", "User-agent: gocards\nDisallow: /private\n\nUser-agent: *\nAllow: /\n", "otheragent", "/private/page", true},
		{"longer allow wins", "User-agent: gocards\nDisallow: /private\nAllow: /private/public\n", "gocards", "/private/public/info", true},
		{"shorter disallow applies", "User-agent: gocards\nDisallow: /private\nAllow: /private/public\n", "gocards", "/private/else", false},
		{"anchored wildcard", "User-agent: gocards\nDisallow: /*.zip$\nAllow: /downloads/*.zip$\n", "gocards", "/foo/file.zip", false},
		{"longer anchored allow", "User-agent: gocards\nDisallow: /*.zip$\nAllow: /downloads/*.zip$\n", "gocards", "/downloads/file.zip", true},
		{"query pattern", "User-agent: *\nDisallow: /*?session=\n", "any", "/index.html?session=1", false},
		{"empty rules allow", "", "gocards", "/x", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Parse(tc.txt).IsAllowed(tc.agent, tc.path); got != tc.want {
				t.Fatalf("IsAllowed(%q, %q)=%v, want %v", tc.agent, tc.path, got, tc.want)
			}
		})
	}
}

func TestRules_CrawlDelayFor(t *testing.T) {
	t.Parallel()
	rules := Parse("User-agent: gocards\nCrawl-delay: 2\n\nUser-agent: *\nCrawl-delay: 7\n")
	if d := rules.CrawlDelayFor("gocards"); d == nil || *d != 2*time.Second {
		t.Fatalf("gocards delay=%v, want 2s", d)
	}
	if d := rules.CrawlDelayFor("other"); d == nil || *d != 7*time.Second {
		t.Fatalf("wildcard delay=%v, want 7s", d)
	}
}

func TestCheck_DisallowedAndCrawlDelay(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /drafts\nCrawl-delay: 1.5\n"))
	}))
	t.Cleanup(srv.Close)

	m := &Manager{HTTPClient: srv.Client(), UserAgent: "gocards/1.0", AllowPrivateHosts: true}
	delay, err := m.Check(context.Background(), srv.URL+"/posts/1?ref=x")
	if err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
	if delay != 1500*time.Millisecond {
		t.Fatalf("delay=%v, want 1.5s", delay)
	}
	if _, err := m.Check(context.Background(), srv.URL+"/drafts/secret"); !errors.Is(err, ErrDisallowed) {
		t.Fatalf("expected ErrDisallowed, got %v", err)
	}
}

func TestCheck_PrivateHostRejectedByDefault(t *testing.T) {
	m := &Manager{}
	if _, err := m.Check(context.Background(), "http://127.0.0.1:9/x"); err == nil {
		t.Fatal("expected private host error")
	}
}

func TestParse_IgnoresCommentsAndJunk(t *testing.T) {
	rules := Parse("# header\nnonsense line\nUser-agent: * # all\nDisallow: /tmp # scratch\n")
	if len(rules.Groups) != 1 || rules.Groups[0].Disallow[0] != "/tmp" {
		t.Fatalf("unexpected rules: %+v", rules)
	}
}
