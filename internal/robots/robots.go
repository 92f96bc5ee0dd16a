// Package robots fetches and evaluates robots.txt so the pipeline only reads
// pages a site permits and honours its crawl delay.
package robots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/cache"
)

// ErrDisallowed is returned by Check when robots.txt forbids a URL.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Source tells where rules came from.
type Source int

const (
	SourceNetwork Source = iota
	SourceMemory
	SourceCache304
)

// Manager fetches robots.txt once per host and keeps it in memory until
// EntryExpiry. Missing files (404/410) allow everything; unreachable or
// protected files (401/403/5xx/network errors) disallow everything until
// expiry.
type Manager struct {
	HTTPClient        *http.Client
	Cache             *cache.HTTPCache
	UserAgent         string
	EntryExpiry       time.Duration
	AllowPrivateHosts bool

	mu  sync.Mutex
	mem map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	rules  Rules
	expiry time.Time
}

// Get returns the rules at robotsURL.
func (m *Manager) Get(ctx context.Context, robotsURL string) (Rules, Source, error) {
	u, err := url.Parse(robotsURL)
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return Rules{}, SourceNetwork, fmt.Errorf("unsupported url scheme: %q", robotsURL)
	}
	if !m.AllowPrivateHosts && isLocalOrPrivateHost(u.Hostname()) {
		return Rules{}, SourceNetwork, fmt.Errorf("private host not allowed: %s", u.Hostname())
	}

	m.mu.Lock()
	if m.mem == nil {
		m.mem = make(map[string]memEntry)
	}
	if ent, ok := m.mem[robotsURL]; ok && m.clock().Before(ent.expiry) {
		m.mu.Unlock()
		return ent.rules, SourceMemory, nil
	}
	m.mu.Unlock()

	rules, src := m.fetch(ctx, robotsURL)
	m.storeMem(robotsURL, rules)
	return rules, src, nil
}

// Check returns nil and the crawl delay for rawURL when fetching is allowed,
// and an error wrapping ErrDisallowed otherwise.
func (m *Manager) Check(ctx context.Context, rawURL string) (time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parse url: %w", err)
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()
	rules, _, err := m.Get(ctx, robotsURL)
	if err != nil {
		return 0, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !rules.IsAllowed(m.UserAgent, path) {
		return 0, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
	}
	var delay time.Duration
	if d := rules.CrawlDelayFor(m.UserAgent); d != nil {
		delay = *d
	}
	return delay, nil
}

func (m *Manager) fetch(ctx context.Context, robotsURL string) (Rules, Source) {
	var prior cache.HTTPEntry
	if m.Cache != nil {
		if e, _, err := m.Cache.Load(ctx, robotsURL); err == nil {
			prior = e
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return disallowAll, SourceNetwork
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	if prior.ETag != "" {
		req.Header.Set("If-None-Match", prior.ETag)
	}
	if prior.LastModified != "" {
		req.Header.Set("If-Modified-Since", prior.LastModified)
	}
	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("robots", robotsURL).Msg("robots.txt unreachable; disallowing host")
		return disallowAll, SourceNetwork
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && m.Cache != nil:
		if _, body, err := m.Cache.Load(ctx, robotsURL); err == nil {
			return Parse(string(body)), SourceCache304
		}
		return disallowAll, SourceCache304
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return allowAll, SourceNetwork
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		log.Warn().Int("status", resp.StatusCode).Str("robots", robotsURL).Msg("robots.txt unavailable; disallowing host")
		return disallowAll, SourceNetwork
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return disallowAll, SourceNetwork
	}
	if m.Cache != nil {
		e := cache.HTTPEntry{URL: robotsURL, ContentType: resp.Header.Get("Content-Type"), ETag: resp.Header.Get("ETag"), LastModified: resp.Header.Get("Last-Modified")}
		_ = m.Cache.Save(ctx, e, data)
	}
	return Parse(string(data)), SourceNetwork
}

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

func (m *Manager) storeMem(key string, rules Rules) {
	exp := m.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	m.mu.Lock()
	m.mem[key] = memEntry{rules: rules, expiry: m.clock().Add(exp)}
	m.mu.Unlock()
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isLocalOrPrivateHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "localhost" || h == "localhost.localdomain" {
		return true
	}
	if ip := net.ParseIP(strings.Trim(h, "[]")); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
	}
	return false
}
