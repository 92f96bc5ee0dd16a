// Package fetch retrieves source pages and their image assets over HTTP with
// bounded retry, a redirect cap, a content-type gate, and an optional on-disk
// cache with conditional revalidation.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/cache"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrContentType       = errors.New("unsupported content type")
	ErrTooManyRedirects  = errors.New("too many redirects")
)

// StatusError is returned for non-success HTTP statuses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("GET %s: status %d", e.URL, e.Code) }

// Page is a fetched document.
type Page struct {
	URL         string
	Body        []byte
	ContentType string
	// FromCache is set when the body came from the cache after a 304.
	FromCache bool
}

// DefaultMaxBodyBytes caps a single response body.
const DefaultMaxBodyBytes = 16 << 20

// Client wraps http.Client with timeouts and limited retry on transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Cache, when set, stores 200 responses and revalidates them.
	Cache *cache.HTTPCache
	// BypassCache skips revalidation but still saves fresh responses.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxBodyBytes caps response bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// backoff between attempts; tests shorten it
	backoff func(attempt int) time.Duration
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// clone so the redirect policy does not leak into the caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get fetches an HTML page.
func (c *Client) Get(ctx context.Context, rawURL string) (Page, error) {
	var prior cache.HTTPEntry
	haveCached := false
	if c.Cache != nil && !c.BypassCache {
		if e, _, err := c.Cache.Load(ctx, rawURL); err == nil {
			prior, haveCached = e, true
		}
	}
	var page Page
	err := c.retry(ctx, func() error {
		resp, err := c.do(ctx, rawURL, prior)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotModified && haveCached {
			_, body, err := c.Cache.Load(ctx, rawURL)
			if err != nil {
				return fmt.Errorf("load cached body: %w", err)
			}
			page = Page{URL: rawURL, Body: body, ContentType: prior.ContentType, FromCache: true}
			return nil
		}
		if err := checkStatus(rawURL, resp.StatusCode); err != nil {
			return err
		}
		ct := resp.Header.Get("Content-Type")
		if !isAllowedHTMLContentType(ct) {
			return fmt.Errorf("%w: %s", ErrContentType, ct)
		}
		body, err := c.readBody(resp)
		if err != nil {
			return err
		}
		page = Page{URL: rawURL, Body: body, ContentType: ct}
		if c.Cache != nil {
			e := cache.HTTPEntry{URL: rawURL, ContentType: ct, ETag: resp.Header.Get("ETag"), LastModified: resp.Header.Get("Last-Modified")}
			if err := c.Cache.Save(ctx, e, body); err != nil {
				log.Warn().Err(err).Str("url", rawURL).Msg("http cache save failed")
			}
		}
		return nil
	})
	return page, err
}

// Download stores an image asset at dst. Only image/* responses are accepted.
func (c *Client) Download(ctx context.Context, rawURL, dst string) error {
	return c.retry(ctx, func() error {
		resp, err := c.do(ctx, rawURL, cache.HTTPEntry{})
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := checkStatus(rawURL, resp.StatusCode); err != nil {
			return err
		}
		ct := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Type")))
		if !strings.HasPrefix(ct, "image/") {
			return fmt.Errorf("%w: %s", ErrContentType, ct)
		}
		body, err := c.readBody(resp)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("mkdir assets: %w", err)
		}
		tmp := dst + ".tmp"
		if err := os.WriteFile(tmp, body, 0o644); err != nil {
			return fmt.Errorf("write asset: %w", err)
		}
		return os.Rename(tmp, dst)
	})
}

func (c *Client) retry(ctx context.Context, attempt func() error) error {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := c.backoff
	if backoff == nil {
		backoff = func(i int) time.Duration { return time.Duration(i+1) * 200 * time.Millisecond }
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = attempt(); err == nil {
			return nil
		}
		if !isTransient(err) || i == attempts-1 {
			return err
		}
		log.Debug().Err(err).Int("attempt", i+1).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(i)):
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, rawURL string, prior cache.HTTPEntry) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if prior.ETag != "" {
		req.Header.Set("If-None-Match", prior.ETag)
	}
	if prior.LastModified != "" {
		req.Header.Set("If-Modified-Since", prior.LastModified)
	}
	if c.PerRequestTimeout > 0 {
		// the cancel runs when the body is closed
		tctx, cancel := context.WithTimeout(ctx, c.PerRequestTimeout)
		req = req.WithContext(tctx)
		resp, err := c.getHTTPClient().Do(req)
		if err != nil {
			cancel()
			return nil, err
		}
		resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}
	return c.getHTTPClient().Do(req)
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func checkStatus(rawURL string, code int) error {
	if code < 200 || code > 299 {
		return &StatusError{URL: rawURL, Code: code}
	}
	return nil
}

// isTransient treats 5xx and deadlines as retryable.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return ErrTooManyRedirects
		}
		if !isHTTPScheme(req.URL) {
			return fmt.Errorf("%w: redirect to %q", ErrUnsupportedScheme, req.URL.String())
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
