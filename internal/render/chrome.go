// Package render loads JavaScript-heavy pages in headless Chrome and returns
// the resulting DOM as HTML for the extractors.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// ErrRender wraps browser failures.
var ErrRender = errors.New("render failed")

// Chrome renders pages with chromedp. The zero value uses sensible defaults.
type Chrome struct {
	// Timeout bounds one page load. Zero means 45s.
	Timeout time.Duration
	// Settle is an extra wait after the body is ready, for lazy content.
	Settle    time.Duration
	UserAgent string
	// ExecPath overrides Chrome discovery.
	ExecPath string
}

// Render navigates to rawURL and returns the document's outer HTML.
func (c *Chrome) Render(ctx context.Context, rawURL string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.UserAgent))
	}
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		log.Debug().Msgf(format, args...)
	}))
	defer cancelTask()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, timeout)
	defer cancelTimeout()

	actions := []chromedp.Action{
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if c.Settle > 0 {
		actions = append(actions, chromedp.Sleep(c.Settle))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	start := time.Now()
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRender, rawURL, err)
	}
	log.Debug().Str("url", rawURL).Dur("took", time.Since(start)).Int("bytes", len(html)).Msg("page rendered")
	return []byte(html), nil
}

// Domains decides which hosts need a browser.
type Domains []string

// Match reports whether host equals or is a subdomain of any entry.
func (d Domains) Match(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	for _, want := range d {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		if host == want || strings.HasSuffix(host, "."+want) {
			return true
		}
	}
	return false
}
