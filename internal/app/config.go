package app

import (
	"time"
)

// Defaults shared by the CLI flags and file-config overlay.
const (
	DefaultOutDir        = "scraped_content"
	DefaultCacheDir      = ".gocards-cache"
	DefaultPoliteDelay   = 2 * time.Second
	DefaultReservedOut   = 2048
	DefaultCardsPerBatch = 10
	DefaultUserAgent     = "gocards/1.0 (+https://github.com/hyperifyio/gocards)"
	DefaultRenderDomain  = "medium.com"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Inputs are URLs or local paths, processed in order.
	Inputs []string
	// InputFile lists more locators, one per line; '#' starts a comment.
	InputFile string
	OutDir    string

	// LLM
	LLMBaseURL   string
	LLMModel     string
	LLMAPIKey    string
	Temperature  float32
	LLMCacheOnly bool

	// Budgeting
	ModelContextTokens   int
	ReservedOutputTokens int
	CardsPerBatch        int
	Delimiter            string

	// Card store
	MochiBaseURL string
	MochiAPIKey  string
	MochiDeckID  string
	CardsPDFPath string

	// Fetching
	UserAgent      string
	PoliteDelay    time.Duration
	RobotsIgnore   bool
	RenderJS       bool
	RenderDomains  []string
	DownloadImages bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Behavior
	DryRun  bool
	Verbose bool
}

// withDefaults fills zero values that have a sensible default.
func (c Config) withDefaults() Config {
	if c.OutDir == "" {
		c.OutDir = DefaultOutDir
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.PoliteDelay == 0 {
		c.PoliteDelay = DefaultPoliteDelay
	}
	if c.ReservedOutputTokens == 0 {
		c.ReservedOutputTokens = DefaultReservedOut
	}
	if c.CardsPerBatch == 0 {
		c.CardsPerBatch = DefaultCardsPerBatch
	}
	if c.Delimiter == "" {
		c.Delimiter = "---"
	}
	if c.RenderDomains == nil {
		c.RenderDomains = []string{DefaultRenderDomain}
	}
	return c
}
