// Package app wires the pipeline: load each locator, extract and normalize
// it, write artifacts, then batch the rendered text through card generation
// into the configured store.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/batch"
	"github.com/hyperifyio/gocards/internal/budget"
	"github.com/hyperifyio/gocards/internal/cache"
	"github.com/hyperifyio/gocards/internal/cards"
	"github.com/hyperifyio/gocards/internal/content"
	"github.com/hyperifyio/gocards/internal/extract"
	"github.com/hyperifyio/gocards/internal/fetch"
	"github.com/hyperifyio/gocards/internal/llm"
	"github.com/hyperifyio/gocards/internal/mochi"
	"github.com/hyperifyio/gocards/internal/normalize"
	"github.com/hyperifyio/gocards/internal/render"
	"github.com/hyperifyio/gocards/internal/robots"
)

// ErrNothingProcessed is returned when every locator of a run failed.
var ErrNothingProcessed = errors.New("no input could be processed")

// savedMarkdownExtractor names documents re-read from earlier artifacts.
const savedMarkdownExtractor = "saved-markdown"

type pageFetcher interface {
	Get(ctx context.Context, rawURL string) (fetch.Page, error)
	Download(ctx context.Context, rawURL, dst string) error
}

type pageRenderer interface {
	Render(ctx context.Context, rawURL string) ([]byte, error)
}

type robotsChecker interface {
	Check(ctx context.Context, rawURL string) (time.Duration, error)
}

type App struct {
	cfg Config

	resolver      *extract.Resolver
	writer        *normalize.Writer
	fetcher       pageFetcher
	renderer      pageRenderer
	renderDomains render.Domains
	robots        robotsChecker
	pacer         *fetch.Pacer

	batcher   batch.Batcher
	synth     *cards.Synthesizer
	collector *cards.Collector
	capacity  int

	httpCache *cache.HTTPCache
	llmCache  *cache.LLMCache
}

// New builds the pipeline for cfg. It fails when the model context cannot
// hold the instructions, the output reservation, and any document text.
func New(ctx context.Context, cfg Config) (*App, error) {
	cfg = cfg.withDefaults()
	a := &App{
		cfg:           cfg,
		resolver:      extract.DefaultResolver(),
		writer:        &normalize.Writer{Dir: cfg.OutDir},
		renderDomains: render.Domains(cfg.RenderDomains),
		pacer:         fetch.NewPacer(cfg.PoliteDelay),
		collector:     &cards.Collector{},
	}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		httpDir := filepath.Join(cfg.CacheDir, "http")
		llmDir := filepath.Join(cfg.CacheDir, "llm")
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeHTTPCacheByAge(httpDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Info().Int("removed", n).Msg("purged stale pages")
			}
			if n, err := cache.PurgeLLMCacheByAge(llmDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Info().Int("removed", n).Msg("purged stale generations")
			}
		}
		a.httpCache = &cache.HTTPCache{Dir: httpDir, StrictPerms: cfg.CacheStrictPerms}
		a.llmCache = &cache.LLMCache{Dir: llmDir, StrictPerms: cfg.CacheStrictPerms}
	}

	httpClient := newPoliteHTTPClient(60 * time.Second)
	a.fetcher = &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       2,
		PerRequestTimeout: 20 * time.Second,
		Cache:             a.httpCache,
		RedirectMaxHops:   5,
		BypassCache:       cfg.CacheClear,
	}
	a.robots = &robots.Manager{
		HTTPClient:  httpClient,
		Cache:       a.httpCache,
		UserAgent:   cfg.UserAgent,
		EntryExpiry: time.Hour,
	}
	a.renderer = &render.Chrome{UserAgent: cfg.UserAgent, Timeout: 45 * time.Second, Settle: time.Second}

	tok := budget.Tokenizer{Model: cfg.LLMModel, ContextTokens: cfg.ModelContextTokens}
	a.batcher = batch.Batcher{Oracle: tok}
	instructions := cards.Prompt(cfg.CardsPerBatch, cfg.Delimiter)
	window := tok.MaxContextTokens()
	a.capacity = budget.Capacity(window, tok.CountTokens(instructions), cfg.ReservedOutputTokens)
	if a.capacity <= 0 {
		return nil, fmt.Errorf("%w: context window %d leaves %d tokens for text", batch.ErrNoCapacity, window, a.capacity)
	}
	log.Debug().Int("context", window).Int("capacity", a.capacity).Msg("token budget")

	var store cards.Store = a.collector
	if !cfg.DryRun {
		store = cards.Tee{&mochi.Client{
			BaseURL:    cfg.MochiBaseURL,
			APIKey:     cfg.MochiAPIKey,
			HTTPClient: newPoliteHTTPClient(30 * time.Second),
			UserAgent:  cfg.UserAgent,
		}, a.collector}
	}

	if strings.TrimSpace(cfg.LLMModel) != "" {
		provider := llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, newPoliteHTTPClient(5*time.Minute))
		preflight(ctx, provider)
		a.synth = &cards.Synthesizer{
			Generator: &cards.Generator{
				Client:      provider,
				Model:       cfg.LLMModel,
				Cache:       a.llmCache,
				MaxTokens:   cfg.ReservedOutputTokens,
				Temperature: cfg.Temperature,
				CacheOnly:   cfg.LLMCacheOnly,
			},
			Batcher:      a.batcher,
			Store:        store,
			Delimiter:    cfg.Delimiter,
			Instructions: instructions,
			Deck:         cfg.MochiDeckID,
		}
	}
	return a, nil
}

// preflight lists models as a best-effort connectivity check.
func preflight(ctx context.Context, lister llm.ModelLister) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) > 0 {
		log.Info().Int("count", len(models.Models)).Msg("LLM models available")
	} else {
		log.Warn().Msg("LLM returned zero models")
	}
}

// Cards returns every card created during the run so far.
func (a *App) Cards() []cards.Card { return a.collector.Cards() }

// Run processes every locator in order and writes the manifest. Per-document
// failures are recorded and skipped; batching errors and cancellation stop
// the run.
func (a *App) Run(ctx context.Context) (Manifest, error) {
	m := Manifest{Meta: ManifestMeta{
		Model:      a.cfg.LLMModel,
		LLMBaseURL: a.cfg.LLMBaseURL,
		DeckID:     a.cfg.MochiDeckID,
		DryRun:     a.cfg.DryRun,
		Capacity:   a.capacity,
		HTTPCache:  a.httpCache != nil,
		LLMCache:   a.llmCache != nil,
		Version:    BuildVersion,
		Commit:     BuildCommit,
	}}
	locs, err := a.locators()
	if err != nil {
		return m, err
	}

	var runErr error
	for _, raw := range locs {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		loc := content.NewLocator(raw)
		entry, err := a.processOne(ctx, loc)
		m.Documents = append(m.Documents, entry)
		if err != nil {
			runErr = err
			break
		}
	}

	m.Meta.GeneratedAt = time.Now().UTC()
	if p, err := writeManifest(a.cfg.OutDir, m); err != nil {
		log.Warn().Err(err).Msg("manifest not written")
	} else {
		log.Info().Str("path", p).Int("documents", len(m.Documents)).Int("cards", m.CardsCreated()).Msg("wrote manifest")
	}
	if a.cfg.CardsPDFPath != "" {
		if list := a.collector.Cards(); len(list) > 0 {
			if err := writeCardsPDF("gocards study sheet", list, a.cfg.CardsPDFPath); err != nil {
				log.Warn().Err(err).Str("path", a.cfg.CardsPDFPath).Msg("cards pdf failed")
			} else {
				log.Info().Str("path", a.cfg.CardsPDFPath).Int("cards", len(list)).Msg("wrote cards pdf")
			}
		}
	}

	if runErr != nil {
		return m, runErr
	}
	if m.Processed() == 0 {
		return m, ErrNothingProcessed
	}
	return m, nil
}

// locators returns Inputs followed by the lines of InputFile.
func (a *App) locators() ([]string, error) {
	out := make([]string, 0, len(a.cfg.Inputs))
	for _, s := range a.cfg.Inputs {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if a.cfg.InputFile != "" {
		f, err := os.Open(a.cfg.InputFile)
		if err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			out = append(out, line)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no inputs")
	}
	return out, nil
}

// processOne runs one locator end to end. The returned error is non-nil only
// for conditions that must stop the whole run.
func (a *App) processOne(ctx context.Context, loc content.Locator) (DocumentEntry, error) {
	entry := DocumentEntry{Locator: loc.String()}

	if saved, text, ok := a.savedMarkdown(loc); ok {
		entry.Status = StatusOK
		entry.Extractor = savedMarkdownExtractor
		entry.Markdown = loc.String()
		entry.SHA256 = computeSHA256Hex(text)
		entry.Chars = len(text)
		log.Info().Str("path", loc.String()).Str("source", saved.String()).Msg("using saved markdown")
		return entry, a.synthesize(ctx, saved.String(), text, &entry)
	}

	res := a.extract(ctx, loc)
	entry.Extractor = res.Extractor
	if res.Failed() {
		entry.Status = StatusFailed
		entry.Error = res.Err.Error()
		log.Warn().Err(res.Err).Str("locator", loc.String()).Str("extractor", res.Extractor).Msg("document failed; skipping")
		return entry, nil
	}
	if a.cfg.DownloadImages && len(res.Images) > 0 {
		res = a.downloadImages(ctx, res)
	}

	art, err := a.writer.Write(res)
	if err != nil {
		entry.Status = StatusFailed
		entry.Error = err.Error()
		log.Warn().Err(err).Str("locator", loc.String()).Msg("artifacts not written; skipping")
		return entry, nil
	}
	entry.Title = res.Title
	entry.Warnings = res.Warnings
	entry.JSON = art.JSON
	entry.Markdown = art.Markdown
	entry.SHA256 = computeSHA256Hex(art.Rendered)
	entry.Chars = len(art.Rendered)
	log.Info().Str("locator", loc.String()).Str("extractor", res.Extractor).Int("blocks", len(res.Blocks)).Int("images", len(res.Images)).Msg("extracted")

	if res.Empty() {
		entry.Status = StatusEmpty
		log.Warn().Str("locator", loc.String()).Msg("no content blocks; skipping card generation")
		return entry, nil
	}
	entry.Status = StatusOK
	return entry, a.synthesize(ctx, loc.String(), art.Rendered, &entry)
}

// savedMarkdown recognizes a Markdown artifact written by an earlier run and
// returns the locator it was extracted from.
func (a *App) savedMarkdown(loc content.Locator) (content.Locator, string, bool) {
	if loc.IsRemote() || loc.Ext() != ".md" {
		return content.Locator{}, "", false
	}
	raw, err := os.ReadFile(loc.String())
	if err != nil {
		return content.Locator{}, "", false
	}
	src, ok := normalize.SourceFromMarkdown(string(raw))
	if !ok {
		return content.Locator{}, "", false
	}
	return src, string(raw), true
}

func (a *App) synthesize(ctx context.Context, source, text string, entry *DocumentEntry) error {
	if a.synth == nil {
		batches, err := a.batcher.Split(text, a.capacity)
		if err != nil {
			return fmt.Errorf("split %s: %w", source, err)
		}
		entry.Batches = len(batches)
		log.Info().Str("source", source).Int("batches", len(batches)).Msg("dry run: card generation skipped")
		return nil
	}
	sum, err := a.synth.Run(ctx, source, text, a.capacity)
	entry.Batches = sum.Batches
	entry.CardsCreated = sum.Created
	entry.CardsSkipped = sum.Skipped
	entry.StoreFailures = sum.StoreFailures
	entry.FailedBatches = sum.FailedBatches
	if len(sum.Errors) > 0 {
		entry.Error = strings.Join(sum.Errors, "; ")
	}
	return err
}

// extract loads and extracts one locator. Load and parse failures come back
// as failed results.
func (a *App) extract(ctx context.Context, loc content.Locator) content.Result {
	ex := a.resolver.Resolve(loc)
	raw, err := a.load(ctx, loc)
	if err != nil {
		return content.Failed(loc, ex.Name(), err)
	}
	var doc *goquery.Document
	if loc.IsRemote() || !rawInputExts[loc.Ext()] {
		doc, err = extract.ParseHTML(raw)
		if err != nil {
			return content.Failed(loc, ex.Name(), err)
		}
	}
	return extract.Run(ex, loc, doc, raw)
}

// rawInputExts are local inputs handed to their extractor without HTML parsing.
var rawInputExts = map[string]bool{".txt": true, ".md": true, ".markdown": true, ".epub": true}

func (a *App) load(ctx context.Context, loc content.Locator) ([]byte, error) {
	if !loc.IsRemote() {
		b, err := os.ReadFile(loc.String())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", loc.String(), err)
		}
		return b, nil
	}
	if !a.cfg.RobotsIgnore {
		delay, err := a.robots.Check(ctx, loc.String())
		if err != nil {
			return nil, err
		}
		if delay > 0 {
			a.pacer.Slow(delay)
		}
	}
	if err := a.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	if a.cfg.RenderJS || a.renderDomains.Match(loc.Domain()) {
		return a.renderer.Render(ctx, loc.String())
	}
	page, err := a.fetcher.Get(ctx, loc.String())
	if err != nil {
		return nil, err
	}
	return page.Body, nil
}

// downloadImages stores each image under <out>/images and records its
// path. Failures become warnings.
func (a *App) downloadImages(ctx context.Context, res content.Result) content.Result {
	dir := filepath.Join(a.cfg.OutDir, "images")
	imgs := make([]content.ImageRef, len(res.Images))
	copy(imgs, res.Images)
	warnings := append([]string(nil), res.Warnings...)
	for i, img := range imgs {
		dst := filepath.Join(dir, computeSHA256Hex(img.URL)[:16]+imageExt(img.URL))
		if err := a.fetcher.Download(ctx, img.URL, dst); err != nil {
			log.Debug().Err(err).Str("url", img.URL).Msg("image download failed")
			warnings = append(warnings, "image download failed: "+img.URL)
			continue
		}
		imgs[i].LocalPath = dst
	}
	res.Images = imgs
	res.Warnings = warnings
	return res
}

func imageExt(rawURL string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".avif":
		return ext
	}
	return ".img"
}

// ListDecks returns the decks visible to the configured Mochi key.
func ListDecks(ctx context.Context, cfg Config) ([]mochi.Deck, error) {
	cfg = cfg.withDefaults()
	c := &mochi.Client{
		BaseURL:    cfg.MochiBaseURL,
		APIKey:     cfg.MochiAPIKey,
		HTTPClient: newPoliteHTTPClient(30 * time.Second),
		UserAgent:  cfg.UserAgent,
	}
	return c.ListDecks(ctx)
}
