package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout))
}

// run parses args, builds the configuration, and returns the exit code.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("gocards", flag.ContinueOnError)
	var (
		cfg           app.Config
		configPath    string
		envFiles      string
		renderDomains string
		listDecks     bool
		showVersion   bool
		temperature   float64
	)
	fs.StringVar(&configPath, "config", os.Getenv("GOCARDS_CONFIG"), "Path to a YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load before reading the environment")
	fs.StringVar(&cfg.InputFile, "input.file", "", "File with one URL or path per line")
	fs.StringVar(&cfg.OutDir, "out.dir", "", "Directory for extracted records, Markdown, and the manifest (default "+app.DefaultOutDir+")")
	fs.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	fs.StringVar(&cfg.LLMModel, "llm.model", "", "Model name")
	fs.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the OpenAI-compatible server")
	fs.Float64Var(&temperature, "llm.temperature", 0, "Sampling temperature")
	fs.IntVar(&cfg.ModelContextTokens, "llm.contextTokens", 0, "Override the model context window in tokens")
	fs.IntVar(&cfg.ReservedOutputTokens, "llm.reservedOutput", 0, fmt.Sprintf("Tokens reserved for each reply (default %d)", app.DefaultReservedOut))
	fs.BoolVar(&cfg.LLMCacheOnly, "llm.cacheOnly", false, "Use cached generations only; never call the model")
	fs.IntVar(&cfg.CardsPerBatch, "cards.perBatch", 0, fmt.Sprintf("Cards requested per batch (default %d)", app.DefaultCardsPerBatch))
	fs.StringVar(&cfg.Delimiter, "cards.delimiter", "", "Delimiter between cards in model output (default ---)")
	fs.StringVar(&cfg.CardsPDFPath, "cards.pdf", "", "Write a PDF study sheet of all generated cards")
	fs.StringVar(&cfg.MochiBaseURL, "mochi.base", "", "Mochi API base URL")
	fs.StringVar(&cfg.MochiAPIKey, "mochi.key", "", "Mochi API key")
	fs.StringVar(&cfg.MochiDeckID, "mochi.deck", "", "Mochi deck id for new cards")
	fs.StringVar(&cfg.UserAgent, "ua", "", "User-Agent for fetching")
	fs.DurationVar(&cfg.PoliteDelay, "polite.delay", 0, "Delay between document fetches (default 2s)")
	fs.BoolVar(&cfg.RobotsIgnore, "robots.ignore", false, "Do not consult robots.txt")
	fs.BoolVar(&cfg.RenderJS, "render.js", false, "Render every remote page in headless Chrome")
	fs.StringVar(&renderDomains, "render.domains", "", "Comma-separated domains always rendered in Chrome (default "+app.DefaultRenderDomain+")")
	fs.BoolVar(&cfg.DownloadImages, "images", false, "Download images found in the main content")
	fs.StringVar(&cfg.CacheDir, "cache.dir", "", "Cache directory path (default "+app.DefaultCacheDir+")")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the cache directory before the run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Extract and batch, but send no cards to Mochi")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&listDecks, "decks", false, "List Mochi decks and exit")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: gocards [flags] <url-or-path>...\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if showVersion {
		fmt.Fprintf(stdout, "gocards %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return 0
	}

	cfg.Inputs = fs.Args()
	cfg.Temperature = float32(temperature)
	if list := splitList(renderDomains); len(list) > 0 {
		cfg.RenderDomains = list
	}

	if err := app.LoadEnvFiles(splitList(envFiles)...); err != nil {
		log.Error().Err(err).Msg("load env files")
		return 1
	}
	app.ApplyEnvToConfig(&cfg)
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file")
			return 1
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if listDecks {
		decks, err := app.ListDecks(ctx, cfg)
		if err != nil {
			log.Error().Err(err).Msg("list decks")
			return 1
		}
		for _, d := range decks {
			fmt.Fprintf(stdout, "%s\t%s\n", d.ID, d.Name)
		}
		return 0
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		fs.Usage()
		return 1
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init")
		return 1
	}
	m, err := a.Run(ctx)
	log.Info().Int("documents", len(m.Documents)).Int("processed", m.Processed()).Int("cards", m.CardsCreated()).Msg("run finished")
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		if errors.Is(err, app.ErrNothingProcessed) {
			return 2
		}
		return 1
	}
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
