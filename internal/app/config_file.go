package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Inputs    []string `yaml:"inputs" json:"inputs"`
	InputFile string   `yaml:"inputFile" json:"inputFile"`

	Out struct {
		Dir string `yaml:"dir" json:"dir"`
	} `yaml:"out" json:"out"`

	LLM struct {
		BaseURL       string  `yaml:"base" json:"base"`
		Model         string  `yaml:"model" json:"model"`
		APIKey        string  `yaml:"key" json:"key"`
		Temperature   float32 `yaml:"temperature" json:"temperature"`
		ContextTokens int     `yaml:"contextTokens" json:"contextTokens"`
		ReservedOut   int     `yaml:"reservedOutputTokens" json:"reservedOutputTokens"`
		CacheOnly     bool    `yaml:"cacheOnly" json:"cacheOnly"`
	} `yaml:"llm" json:"llm"`

	Cards struct {
		PerBatch  int    `yaml:"perBatch" json:"perBatch"`
		Delimiter string `yaml:"delimiter" json:"delimiter"`
		PDF       string `yaml:"pdf" json:"pdf"`
	} `yaml:"cards" json:"cards"`

	Mochi struct {
		BaseURL string `yaml:"base" json:"base"`
		APIKey  string `yaml:"key" json:"key"`
		DeckID  string `yaml:"deck" json:"deck"`
	} `yaml:"mochi" json:"mochi"`

	Fetch struct {
		UserAgent      string        `yaml:"userAgent" json:"userAgent"`
		PoliteDelay    time.Duration `yaml:"politeDelay" json:"politeDelay"`
		DownloadImages bool          `yaml:"images" json:"images"`
	} `yaml:"fetch" json:"fetch"`

	Robots struct {
		Ignore bool `yaml:"ignore" json:"ignore"`
	} `yaml:"robots" json:"robots"`

	Render struct {
		JS      bool     `yaml:"js" json:"js"`
		Domains []string `yaml:"domains" json:"domains"`
	} `yaml:"render" json:"render"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	DryRun  bool `yaml:"dryRun" json:"dryRun"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for fields that are unset
// or still at their flag default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, v, def string) {
		if (*dst == "" || *dst == def) && v != "" {
			*dst = v
		}
	}
	num := func(dst *int, v, def int) {
		if (*dst == 0 || *dst == def) && v > 0 {
			*dst = v
		}
	}
	flag := func(dst *bool, v bool) {
		if !*dst && v {
			*dst = true
		}
	}

	if len(cfg.Inputs) == 0 && len(fc.Inputs) > 0 {
		cfg.Inputs = append([]string{}, fc.Inputs...)
	}
	str(&cfg.InputFile, fc.InputFile, "")
	str(&cfg.OutDir, fc.Out.Dir, DefaultOutDir)

	str(&cfg.LLMBaseURL, fc.LLM.BaseURL, "")
	str(&cfg.LLMModel, fc.LLM.Model, "")
	str(&cfg.LLMAPIKey, fc.LLM.APIKey, "")
	if cfg.Temperature == 0 && fc.LLM.Temperature > 0 {
		cfg.Temperature = fc.LLM.Temperature
	}
	num(&cfg.ModelContextTokens, fc.LLM.ContextTokens, 0)
	num(&cfg.ReservedOutputTokens, fc.LLM.ReservedOut, DefaultReservedOut)
	flag(&cfg.LLMCacheOnly, fc.LLM.CacheOnly)

	num(&cfg.CardsPerBatch, fc.Cards.PerBatch, DefaultCardsPerBatch)
	str(&cfg.Delimiter, fc.Cards.Delimiter, "---")
	str(&cfg.CardsPDFPath, fc.Cards.PDF, "")

	str(&cfg.MochiBaseURL, fc.Mochi.BaseURL, "")
	str(&cfg.MochiAPIKey, fc.Mochi.APIKey, "")
	str(&cfg.MochiDeckID, fc.Mochi.DeckID, "")

	str(&cfg.UserAgent, fc.Fetch.UserAgent, DefaultUserAgent)
	if (cfg.PoliteDelay == 0 || cfg.PoliteDelay == DefaultPoliteDelay) && fc.Fetch.PoliteDelay > 0 {
		cfg.PoliteDelay = fc.Fetch.PoliteDelay
	}
	flag(&cfg.DownloadImages, fc.Fetch.DownloadImages)
	flag(&cfg.RobotsIgnore, fc.Robots.Ignore)
	flag(&cfg.RenderJS, fc.Render.JS)
	if len(fc.Render.Domains) > 0 && (len(cfg.RenderDomains) == 0 || isDefaultRenderDomains(cfg.RenderDomains)) {
		cfg.RenderDomains = append([]string{}, fc.Render.Domains...)
	}

	str(&cfg.CacheDir, fc.Cache.Dir, DefaultCacheDir)
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	flag(&cfg.CacheClear, fc.Cache.Clear)
	flag(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)

	flag(&cfg.DryRun, fc.DryRun)
	flag(&cfg.Verbose, fc.Verbose)
}

func isDefaultRenderDomains(d []string) bool {
	return len(d) == 1 && d[0] == DefaultRenderDomain
}

// ValidateConfig checks required settings. A dry run needs neither a model
// nor a deck.
func ValidateConfig(cfg Config) error {
	if len(cfg.Inputs) == 0 && strings.TrimSpace(cfg.InputFile) == "" {
		return errors.New("config: at least one input (URL or path) is required")
	}
	if strings.TrimSpace(cfg.OutDir) == "" {
		return errors.New("config: out.dir is required")
	}
	if !cfg.DryRun {
		if strings.TrimSpace(cfg.LLMModel) == "" {
			return errors.New("config: llm.model is required (or set LLM_MODEL)")
		}
		if strings.TrimSpace(cfg.MochiDeckID) == "" {
			return errors.New("config: mochi.deck is required (or set MOCHI_DECK_ID)")
		}
		if strings.TrimSpace(cfg.MochiAPIKey) == "" {
			return errors.New("config: mochi.key is required (or set MOCHI_API_KEY)")
		}
	}
	if cfg.PoliteDelay < 0 {
		return errors.New("config: polite delay must not be negative")
	}
	if cfg.ModelContextTokens < 0 || cfg.ReservedOutputTokens < 0 || cfg.CardsPerBatch < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
