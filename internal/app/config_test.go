package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyEnvToConfig_FromEnv(t *testing.T) {
	t.Setenv("LLM_MODEL", "qwen3-8b")
	t.Setenv("MOCHI_DECK_ID", "eaUFr02Y")
	t.Setenv("CACHE_DIR", "/tmp/gocards-cache")
	t.Setenv("POLITE_DELAY", "3s")
	t.Setenv("MODEL_CONTEXT_TOKENS", "32768")
	t.Setenv("DRY_RUN", "yes")

	cfg := Config{LLMModel: "explicit"}
	ApplyEnvToConfig(&cfg)
	if cfg.LLMModel != "explicit" {
		t.Fatalf("explicit value overwritten: %q", cfg.LLMModel)
	}
	if cfg.MochiDeckID != "eaUFr02Y" || cfg.CacheDir != "/tmp/gocards-cache" {
		t.Fatalf("string fields not read: %+v", cfg)
	}
	if cfg.PoliteDelay != 3*time.Second || cfg.ModelContextTokens != 32768 || !cfg.DryRun {
		t.Fatalf("typed fields not read: delay=%v ctx=%d dry=%v", cfg.PoliteDelay, cfg.ModelContextTokens, cfg.DryRun)
	}
}

func TestLoadConfigFile_YAMLAndApply(t *testing.T) {
	p := filepath.Join(t.TempDir(), "gocards.yaml")
	yml := `inputs:
  - https://www.uber.com/blog/example
out:
  dir: cards-out
llm:
  base: http://localhost:11434/v1
  model: qwen3
  contextTokens: 32768
mochi:
  deck: deck-1
fetch:
  politeDelay: 5s
render:
  domains: [medium.com, example.org]
cache:
  maxAge: 48h
dryRun: true
`
	if err := os.WriteFile(p, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// flag defaults as the CLI sets them
	cfg := Config{OutDir: DefaultOutDir, PoliteDelay: DefaultPoliteDelay, RenderDomains: []string{DefaultRenderDomain}, LLMModel: "flag-model"}
	ApplyFileConfig(&cfg, fc)

	if len(cfg.Inputs) != 1 || cfg.OutDir != "cards-out" || cfg.LLMBaseURL != "http://localhost:11434/v1" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.LLMModel != "flag-model" {
		t.Fatalf("explicit flag overwritten: %q", cfg.LLMModel)
	}
	if cfg.PoliteDelay != 5*time.Second || cfg.CacheMaxAge != 48*time.Hour || cfg.ModelContextTokens != 32768 {
		t.Fatalf("durations/numbers not applied: %+v", cfg)
	}
	if strings.Join(cfg.RenderDomains, ",") != "medium.com,example.org" || !cfg.DryRun || cfg.MochiDeckID != "deck-1" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "gocards.json")
	if err := os.WriteFile(p, []byte(`{"llm":{"model":"m"},"cards":{"perBatch":5,"delimiter":"==="}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var cfg Config
	ApplyFileConfig(&cfg, fc)
	if cfg.LLMModel != "m" || cfg.CardsPerBatch != 5 || cfg.Delimiter != "===" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	ok := Config{Inputs: []string{"a.txt"}, OutDir: "out", LLMModel: "m", MochiDeckID: "d", MochiAPIKey: "k"}
	if err := ValidateConfig(ok); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	dry := Config{Inputs: []string{"a.txt"}, OutDir: "out", DryRun: true}
	if err := ValidateConfig(dry); err != nil {
		t.Fatalf("dry run should not need model or deck: %v", err)
	}
	bad := []Config{
		{OutDir: "out", DryRun: true},
		{Inputs: []string{"a"}, DryRun: true},
		{Inputs: []string{"a"}, OutDir: "out", MochiDeckID: "d", MochiAPIKey: "k"},
		{Inputs: []string{"a"}, OutDir: "out", LLMModel: "m", MochiAPIKey: "k"},
		{Inputs: []string{"a"}, OutDir: "out", DryRun: true, PoliteDelay: -time.Second},
		{Inputs: []string{"a"}, OutDir: "out", DryRun: true, CardsPerBatch: -1},
	}
	for i, c := range bad {
		if err := ValidateConfig(c); err == nil {
			t.Errorf("case %d: expected error for %+v", i, c)
		}
	}
}

func TestNewPoliteHTTPClient_Config(t *testing.T) {
	c := newPoliteHTTPClient(time.Minute)
	if c.Timeout != time.Minute {
		t.Fatalf("timeout = %v", c.Timeout)
	}
	if c.Transport == nil {
		t.Fatal("expected a dedicated transport")
	}
}
