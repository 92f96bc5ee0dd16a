package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Document statuses recorded in the manifest.
const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

// ManifestFile is the run manifest written under the output directory.
const ManifestFile = "manifest.json"

// DocumentEntry is the per-locator record of one run.
type DocumentEntry struct {
	Locator   string   `json:"locator"`
	Status    string   `json:"status"`
	Extractor string   `json:"extractor,omitempty"`
	Title     string   `json:"title,omitempty"`
	JSON      string   `json:"json,omitempty"`
	Markdown  string   `json:"markdown,omitempty"`
	SHA256    string   `json:"sha256,omitempty"`
	Chars     int      `json:"chars,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`

	Batches       int `json:"batches"`
	CardsCreated  int `json:"cards_created"`
	CardsSkipped  int `json:"cards_skipped"`
	StoreFailures int `json:"store_failures"`
	FailedBatches int `json:"failed_batches"`

	Error string `json:"error,omitempty"`
}

// ManifestMeta captures run-wide details that aid reproducibility.
type ManifestMeta struct {
	Model       string    `json:"model"`
	LLMBaseURL  string    `json:"llm_base_url"`
	DeckID      string    `json:"deck_id,omitempty"`
	DryRun      bool      `json:"dry_run"`
	Capacity    int       `json:"capacity_tokens"`
	HTTPCache   bool      `json:"http_cache"`
	LLMCache    bool      `json:"llm_cache"`
	Version     string    `json:"version"`
	Commit      string    `json:"commit"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Manifest is the machine-readable summary of a run.
type Manifest struct {
	Meta      ManifestMeta    `json:"meta"`
	Documents []DocumentEntry `json:"documents"`
}

// Processed counts documents that did not fail.
func (m Manifest) Processed() int {
	n := 0
	for _, d := range m.Documents {
		if d.Status != StatusFailed {
			n++
		}
	}
	return n
}

// CardsCreated sums cards stored across documents.
func (m Manifest) CardsCreated() int {
	n := 0
	for _, d := range m.Documents {
		n += d.CardsCreated
	}
	return n
}

func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// writeManifest encodes m to <dir>/manifest.json.
func writeManifest(dir string, m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir output: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
