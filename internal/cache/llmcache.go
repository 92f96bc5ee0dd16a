package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LLMCache stores generated text keyed by model and full prompt.
type LLMCache struct {
	Dir string
	// StrictPerms restricts the directory to 0700 and files to 0600.
	StrictPerms bool
}

type llmEntry struct {
	Model   string    `json:"model"`
	Content string    `json:"content"`
	SavedAt time.Time `json:"saved_at"`
}

// KeyFrom builds a cache key from model and prompt.
func KeyFrom(model string, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached content for model and prompt. A missing, unreadable,
// or empty entry is a miss; only a misconfigured cache is an error.
func (c *LLMCache) Get(_ context.Context, model, prompt string) (string, bool, error) {
	if c == nil || c.Dir == "" {
		return "", false, errors.New("cache dir not configured")
	}
	p := c.pathFor(KeyFrom(model, prompt))
	raw, err := os.ReadFile(p)
	if err != nil {
		return "", false, nil
	}
	var e llmEntry
	if err := json.Unmarshal(raw, &e); err != nil || strings.TrimSpace(e.Content) == "" {
		return "", false, nil
	}
	// mtime tracks last use for age purging
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return e.Content, true, nil
}

// Save stores content for model and prompt.
func (c *LLMCache) Save(_ context.Context, model, prompt, content string) error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := mkdirPerm(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	data, err := json.Marshal(llmEntry{Model: model, Content: content, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return writeAtomic(c.pathFor(KeyFrom(model, prompt)), data, fileMode(c.StrictPerms))
}
