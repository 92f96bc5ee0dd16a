// Package cache keeps fetched pages and model responses on disk so reruns
// over the same reading list are cheap and reproducible.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrMiss reports that no entry exists for a key.
var ErrMiss = errors.New("cache miss")

// HTTPEntry is the metadata needed to revalidate a cached page.
type HTTPEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// HTTPCache stores one page per URL as <sha256>.meta.json and <sha256>.body.
type HTTPCache struct {
	Dir string
	// StrictPerms restricts the directory to 0700 and files to 0600.
	StrictPerms bool
}

func (c *HTTPCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return mkdirPerm(c.Dir, c.StrictPerms)
}

func (c *HTTPCache) key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *HTTPCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *HTTPCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// Load returns the entry and body for url, or ErrMiss.
func (c *HTTPCache) Load(_ context.Context, url string) (HTTPEntry, []byte, error) {
	if err := c.ensureDir(); err != nil {
		return HTTPEntry{}, nil, err
	}
	key := c.key(url)
	raw, err := os.ReadFile(c.metaPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return HTTPEntry{}, nil, ErrMiss
	}
	if err != nil {
		return HTTPEntry{}, nil, err
	}
	var e HTTPEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return HTTPEntry{}, nil, fmt.Errorf("decode meta: %w", err)
	}
	body, err := os.ReadFile(c.bodyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return HTTPEntry{}, nil, ErrMiss
	}
	if err != nil {
		return HTTPEntry{}, nil, err
	}
	return e, body, nil
}

// Save writes body first and meta last, each through a rename, so a reader
// never sees meta without its body.
func (c *HTTPCache) Save(_ context.Context, e HTTPEntry, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	key := c.key(e.URL)
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	mode := fileMode(c.StrictPerms)
	if err := writeAtomic(c.bodyPath(key), body, mode); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := writeAtomic(c.metaPath(key), meta, mode); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

func mkdirPerm(dir string, strict bool) error {
	perm := os.FileMode(0o755)
	if strict {
		perm = 0o700
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return err
	}
	if strict {
		if info, err := os.Stat(dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(dir, 0o700)
		}
	}
	return nil
}

func fileMode(strict bool) os.FileMode {
	if strict {
		return 0o600
	}
	return 0o644
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	// WriteFile honours umask; apply the exact mode before publishing
	if err := os.Chmod(tmp, mode); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
