package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHTTPCache_SaveLoad(t *testing.T) {
	t.Parallel()
	c := &HTTPCache{Dir: t.TempDir()}
	ctx := context.Background()
	in := HTTPEntry{URL: "https://a.com/1", ContentType: "text/html", ETag: `"v1"`}
	if err := c.Save(ctx, in, []byte("<p>hi</p>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	e, body, err := c.Load(ctx, in.URL)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(body) != "<p>hi</p>" || e.ETag != `"v1"` || e.SavedAt.IsZero() {
		t.Fatalf("unexpected entry %+v body %q", e, body)
	}
}

func TestHTTPCache_Miss(t *testing.T) {
	t.Parallel()
	c := &HTTPCache{Dir: t.TempDir()}
	if _, _, err := c.Load(context.Background(), "https://nowhere"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestHTTPCache_NotConfigured(t *testing.T) {
	var c *HTTPCache
	if _, _, err := c.Load(context.Background(), "x"); err == nil {
		t.Fatal("expected error for nil cache")
	}
}

func TestPurgeHTTPCacheByAge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	ctx := context.Background()
	old := HTTPEntry{URL: "https://a.com/old", SavedAt: time.Now().Add(-48 * time.Hour)}
	fresh := HTTPEntry{URL: "https://a.com/new"}
	if err := c.Save(ctx, old, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(ctx, fresh, []byte("new")); err != nil {
		t.Fatal(err)
	}
	removed, err := PurgeHTTPCacheByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, c.key(old.URL)+".body")); !os.IsNotExist(err) {
		t.Fatalf("expected old body removed")
	}
	if _, _, err := c.Load(ctx, fresh.URL); err != nil {
		t.Fatalf("fresh entry lost: %v", err)
	}
}

func TestPurge_MissingDirIsNoop(t *testing.T) {
	n, err := PurgeHTTPCacheByAge(filepath.Join(t.TempDir(), "absent"), time.Hour)
	if err != nil || n != 0 {
		t.Fatalf("expected noop, got %d, %v", n, err)
	}
}

func TestClearDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "c")
	c := &HTTPCache{Dir: dir}
	if err := c.Save(context.Background(), HTTPEntry{URL: "u"}, []byte("b")); err != nil {
		t.Fatal(err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty dir, got %v, %v", entries, err)
	}
	if err := ClearDir(" "); err == nil {
		t.Fatal("expected error for blank dir")
	}
}

func TestHTTPCache_MetaIsJSON(t *testing.T) {
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	if err := c.Save(context.Background(), HTTPEntry{URL: "https://a.com/x", LastModified: "Mon"}, nil); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, c.key("https://a.com/x")+".meta.json"))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m["last_modified"] != "Mon" {
		t.Fatalf("unexpected meta %s", raw)
	}
}
