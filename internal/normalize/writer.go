package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/content"
)

// Artifacts lists the files written for one document.
type Artifacts struct {
	Base     string `json:"base"`
	JSON     string `json:"json"`
	Markdown string `json:"markdown"`
	// Rendered is the Markdown text that was written.
	Rendered string `json:"-"`
}

// Writer persists sanitized results under Dir.
type Writer struct {
	Dir string
	// Now is used for fallback names and timestamps; defaults to time.Now.
	Now func() time.Time
}

// Write sanitizes r and writes <base>.json and <base>.md. Both files are
// replaced atomically.
func (w *Writer) Write(r content.Result) (Artifacts, error) {
	if w == nil || w.Dir == "" {
		return Artifacts{}, errors.New("output dir not configured")
	}
	if r.Failed() {
		return Artifacts{}, fmt.Errorf("refusing to write failed result: %w", r.Err)
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("mkdir output: %w", err)
	}
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	clean := SanitizeResult(r)
	base := BaseName(clean, now)
	art := Artifacts{
		Base:     base,
		JSON:     filepath.Join(w.Dir, base+".json"),
		Markdown: filepath.Join(w.Dir, base+".md"),
	}

	data, err := json.MarshalIndent(BuildRecord(clean, now, uuid.New()), "", "  ")
	if err != nil {
		return Artifacts{}, fmt.Errorf("encode record: %w", err)
	}
	if err := writeFileAtomic(art.JSON, append(data, '\n')); err != nil {
		return Artifacts{}, err
	}
	art.Rendered = RenderMarkdown(clean)
	if err := writeFileAtomic(art.Markdown, []byte(art.Rendered)); err != nil {
		return Artifacts{}, err
	}
	log.Debug().Str("json", art.JSON).Str("markdown", art.Markdown).Msg("artifacts written")
	return art, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
