package normalize

import (
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/gocards/internal/content"
)

// Record is the persisted structured form of one extraction. Optional fields
// are pointers so an absent value is written as null rather than dropped.
type Record struct {
	ID          string             `json:"id"`
	URL         string             `json:"url"`
	Extractor   string             `json:"extractor"`
	Domain      string             `json:"domain"`
	Title       *string            `json:"title"`
	Author      *string            `json:"author"`
	Date        *string            `json:"date"`
	Description *string            `json:"description"`
	Content     []content.Block    `json:"content"`
	Images      []content.ImageRef `json:"images"`
	Warnings    []string           `json:"warnings,omitempty"`
	ScrapedAt   time.Time          `json:"scraped_at"`
}

// BuildRecord converts r into a Record stamped with id and now.
func BuildRecord(r content.Result, now time.Time, id uuid.UUID) Record {
	rec := Record{
		ID:          id.String(),
		URL:         r.Locator.String(),
		Extractor:   r.Extractor,
		Domain:      r.Domain,
		Title:       optional(r.Title),
		Author:      optional(r.Author),
		Date:        optional(r.Published),
		Description: optional(r.Description),
		Content:     r.Blocks,
		Images:      r.Images,
		Warnings:    r.Warnings,
		ScrapedAt:   now.UTC(),
	}
	if rec.Content == nil {
		rec.Content = []content.Block{}
	}
	if rec.Images == nil {
		rec.Images = []content.ImageRef{}
	}
	return rec
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
