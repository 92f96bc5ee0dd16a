// Package mochi is a small client for the Mochi cards REST API.
package mochi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocards/internal/cards"
)

// DefaultBaseURL is the hosted API root.
const DefaultBaseURL = "https://app.mochi.cards/api"

// maxErrorBody bounds how much of a failed response is kept in APIError.
const maxErrorBody = 512

// ErrNoAPIKey is returned before any request when the key is missing.
var ErrNoAPIKey = errors.New("mochi api key not set")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mochi %s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Client talks to the API with HTTP basic auth, the key as user name and an
// empty password.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	UserAgent  string
}

// Deck is one entry of ListDecks.
type Deck struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent-id,omitempty"`
	Archived bool   `json:"archived?,omitempty"`
}

type createCardRequest struct {
	Content       string `json:"content"`
	DeckID        string `json:"deck-id"`
	ReviewReverse bool   `json:"review-reverse?"`
	Archived      bool   `json:"archived?"`
}

// Content renders a card in Mochi's markdown layout: front, back, and
// source separated by "---" lines.
func Content(c cards.Card) string {
	return c.Front + "\n---\n" + c.Back + "\n---\n" + c.Source + "\n"
}

// CreateCard posts one card. It implements cards.Store.
func (c *Client) CreateCard(ctx context.Context, card cards.Card) error {
	if !card.Valid() {
		return errors.New("mochi: card has an empty side")
	}
	body, err := json.Marshal(createCardRequest{
		Content: Content(card),
		DeckID:  card.Deck,
	})
	if err != nil {
		return err
	}
	start := time.Now()
	if err := c.do(ctx, http.MethodPost, "/cards/", nil, body, nil); err != nil {
		return err
	}
	log.Debug().Str("deck", card.Deck).Dur("took", time.Since(start)).Msg("mochi card created")
	return nil
}

type decksPage struct {
	Docs     []Deck `json:"docs"`
	Bookmark string `json:"bookmark"`
}

// ListDecks returns every deck visible to the key, following bookmarks.
func (c *Client) ListDecks(ctx context.Context) ([]Deck, error) {
	var out []Deck
	bookmark := ""
	for page := 0; page < 100; page++ {
		q := url.Values{}
		if bookmark != "" {
			q.Set("bookmark", bookmark)
		}
		var p decksPage
		if err := c.do(ctx, http.MethodGet, "/decks/", q, nil, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Docs...)
		if len(p.Docs) == 0 || p.Bookmark == "" || p.Bookmark == bookmark {
			break
		}
		bookmark = p.Bookmark
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte, into any) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrNoAPIKey
	}
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u := base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.APIKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("mochi %s %s: %w", method, u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Method: method, URL: u, Status: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}
	if into == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("mochi %s %s: decode: %w", method, u, err)
	}
	return nil
}
