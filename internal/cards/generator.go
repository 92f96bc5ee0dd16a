package cards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gocards/internal/cache"
	"github.com/hyperifyio/gocards/internal/llm"
)

// ErrEmptyOutput means the model answered with no usable content.
var ErrEmptyOutput = errors.New("empty model output")

// DefaultMaxTokens caps a single card generation reply.
const DefaultMaxTokens = 2048

// Generator produces raw card text for one prompt with a chat completion.
type Generator struct {
	Client llm.Client
	Model  string
	// Cache, when set, returns earlier answers for the same model and prompt.
	Cache       *cache.LLMCache
	MaxTokens   int
	Temperature float32
	// CacheOnly fails with ErrEmptyOutput instead of calling the model on a miss.
	CacheOnly bool

	retryDelay time.Duration
}

// Generate sends prompt as a single user message. A failed call is retried
// once after a short pause.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Client == nil || strings.TrimSpace(g.Model) == "" {
		return "", errors.New("generator not configured")
	}
	if g.Cache != nil {
		if out, ok, err := g.Cache.Get(ctx, g.Model, prompt); err == nil && ok {
			log.Debug().Str("model", g.Model).Msg("card generation cache hit")
			return out, nil
		}
	}
	if g.CacheOnly {
		return "", fmt.Errorf("%w: cache miss in cache-only mode", ErrEmptyOutput)
	}

	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	req := openai.ChatCompletionRequest{
		Model: g.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: g.Temperature,
		N:           1,
	}
	resp, err := g.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("model", g.Model).Msg("card generation failed; retrying once")
		if werr := g.pause(ctx); werr != nil {
			return "", werr
		}
		resp, err = g.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("card generation (after retry): %w", err)
		}
	}
	out := llm.FirstContent(resp)
	if out == "" {
		return "", ErrEmptyOutput
	}
	if g.Cache != nil {
		if err := g.Cache.Save(ctx, g.Model, prompt, out); err != nil {
			log.Debug().Err(err).Msg("llm cache save failed")
		}
	}
	return out, nil
}

func (g *Generator) pause(ctx context.Context) error {
	d := g.retryDelay
	if d == 0 {
		d = 100 * time.Millisecond
	}
	if d < 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
