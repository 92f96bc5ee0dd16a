// Command openai-stub serves a minimal OpenAI-compatible API that answers
// card prompts with well-formed cards built from the article text. It is
// used for local end-to-end runs without a real model.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const articleMarker = "Here is the article in Markdown format:"

var countRe = regexp.MustCompile(`Create a set of (\d+) spaced repetition cards`)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if len(req.Messages) == 0 {
			http.Error(w, "no messages", http.StatusBadRequest)
			return
		}
		prompt := req.Messages[len(req.Messages)-1].Content
		idx := strings.Index(prompt, articleMarker)
		if idx < 0 {
			http.Error(w, "unexpected prompt", http.StatusBadRequest)
			return
		}
		count := 3
		if m := countRe.FindStringSubmatch(prompt); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				count = n
			}
		}
		content := stubCards(prompt[idx+len(articleMarker):], count)
		log.Debug().Int("cards", count).Msg("chat completion")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "stub",
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}}},
		})
	})
	return mux
}

// stubCards turns up to count non-empty article lines into cards.
func stubCards(article string, count int) string {
	var lines []string
	for _, line := range strings.Split(article, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#-* "))
		if line != "" {
			lines = append(lines, line)
		}
		if len(lines) == count {
			break
		}
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "### Card %d\nFront: What does the article say in passage %d?\nBack: %s\n", i+1, i+1, line)
	}
	return b.String()
}
