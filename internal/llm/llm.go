// Package llm wraps the generative model used by the agents and the chat.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/LeonardoBeccarini/farmai/internal/sources"
)

var (
	ErrNoAPIKey      = errors.New("llm: api key not configured")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	APIKey  string        `env:"GEMINI_API_KEY"`
	Model   string        `env:"GEMINI_MODEL,default=gemini-2.5-flash"`
	BaseURL string        `env:"GEMINI_URL,default=https://generativelanguage.googleapis.com/v1beta"`
	Timeout time.Duration `env:"GEMINI_TIMEOUT,default=60s"`
}

// Gemini calls the generateContent REST method.
type Gemini struct {
	up  *sources.Upstream
	url string
	key string
}

func NewGemini(cfg Config, bc sources.BreakerConfig) *Gemini {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	up := sources.NewUpstream("gemini", cfg.Timeout, bc, "")
	if cfg.APIKey != "" {
		up.WithHeader("x-goog-api-key", cfg.APIKey)
	}
	return &Gemini{
		up:  up,
		url: fmt.Sprintf("%s/models/%s:generateContent", base, model),
		key: cfg.APIKey,
	}
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.key == "" {
		return "", ErrNoAPIKey
	}
	body := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]string{{"text": prompt}}},
		},
	}
	raw, err := g.up.PostJSON(ctx, g.url, body)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, p := range gjson.GetBytes(raw, "candidates.0.content.parts").Array() {
		sb.WriteString(p.Get("text").String())
	}
	if sb.Len() == 0 {
		if reason := gjson.GetBytes(raw, "promptFeedback.blockReason").String(); reason != "" {
			return "", fmt.Errorf("llm: prompt blocked: %s", reason)
		}
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

var fenced = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ExtractJSON returns the first fenced block of text, or the trimmed text when there is none.
func ExtractJSON(text string) string {
	if m := fenced.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// ParseJSON decodes the model's JSON answer into out.
func ParseJSON(text string, out any) error {
	if err := json.Unmarshal([]byte(ExtractJSON(text)), out); err != nil {
		return fmt.Errorf("llm: invalid JSON in response: %w", err)
	}
	return nil
}
