// Package chat answers questions about an analysed property.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LeonardoBeccarini/farmai/internal/llm"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// HistoryTurns is how many prior messages are replayed in the prompt.
const HistoryTurns = 10

type Agronomist struct {
	gen llm.Generator
}

func New(gen llm.Generator) *Agronomist { return &Agronomist{gen: gen} }

// Reply asks the model and returns its trimmed answer.
func (a *Agronomist) Reply(ctx context.Context, message string, history []entities.ChatMessage, analysis json.RawMessage) (string, error) {
	text, err := a.gen.Generate(ctx, Prompt(message, history, analysis))
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Prompt builds the agronomist prompt. analysis may be empty or JSON null.
func Prompt(message string, history []entities.ChatMessage, analysis json.RawMessage) string {
	var contextStr string
	if ctx := indent(analysis); ctx != "" {
		contextStr = "You have access to the following property analysis data:\n" + ctx + "\n"
	}

	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	var hist strings.Builder
	for _, m := range history {
		hist.WriteString(m.Role)
		hist.WriteString(": ")
		hist.WriteString(m.Content)
		hist.WriteByte('\n')
	}

	return fmt.Sprintf(`You are an expert AI Agronomist working for Farm.ai, a precision agriculture platform.
You provide concise, data-driven answers about soil health, crop selection, climate conditions, and farm economics.

%s

Conversation so far:
%s

User question: %s

Respond directly and concisely (2-4 sentences). Reference specific numbers from the data when relevant.
If asked about something not in the data, say so honestly. Do not use markdown formatting.`, contextStr, hist.String(), message)
}

func indent(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return buf.String()
}
