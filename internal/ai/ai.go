// Package ai holds the LLM completion providers used by the concierge.
package ai

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyResponse = errors.New("llm returned no content")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer returns the model's reply to messages. In JSON mode the provider
// is asked to emit a single JSON object.
type Completer interface {
	Complete(ctx context.Context, messages []Message, jsonMode bool) (string, error)
}

// StripCodeFence removes a ```json fence some models wrap around JSON replies.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
