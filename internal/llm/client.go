package llm

import (
	"context"
	"errors"
	"strings"

	"chat-relay/internal/history"
)

// FallbackReply is returned as the completion text when the provider answers
// but supplies nothing usable.
const FallbackReply = "No idea!"

// ErrCompletionFailed wraps every transport, auth or status failure from the
// provider.
var ErrCompletionFailed = errors.New("completion failed")

// Fixed generation parameters.
const (
	Temperature      = 1.0
	TopP             = 1.0
	FrequencyPenalty = 0.0
	PresencePenalty  = 0.0
	DefaultMaxTokens = 2048
)

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Fallback         bool
}

type Client interface {
	Generate(ctx context.Context, thread history.Thread) (Response, error)
}

// contentOrFallback applies the soft-fail rule for empty completions.
func contentOrFallback(s string) (string, bool) {
	if strings.TrimSpace(s) == "" {
		return FallbackReply, true
	}
	return s, false
}
