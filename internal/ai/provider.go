package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options bounds a single completion call.
type Options struct {
	MaxTokens   int
	Temperature float64
}

type Provider interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}
