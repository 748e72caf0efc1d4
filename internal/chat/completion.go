package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhlee-dev/portfolio-api/internal/ai"
)

const (
	streamMaxTokens   = 800
	completeMaxTokens = 300
	samplingTemp      = 0.7
)

const systemPromptFormat = `You are the AI assistant for this personal portfolio site.
Answer visitor questions using the information below:

Profile: %s
Skills: %s
Experience: %s
Education: %s

Answer guide:
- Be friendly and professional
- Answer favorably about the portfolio owner
- Keep answers concise and clear, within 800 characters
- If an answer would run long, prioritize the key points and wrap up naturally`

// Completer wraps an ai.Provider with the portfolio prompt and the
// degrade-don't-propagate policy: a provider failure becomes apology text
// in the answer, never an error, because the visitor is already mid-chat.
type Completer struct {
	provider ai.Provider
}

func NewCompleter(provider ai.Provider) *Completer {
	return &Completer{provider: provider}
}

func systemPrompt(pctx Context) string {
	return fmt.Sprintf(systemPromptFormat, pctx.Profile, pctx.Skills, pctx.Experience, pctx.Education)
}

func apology(err error) string {
	return fmt.Sprintf("Sorry, I cannot generate a response right now. (%v)", err)
}

func promptMessages(question string, pctx Context) []ai.Message {
	return []ai.Message{
		{Role: "system", Content: systemPrompt(pctx)},
		{Role: "user", Content: question},
	}
}

// Stream produces answer fragments in provider order. The returned channel
// always terminates: on a mid-stream failure the final fragment is an
// apology embedding the error, then the channel closes.
func (c *Completer) Stream(ctx context.Context, question string, pctx Context) <-chan string {
	out := make(chan string, 16)

	go func() {
		defer close(out)

		msgs := promptMessages(question, pctx)
		opts := ai.Options{MaxTokens: streamMaxTokens, Temperature: samplingTemp}

		send := func(s string) bool {
			select {
			case out <- s:
				return true
			case <-ctx.Done():
				return false
			}
		}

		sp, ok := c.provider.(ai.StreamProvider)
		if !ok {
			// provider without streaming support: one-shot, single fragment
			reply, err := c.provider.Chat(ctx, msgs, opts)
			if err != nil {
				send(apology(err))
				return
			}
			if reply != "" {
				send(reply)
			}
			return
		}

		chunks, errs := sp.StreamChat(ctx, msgs, opts)
		for chunk := range chunks {
			if !send(chunk) {
				return
			}
		}
		// both channels are closed together; after the drain this read
		// yields the terminal error or the zero value
		if err := <-errs; err != nil {
			send(apology(err))
		}
	}()

	return out
}

// Complete is the blocking variant with a tighter output bound.
func (c *Completer) Complete(ctx context.Context, question string, pctx Context) string {
	reply, err := c.provider.Chat(ctx, promptMessages(question, pctx), ai.Options{
		MaxTokens:   completeMaxTokens,
		Temperature: samplingTemp,
	})
	if err != nil {
		return apology(err)
	}
	return strings.TrimSpace(reply)
}
