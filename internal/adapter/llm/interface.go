// Package llm provides an abstraction over the upstream completion providers.
package llm

import (
	"context"

	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// DeltaFunc receives each piece of generated text in order.
// Returning an error aborts the stream.
type DeltaFunc func(text string) error

// Request is a provider-neutral streaming completion request.
type Request struct {
	Model    string
	Messages []domain.CompletionMessage
}

// LLMClient streams generated text for a conversation.
type LLMClient interface {
	StreamText(ctx context.Context, req *Request, onDelta DeltaFunc) error
}

// Ensure the clients implement LLMClient.
var (
	_ LLMClient = (*OpenAIClient)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*GeminiClient)(nil)
	_ LLMClient = (*MockClient)(nil)
)

// splitSystem separates system messages from the conversation for providers
// that take the system prompt out of band.
func splitSystem(msgs []domain.CompletionMessage) (string, []domain.CompletionMessage) {
	var system string
	rest := make([]domain.CompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
