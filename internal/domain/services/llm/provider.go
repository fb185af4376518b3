package llm

import (
	"context"
)

// ChatMessage is one entry of the conversation sent to the completion provider.
type ChatMessage struct {
	Role    string // "user" or "assistant"
	Content string
}

// StreamChunk is one item of a streaming completion.
// Exactly one of Text or Err is set; a chunk with Err is always the last.
type StreamChunk struct {
	Text string
	Err  error
}

// CompletionClient talks to a text-completion provider.
// Implementations wrap every failure in *domain.CompletionError and never retry.
type CompletionClient interface {
	// Chat returns the full text of the first text block of the reply.
	Chat(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error)

	// StreamChat opens a streaming completion. Failures to open the stream are
	// returned directly, before any chunk is produced. The channel closes when
	// the provider finishes, fails, or ctx is cancelled.
	StreamChat(ctx context.Context, systemPrompt string, messages []ChatMessage) (<-chan StreamChunk, error)

	// EstimateTokens approximates the token count of text.
	EstimateTokens(text string) int

	// Name returns the provider name (e.g., "anthropic", "lorem")
	Name() string
}
