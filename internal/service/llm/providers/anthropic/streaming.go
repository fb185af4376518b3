package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"

	domainllm "prdtool/internal/domain/services/llm"
)

// StreamChat opens a streaming completion and returns a channel of text
// fragments. The request is issued and its first event read before
// returning, so connection and status failures are reported directly
// instead of through the channel.
func (p *Provider) StreamChat(ctx context.Context, systemPrompt string, messages []domainllm.ChatMessage) (<-chan domainllm.StreamChunk, error) {
	if p.client == nil {
		return nil, errMissingAPIKey
	}

	stream := p.client.Messages.NewStreaming(ctx, p.buildParams(systemPrompt, messages))
	if !stream.Next() {
		err := stream.Err()
		_ = stream.Close()
		if err != nil {
			return nil, wrapError("anthropic stream failed to open", err)
		}
		// Empty stream: nothing to yield
		empty := make(chan domainllm.StreamChunk)
		close(empty)
		return empty, nil
	}
	first := stream.Current()

	chunkChan := make(chan domainllm.StreamChunk, 16) // Buffered to prevent blocking

	go func() {
		defer close(chunkChan)
		defer stream.Close()

		event := first
		for {
			if text, ok := textDelta(event); ok {
				select {
				case <-ctx.Done():
					// Consumer cancelled
					return
				case chunkChan <- domainllm.StreamChunk{Text: text}:
				}
			}
			if !stream.Next() {
				break
			}
			event = stream.Current()
		}

		if err := stream.Err(); err != nil {
			select {
			case chunkChan <- domainllm.StreamChunk{Err: wrapError("anthropic streaming error", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return chunkChan, nil
}

// textDelta extracts the text of a content_block_delta/text_delta event.
// Every other event type (message_start, content_block_start, ping, ...)
// carries no text and is skipped.
func textDelta(event anthropic.MessageStreamEventUnion) (string, bool) {
	switch e := event.AsAny().(type) {
	case anthropic.ContentBlockDeltaEvent:
		if e.Delta.Type == "text_delta" && e.Delta.Text != "" {
			return e.Delta.Text, true
		}
	}
	return "", false
}
