package lorem

import (
	"context"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"

	domainllm "prdtool/internal/domain/services/llm"
	"prdtool/internal/utils"
)

// Provider is a mock completion provider that generates lorem ipsum text.
// Used for development without requiring real API keys. When the last user
// message mentions "update", the reply carries an update directive so the
// apply flow can be exercised end to end.
type Provider struct {
	mu        sync.Mutex // guards generator, which is not safe for concurrent use
	generator *loremgen.Lorem
	delay     time.Duration
}

var _ domainllm.CompletionClient = (*Provider)(nil)

// NewProvider creates a new lorem ipsum provider that streams one word per delay.
func NewProvider(delay time.Duration) *Provider {
	return &Provider{
		generator: loremgen.New(),
		delay:     delay,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// EstimateTokens approximates the token count of text.
func (p *Provider) EstimateTokens(text string) int {
	return utils.EstimateTokens(text)
}

// Chat returns a complete lorem ipsum reply.
func (p *Provider) Chat(ctx context.Context, systemPrompt string, messages []domainllm.ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.reply(messages), nil
}

// StreamChat streams a lorem ipsum reply word by word.
func (p *Provider) StreamChat(ctx context.Context, systemPrompt string, messages []domainllm.ChatMessage) (<-chan domainllm.StreamChunk, error) {
	text := p.reply(messages)
	chunkChan := make(chan domainllm.StreamChunk, 10)

	go func() {
		defer close(chunkChan)

		words := strings.SplitAfter(text, " ")
		for _, word := range words {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.delay):
			}

			select {
			case <-ctx.Done():
				return
			case chunkChan <- domainllm.StreamChunk{Text: word}:
			}
		}
	}()

	return chunkChan, nil
}

func (p *Provider) reply(messages []domainllm.ChatMessage) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	b.WriteString(p.generator.Sentence(8, 16))
	b.WriteString(" ")
	b.WriteString(p.generator.Sentence(8, 16))

	if wantsUpdate(messages) {
		b.WriteString("\n\n<prd_update>\n## ")
		b.WriteString(p.generator.Word(4, 10))
		b.WriteString("\n- ")
		b.WriteString(p.generator.Sentence(4, 8))
		b.WriteString("\n</prd_update>")
	}
	return b.String()
}

func wantsUpdate(messages []domainllm.ChatMessage) bool {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.Contains(strings.ToLower(messages[i].Content), "update")
		}
	}
	return false
}
