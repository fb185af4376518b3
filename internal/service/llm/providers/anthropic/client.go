package anthropic

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"prdtool/internal/domain"
	domainllm "prdtool/internal/domain/services/llm"
	"prdtool/internal/utils"
)

const (
	// DefaultModel is used when no chat model is configured.
	DefaultModel = "claude-opus-4-20250514"
	// DefaultMaxTokens caps the length of a reply.
	DefaultMaxTokens = 4096
	// DefaultTimeout bounds a single request, streaming included.
	DefaultTimeout = 2 * time.Minute
)

// Config holds the Anthropic connection settings.
type Config struct {
	APIKey    string
	BaseURL   string // optional, for proxies and tests
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Provider implements CompletionClient for Anthropic (Claude) models.
type Provider struct {
	client    *anthropic.Client // nil when no API key is configured
	model     string
	maxTokens int64
}

var _ domainllm.CompletionClient = (*Provider)(nil)

// NewProvider creates an Anthropic provider. Without an API key the provider
// is still returned, but every call fails with a CompletionError and no
// network I/O is attempted.
func NewProvider(cfg Config) *Provider {
	p := &Provider{
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}
	if p.model == "" {
		p.model = DefaultModel
	}
	if p.maxTokens <= 0 {
		p.maxTokens = DefaultMaxTokens
	}
	if cfg.APIKey == "" {
		return p
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		// Failures surface to the caller as-is
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	p.client = &client
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// EstimateTokens approximates the token count of text.
func (p *Provider) EstimateTokens(text string) int {
	return utils.EstimateTokens(text)
}

// Chat sends the conversation and returns the text of the first text block.
func (p *Provider) Chat(ctx context.Context, systemPrompt string, messages []domainllm.ChatMessage) (string, error) {
	if p.client == nil {
		return "", errMissingAPIKey
	}

	message, err := p.client.Messages.New(ctx, p.buildParams(systemPrompt, messages))
	if err != nil {
		return "", wrapError("anthropic API call failed", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &domain.CompletionError{Message: "response contained no text block"}
}

func (p *Provider) buildParams(systemPrompt string, messages []domainllm.ChatMessage) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  convertMessages(messages),
		MaxTokens: p.maxTokens,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		}
	}
	return params
}

// convertMessages maps the conversation onto Anthropic message params.
// Anything that is not "assistant" is sent as a user message.
func convertMessages(messages []domainllm.ChatMessage) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == "assistant" {
			result = append(result, anthropic.NewAssistantMessage(block))
		} else {
			result = append(result, anthropic.NewUserMessage(block))
		}
	}
	return result
}

var errMissingAPIKey = &domain.CompletionError{Message: "ANTHROPIC_API_KEY is not configured"}

// wrapError converts SDK errors into CompletionError, keeping the HTTP status
// when the provider returned one.
func wrapError(msg string, err error) error {
	compErr := &domain.CompletionError{Message: msg, Err: err}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		compErr.Status = apiErr.StatusCode
	}
	return compErr
}
