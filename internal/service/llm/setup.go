package llm

import (
	"fmt"
	"log/slog"
	"time"

	"prdtool/internal/config"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
	llmRepo "prdtool/internal/domain/repositories/llm"
	"prdtool/internal/domain/services"
	docsysSvc "prdtool/internal/domain/services/docsystem"
	llmSvc "prdtool/internal/domain/services/llm"
	"prdtool/internal/metrics"
	"prdtool/internal/service/llm/chat"
	"prdtool/internal/service/llm/providers/anthropic"
	"prdtool/internal/service/llm/providers/lorem"
)

// loremWordDelay paces the lorem provider so streaming looks realistic in dev
const loremWordDelay = 30 * time.Millisecond

// SetupProvider builds the completion client selected by COMPLETION_PROVIDER.
func SetupProvider(cfg *config.Config, logger *slog.Logger) (llmSvc.CompletionClient, error) {
	switch cfg.CompletionProvider {
	case "", "anthropic":
		if cfg.AnthropicAPIKey == "" {
			logger.Warn("ANTHROPIC_API_KEY not set - chat requests will fail")
		} else {
			logger.Info("provider available", "name", "anthropic", "model", cfg.ChatModel)
		}
		return anthropic.NewProvider(anthropic.Config{
			APIKey:    cfg.AnthropicAPIKey,
			BaseURL:   cfg.AnthropicBaseURL,
			Model:     cfg.ChatModel,
			MaxTokens: cfg.MaxOutputTokens,
			Timeout:   config.CompletionTimeout,
		}), nil
	case "lorem":
		logger.Warn("using lorem completion provider - replies are placeholder text")
		return lorem.NewProvider(loremWordDelay), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}

// Services holds all LLM-related services
type Services struct {
	Chat   llmSvc.ChatService
	Client llmSvc.CompletionClient
}

// SetupServices initializes the chat service with its provider
func SetupServices(
	cfg *config.Config,
	turnRepo llmRepo.TurnRepository,
	documentRepo docsysRepo.DocumentRepository,
	contentStore docsysSvc.ContentStore,
	authorizer services.ResourceAuthorizer,
	locker services.DocumentLocker,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Services, error) {
	client, err := SetupProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	chatService := chat.NewService(
		turnRepo,
		documentRepo,
		contentStore,
		authorizer,
		client,
		locker,
		m,
		logger,
	)

	return &Services{
		Chat:   chatService,
		Client: client,
	}, nil
}
