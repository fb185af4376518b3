package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"prdtool/internal/config"
	"prdtool/internal/domain"
	llmModels "prdtool/internal/domain/models/llm"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
	llmRepo "prdtool/internal/domain/repositories/llm"
	"prdtool/internal/domain/services"
	docsysSvc "prdtool/internal/domain/services/docsystem"
	llmSvc "prdtool/internal/domain/services/llm"
	"prdtool/internal/metrics"
	"prdtool/internal/service/llm/directive"
)

// Service implements the ChatService interface
type Service struct {
	turnRepo   llmRepo.TurnRepository
	docRepo    docsysRepo.DocumentRepository
	content    docsysSvc.ContentStore
	authorizer services.ResourceAuthorizer
	client     llmSvc.CompletionClient
	locker     services.DocumentLocker
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewService creates a new chat service
func NewService(
	turnRepo llmRepo.TurnRepository,
	docRepo docsysRepo.DocumentRepository,
	content docsysSvc.ContentStore,
	authorizer services.ResourceAuthorizer,
	client llmSvc.CompletionClient,
	locker services.DocumentLocker,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		turnRepo:   turnRepo,
		docRepo:    docRepo,
		content:    content,
		authorizer: authorizer,
		client:     client,
		locker:     locker,
		metrics:    m,
		logger:     logger,
	}
}

var _ llmSvc.ChatService = (*Service)(nil)

// SubmitTurn runs one exchange: persist the user turn, build context, generate,
// parse the directive, persist the assistant turn.
func (s *Service) SubmitTurn(ctx context.Context, req *llmSvc.SubmitTurnRequest, sink llmSvc.StreamSink) (*llmSvc.SubmitTurnResult, error) {
	if err := s.validateSubmitTurnRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.authorizer.AuthorizeDocument(ctx, req.UserID, req.DocumentID)
	if err != nil {
		return nil, err
	}

	// The user turn is stored before anything that talks to the outside world,
	// so it survives provider failures.
	userTurn := &llmModels.Turn{
		DocumentID: doc.ID,
		Role:       llmModels.RoleUser,
		Content:    req.Content,
		TokenCount: s.client.EstimateTokens(req.Content),
		CreatedAt:  time.Now(),
	}
	if err := s.turnRepo.CreateTurn(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("create user turn: %w", err)
	}

	documentContent, err := s.content.Read(ctx, doc.UserID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("read document content: %w", err)
	}

	history, err := s.turnRepo.ListRecentTurns(ctx, doc.ID, config.ChatHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	systemPrompt := BuildSystemPrompt(documentContent)
	messages := toChatMessages(history)

	mode := metrics.ModeNonStreaming
	if sink != nil {
		mode = metrics.ModeStreaming
	}

	start := time.Now()
	var reply string
	if sink != nil {
		reply, err = s.stream(ctx, systemPrompt, messages, sink)
	} else {
		reply, err = s.client.Chat(ctx, systemPrompt, messages)
	}
	s.metrics.ObserveCompletion(mode, time.Since(start))

	if err != nil {
		outcome := metrics.OutcomeError
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			outcome = metrics.OutcomeCancelled
		}
		s.metrics.ObserveChatTurn(mode, outcome)
		s.logger.Error("chat completion failed",
			"prd_id", doc.ID,
			"user_turn_id", userTurn.ID,
			"mode", mode,
			"outcome", outcome,
			"error", err,
		)
		return nil, err
	}

	suggestion := directive.Extract(reply)
	assistantTurn := &llmModels.Turn{
		DocumentID:          doc.ID,
		Role:                llmModels.RoleAssistant,
		Content:             reply,
		PrdUpdateSuggestion: suggestion,
		TokenCount:          s.client.EstimateTokens(reply),
		CreatedAt:           time.Now(),
	}
	if err := s.turnRepo.CreateTurn(ctx, assistantTurn); err != nil {
		s.metrics.ObserveChatTurn(mode, metrics.OutcomeError)
		return nil, fmt.Errorf("create assistant turn: %w", err)
	}

	s.metrics.ObserveChatTurn(mode, metrics.OutcomeComplete)
	s.logger.Info("chat turn complete",
		"prd_id", doc.ID,
		"turn_id", assistantTurn.ID,
		"mode", mode,
		"history_turns", len(history),
		"has_update", suggestion != nil,
		"token_count", assistantTurn.TokenCount,
	)

	return &llmSvc.SubmitTurnResult{
		Message:   assistantTurn,
		HasUpdate: suggestion != nil,
	}, nil
}

// stream forwards each fragment to the sink as it arrives and returns the
// concatenated reply. Any failure, including a sink write error or
// cancellation, abandons the whole reply.
func (s *Service) stream(ctx context.Context, systemPrompt string, messages []llmSvc.ChatMessage, sink llmSvc.StreamSink) (string, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, err := s.client.StreamChat(streamCtx, systemPrompt, messages)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		b.WriteString(chunk.Text)
		if err := sink.Fragment(chunk.Text); err != nil {
			return "", fmt.Errorf("forward fragment: %w", err)
		}
		s.metrics.AddStreamFragment()
	}

	// A closed channel after cancellation is not a complete reply
	if err := streamCtx.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ApplyDirective appends a turn's suggestion to the document content.
// Applying the same turn twice appends twice.
func (s *Service) ApplyDirective(ctx context.Context, documentID, userID, turnID string) (*llmSvc.ApplyResult, error) {
	doc, err := s.authorizer.AuthorizeDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("lock document: %w", err)
	}
	defer unlock()

	turn, err := s.turnRepo.GetTurn(ctx, doc.ID, turnID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "Message not found"}
		}
		return nil, fmt.Errorf("get turn: %w", err)
	}
	if !turn.HasSuggestion() {
		return nil, domain.ErrNoDirective
	}

	current, err := s.content.Read(ctx, doc.UserID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("read document content: %w", err)
	}

	updated := current + "\n\n" + *turn.PrdUpdateSuggestion
	if err := s.content.Write(ctx, doc.UserID, doc.ID, updated); err != nil {
		return nil, fmt.Errorf("write document content: %w", err)
	}

	if err := s.turnRepo.MarkApplied(ctx, turn.ID); err != nil {
		return nil, fmt.Errorf("mark turn applied: %w", err)
	}

	doc.EstimatedTokens = s.client.EstimateTokens(updated)
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document metadata: %w", err)
	}

	s.metrics.ObserveDirectiveApplied()
	s.logger.Info("update directive applied",
		"prd_id", doc.ID,
		"turn_id", turn.ID,
		"estimated_tokens", doc.EstimatedTokens,
	)

	return &llmSvc.ApplyResult{
		Message:         "Update applied successfully",
		EstimatedTokens: doc.EstimatedTokens,
	}, nil
}

// ListMessages returns the document's conversation, oldest first
func (s *Service) ListMessages(ctx context.Context, documentID, userID string) ([]llmModels.Turn, error) {
	doc, err := s.authorizer.AuthorizeDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	turns, err := s.turnRepo.ListTurns(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}

func (s *Service) validateSubmitTurnRequest(req *llmSvc.SubmitTurnRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.Content,
			validation.Required,
			validation.RuneLength(1, config.MaxMessageLength),
		),
	)
}

func toChatMessages(turns []llmModels.Turn) []llmSvc.ChatMessage {
	messages := make([]llmSvc.ChatMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, llmSvc.ChatMessage{Role: t.Role, Content: t.Content})
	}
	return messages
}
