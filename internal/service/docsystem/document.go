package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"prdtool/internal/config"
	"prdtool/internal/domain"
	models "prdtool/internal/domain/models/docsystem"
	"prdtool/internal/domain/repositories"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
	"prdtool/internal/domain/services"
	docsysSvc "prdtool/internal/domain/services/docsystem"
	"prdtool/internal/utils"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo    docsysRepo.DocumentRepository
	content    docsysSvc.ContentStore
	txManager  repositories.TransactionManager
	authorizer services.ResourceAuthorizer
	locker     services.DocumentLocker
	logger     *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo docsysRepo.DocumentRepository,
	content docsysSvc.ContentStore,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	locker services.DocumentLocker,
	logger *slog.Logger,
) docsysSvc.DocumentService {
	return &documentService{
		docRepo:    docRepo,
		content:    content,
		txManager:  txManager,
		authorizer: authorizer,
		locker:     locker,
		logger:     logger,
	}
}

// CreateDocument stores the initial content first, then the metadata row.
// If the row cannot be written the content is removed again.
func (s *documentService) CreateDocument(ctx context.Context, req *docsysSvc.CreateDocumentRequest) (*models.Document, error) {
	if err := s.validateCreateDocumentRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	title := models.DefaultDocumentTitle
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		title = strings.TrimSpace(*req.Title)
	}
	status := models.StatusDraft
	if req.Status != nil {
		status = *req.Status
	}

	now := time.Now()
	doc := &models.Document{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Title:           title,
		Status:          status,
		EstimatedTokens: utils.EstimateTokens(req.Content),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		location, err := s.content.Create(txCtx, doc.UserID, doc.ID, req.Content)
		if err != nil {
			return fmt.Errorf("create content: %w", err)
		}
		doc.FilePath = location

		if err := s.docRepo.Create(txCtx, doc); err != nil {
			if delErr := s.content.Delete(ctx, doc.UserID, doc.ID); delErr != nil {
				s.logger.Warn("failed to remove orphaned content", "location", location, "error", delErr)
			}
			return fmt.Errorf("create prd: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("prd created",
		"prd_id", doc.ID,
		"user_id", doc.UserID,
		"title", doc.Title,
	)

	return doc, nil
}

// GetDocument retrieves document metadata
func (s *documentService) GetDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	return s.authorizer.AuthorizeDocument(ctx, userID, documentID)
}

// GetContent returns the live content and its token estimate
func (s *documentService) GetContent(ctx context.Context, userID, documentID string) (*models.DocumentContent, error) {
	doc, err := s.authorizer.AuthorizeDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	body, err := s.content.Read(ctx, doc.UserID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	return &models.DocumentContent{
		Content:         body,
		EstimatedTokens: utils.EstimateTokens(body),
	}, nil
}

// UpdateContent replaces the live content
func (s *documentService) UpdateContent(ctx context.Context, userID, documentID string, req *docsysSvc.UpdateContentRequest) (*docsysSvc.UpdateContentResult, error) {
	if len(req.Content) > config.MaxDocumentContentBytes {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("content exceeds %d bytes", config.MaxDocumentContentBytes),
		}
	}

	doc, err := s.authorizer.AuthorizeDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("lock document: %w", err)
	}
	defer unlock()

	if err := s.content.Write(ctx, doc.UserID, doc.ID, req.Content); err != nil {
		return nil, fmt.Errorf("write content: %w", err)
	}

	doc.EstimatedTokens = utils.EstimateTokens(req.Content)
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update prd: %w", err)
	}

	s.logger.Debug("prd content updated",
		"prd_id", doc.ID,
		"bytes", len(req.Content),
		"estimated_tokens", doc.EstimatedTokens,
	)

	return &docsysSvc.UpdateContentResult{
		Message:         "Content updated",
		EstimatedTokens: doc.EstimatedTokens,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}

func (s *documentService) validateCreateDocumentRequest(req *docsysSvc.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxDocumentTitleLength)),
		validation.Field(&req.Status, validation.In(models.StatusDraft, models.StatusActive, models.StatusArchived)),
		validation.Field(&req.Content, validation.Length(0, config.MaxDocumentContentBytes)),
	)
}
