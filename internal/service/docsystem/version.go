package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"prdtool/internal/config"
	"prdtool/internal/domain"
	models "prdtool/internal/domain/models/docsystem"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
	"prdtool/internal/domain/services"
	docsysSvc "prdtool/internal/domain/services/docsystem"
	"prdtool/internal/metrics"
	"prdtool/internal/utils"
)

// versionService implements the VersionService interface
type versionService struct {
	versionRepo docsysRepo.VersionRepository
	docRepo     docsysRepo.DocumentRepository
	content     docsysSvc.ContentStore
	authorizer  services.ResourceAuthorizer
	locker      services.DocumentLocker
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewVersionService creates a new version service
func NewVersionService(
	versionRepo docsysRepo.VersionRepository,
	docRepo docsysRepo.DocumentRepository,
	content docsysSvc.ContentStore,
	authorizer services.ResourceAuthorizer,
	locker services.DocumentLocker,
	m *metrics.Metrics,
	logger *slog.Logger,
) docsysSvc.VersionService {
	return &versionService{
		versionRepo: versionRepo,
		docRepo:     docRepo,
		content:     content,
		authorizer:  authorizer,
		locker:      locker,
		metrics:     m,
		logger:      logger,
	}
}

// snapshotSummary is validated on its own; the service takes it as a bare pointer.
type snapshotSummary struct {
	Summary *string
}

// Snapshot records the live content unless it matches the latest version
func (s *versionService) Snapshot(ctx context.Context, documentID, userID string, summary *string) (*models.Version, error) {
	req := &snapshotSummary{Summary: summary}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Summary, validation.RuneLength(0, config.MaxChangeSummaryLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
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

	current, err := s.content.Read(ctx, doc.UserID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	latest, err := s.versionRepo.GetLatest(ctx, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get latest version: %w", err)
	}
	if latest != nil && latest.ContentHash == models.HashContent(current) {
		return nil, domain.ErrNoChanges
	}

	version, err := s.record(ctx, doc, userID, doc.Title, current, summary)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveVersionCreated(metrics.VersionSnapshot)

	s.logger.Info("version created",
		"prd_id", doc.ID,
		"version_number", version.VersionNumber,
		"content_size", version.ContentSize,
	)
	return version, nil
}

// Restore saves the live state, writes the target content back and records
// the restored state as a new version.
func (s *versionService) Restore(ctx context.Context, documentID, userID, versionID string) (*models.Version, error) {
	doc, err := s.authorizer.AuthorizeDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("lock document: %w", err)
	}
	defer unlock()

	target, err := s.versionRepo.GetByID(ctx, doc.ID, versionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "Version not found"}
		}
		return nil, fmt.Errorf("get version: %w", err)
	}

	current, err := s.content.Read(ctx, doc.UserID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	backupSummary := fmt.Sprintf("Auto-saved before restore to v%d", target.VersionNumber)
	if _, err := s.record(ctx, doc, userID, doc.Title, current, &backupSummary); err != nil {
		return nil, fmt.Errorf("save pre-restore version: %w", err)
	}
	s.metrics.ObserveVersionCreated(metrics.VersionRestoreBackup)

	if err := s.content.Write(ctx, doc.UserID, doc.ID, target.Content); err != nil {
		return nil, fmt.Errorf("write restored content: %w", err)
	}

	doc.Title = target.Title
	doc.EstimatedTokens = utils.EstimateTokens(target.Content)
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update prd: %w", err)
	}

	restoredSummary := fmt.Sprintf("Restored from v%d", target.VersionNumber)
	restored, err := s.record(ctx, doc, userID, target.Title, target.Content, &restoredSummary)
	if err != nil {
		return nil, fmt.Errorf("save restored version: %w", err)
	}
	s.metrics.ObserveVersionCreated(metrics.VersionRestore)

	s.logger.Info("version restored",
		"prd_id", doc.ID,
		"restored_from", target.VersionNumber,
		"new_version", restored.VersionNumber,
	)
	return restored, nil
}

// Compare returns two versions of the same document
func (s *versionService) Compare(ctx context.Context, documentID, userID, fromID, toID string) (*models.VersionComparison, error) {
	doc, err := s.authorizer.AuthorizeDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	from, err := s.versionRepo.GetByID(ctx, doc.ID, fromID)
	if err != nil {
		return nil, s.compareLookupError(err)
	}
	to, err := s.versionRepo.GetByID(ctx, doc.ID, toID)
	if err != nil {
		return nil, s.compareLookupError(err)
	}

	return &models.VersionComparison{
		From: from.Side(),
		To:   to.Side(),
	}, nil
}

func (s *versionService) compareLookupError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.NotFoundError{Message: "One or both versions not found"}
	}
	return fmt.Errorf("get version: %w", err)
}

// ListVersions returns versions newest first, without content
func (s *versionService) ListVersions(ctx context.Context, documentID, userID string) ([]models.Version, error) {
	doc, err := s.authorizer.AuthorizeDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	versions, err := s.versionRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// GetVersion returns one version with its content
func (s *versionService) GetVersion(ctx context.Context, documentID, userID, versionID string) (*models.Version, error) {
	doc, err := s.authorizer.AuthorizeDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	version, err := s.versionRepo.GetByID(ctx, doc.ID, versionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "Version not found"}
		}
		return nil, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// record builds and stores a manual version of the given title and content
func (s *versionService) record(ctx context.Context, doc *models.Document, actorID, title, content string, summary *string) (*models.Version, error) {
	createdBy := actorID
	version := &models.Version{
		DocumentID:    doc.ID,
		CreatedBy:     &createdBy,
		Title:         title,
		Content:       content,
		ContentHash:   models.HashContent(content),
		ContentSize:   len(content),
		ChangeSummary: summary,
		ChangeSource:  models.ChangeSourceManual,
	}
	if err := s.versionRepo.Create(ctx, version); err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}
	return version, nil
}
