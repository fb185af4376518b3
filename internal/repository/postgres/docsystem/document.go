package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"prdtool/internal/domain"
	models "prdtool/internal/domain/models/docsystem"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
	"prdtool/internal/repository/postgres"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   postgres.PgxPool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, file_path, status, estimated_tokens, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ID,
		doc.UserID,
		doc.Title,
		doc.FilePath,
		doc.Status,
		doc.EstimatedTokens,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("prd %s already exists", doc.ID),
				ResourceType: "prd",
				ResourceID:   doc.ID,
			}
		}
		return fmt.Errorf("create prd: %w", err)
	}

	return nil
}

// GetByID retrieves a live document owned by userID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id, userID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, file_path, status, estimated_tokens, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, r.tables.Documents)

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Title,
		&doc.FilePath,
		&doc.Status,
		&doc.EstimatedTokens,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("prd %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get prd: %w", err)
	}

	return &doc, nil
}

// Update writes title, status and estimated tokens and bumps updated_at
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, status = $2, estimated_tokens = $3, updated_at = now()
		WHERE id = $4 AND deleted_at IS NULL
		RETURNING updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Title,
		doc.Status,
		doc.EstimatedTokens,
		doc.ID,
	).Scan(&doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("prd %s: %w", doc.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update prd: %w", err)
	}

	return nil
}
