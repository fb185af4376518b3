package docsystem

import (
	"context"

	"prdtool/internal/domain/models/docsystem"
)

// DocumentRepository defines data access operations for document metadata
type DocumentRepository interface {
	// Create inserts a document; ID, CreatedAt and UpdatedAt are filled in
	Create(ctx context.Context, doc *docsystem.Document) error

	// GetByID retrieves a document owned by userID
	// Returns domain.ErrNotFound when missing or owned by someone else
	GetByID(ctx context.Context, id, userID string) (*docsystem.Document, error)

	// Update writes title, status and estimated_tokens and bumps UpdatedAt
	Update(ctx context.Context, doc *docsystem.Document) error
}
