package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prdtool/internal/domain"
	"prdtool/internal/domain/models/docsystem"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
)

// DocumentRepository stores document metadata in memory
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new in-memory document repository
func NewDocumentRepository(db *DB) docsysRepo.DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document
func (r *DocumentRepository) Create(_ context.Context, doc *docsystem.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt

	txn := r.db.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblDocuments, "id", doc.ID)
	if err != nil {
		return fmt.Errorf("find prd: %w", err)
	}
	if existing != nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("prd %s already exists", doc.ID),
			ResourceType: "prd",
			ResourceID:   doc.ID,
		}
	}

	stored := *doc
	if err := txn.Insert(tblDocuments, &stored); err != nil {
		return fmt.Errorf("insert prd: %w", err)
	}
	txn.Commit()
	return nil
}

// GetByID retrieves a document owned by userID
func (r *DocumentRepository) GetByID(_ context.Context, id, userID string) (*docsystem.Document, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", id)
	if err != nil {
		return nil, fmt.Errorf("find prd: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("prd %s: %w", id, domain.ErrNotFound)
	}
	doc := *raw.(*docsystem.Document)
	if doc.UserID != userID {
		return nil, fmt.Errorf("prd %s: %w", id, domain.ErrNotFound)
	}
	return &doc, nil
}

// Update writes title, status and estimated tokens
func (r *DocumentRepository) Update(_ context.Context, doc *docsystem.Document) error {
	txn := r.db.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", doc.ID)
	if err != nil {
		return fmt.Errorf("find prd: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("prd %s: %w", doc.ID, domain.ErrNotFound)
	}

	stored := *raw.(*docsystem.Document)
	stored.Title = doc.Title
	stored.Status = doc.Status
	stored.EstimatedTokens = doc.EstimatedTokens
	stored.UpdatedAt = time.Now()
	if err := txn.Insert(tblDocuments, &stored); err != nil {
		return fmt.Errorf("update prd: %w", err)
	}
	txn.Commit()

	doc.UpdatedAt = stored.UpdatedAt
	return nil
}
