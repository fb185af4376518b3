package auth

import (
	"context"
	"errors"
	"fmt"

	"prdtool/internal/domain"
	"prdtool/internal/domain/models/docsystem"
	docsystemRepo "prdtool/internal/domain/repositories/docsystem"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access a document if they own it.
type OwnerBasedAuthorizer struct {
	docRepo docsystemRepo.DocumentRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(docRepo docsystemRepo.DocumentRepository) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{docRepo: docRepo}
}

// AuthorizeDocument checks if user owns the document
func (a *OwnerBasedAuthorizer) AuthorizeDocument(ctx context.Context, userID, documentID string) (*docsystem.Document, error) {
	// DocumentRepository.GetByID already filters by userID (ownership check)
	doc, err := a.docRepo.GetByID(ctx, documentID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "PRD not found"}
		}
		return nil, fmt.Errorf("check document access: %w", err)
	}
	return doc, nil
}
