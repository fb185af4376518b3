package services

import (
	"context"

	"prdtool/internal/domain/models/docsystem"
)

// ResourceAuthorizer checks if a user can access resources.
// Current implementation: ownership-based (user owns the document).
type ResourceAuthorizer interface {
	// AuthorizeDocument returns the document when userID may access it.
	// Missing documents and documents owned by others both yield domain.ErrNotFound.
	AuthorizeDocument(ctx context.Context, userID, documentID string) (*docsystem.Document, error)
}
