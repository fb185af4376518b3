package docsystem

import (
	"context"

	"prdtool/internal/domain/models/docsystem"
)

// VersionRepository defines data access for document versions.
// Versions are append-only.
type VersionRepository interface {
	// Create inserts a version, assigning ID, VersionNumber (max+1) and CreatedAt
	Create(ctx context.Context, version *docsystem.Version) error

	// GetByID retrieves a version of the given document, content included
	GetByID(ctx context.Context, documentID, versionID string) (*docsystem.Version, error)

	// GetLatest returns the highest-numbered version
	// Returns domain.ErrNotFound when the document has no versions yet
	GetLatest(ctx context.Context, documentID string) (*docsystem.Version, error)

	// ListByDocument returns versions newest first, without content
	ListByDocument(ctx context.Context, documentID string) ([]docsystem.Version, error)
}
