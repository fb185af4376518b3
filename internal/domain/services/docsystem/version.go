package docsystem

import (
	"context"

	"prdtool/internal/domain/models/docsystem"
)

// VersionService manages immutable snapshots of a document
type VersionService interface {
	// Snapshot records the live content as a new manual version.
	// Returns domain.ErrNoChanges when it matches the latest version.
	Snapshot(ctx context.Context, documentID, userID string, summary *string) (*docsystem.Version, error)

	// Restore makes a past version's content live again. It always records
	// two new versions: a backup of the live content, then the restored state.
	Restore(ctx context.Context, documentID, userID, versionID string) (*docsystem.Version, error)

	// Compare returns two versions of the same document side by side
	Compare(ctx context.Context, documentID, userID, fromID, toID string) (*docsystem.VersionComparison, error)

	// ListVersions returns versions newest first, without content
	ListVersions(ctx context.Context, documentID, userID string) ([]docsystem.Version, error)

	// GetVersion returns a single version with content
	GetVersion(ctx context.Context, documentID, userID, versionID string) (*docsystem.Version, error)
}
