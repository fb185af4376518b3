package docsystem

import "context"

// ContentStore persists document bodies addressed by (ownerID, documentID).
// Both identifiers must be canonical UUIDs; anything else is rejected with a
// *domain.StorageError before any I/O happens. Writes are atomic: readers see
// either the old or the new content, never a partial one.
type ContentStore interface {
	// Read returns the content, or "" when nothing is stored yet
	Read(ctx context.Context, ownerID, documentID string) (string, error)

	// Write replaces the content atomically
	Write(ctx context.Context, ownerID, documentID, content string) error

	// Create stores the initial content and returns its location
	Create(ctx context.Context, ownerID, documentID, initial string) (string, error)

	// Delete removes the content; deleting missing content is not an error
	Delete(ctx context.Context, ownerID, documentID string) error

	// Exists reports whether content is stored
	Exists(ctx context.Context, ownerID, documentID string) (bool, error)

	// Size returns the stored content size in bytes, 0 when missing
	Size(ctx context.Context, ownerID, documentID string) (int64, error)
}
