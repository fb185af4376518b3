package llm

import (
	"context"

	"prdtool/internal/domain/models/llm"
)

// TurnRepository defines data access for a document's conversation turns
type TurnRepository interface {
	// CreateTurn persists a new turn and fills in its ID and CreatedAt
	CreateTurn(ctx context.Context, turn *llm.Turn) error

	// GetTurn retrieves a turn that belongs to the given document
	// Returns domain.ErrNotFound if the turn does not exist or belongs elsewhere
	GetTurn(ctx context.Context, documentID, turnID string) (*llm.Turn, error)

	// ListTurns returns every turn of a document, oldest first
	ListTurns(ctx context.Context, documentID string) ([]llm.Turn, error)

	// ListRecentTurns returns the most recent limit turns, ordered oldest first
	ListRecentTurns(ctx context.Context, documentID string, limit int) ([]llm.Turn, error)

	// MarkApplied flips update_applied to true for a turn with a suggestion
	// Returns domain.ErrNotFound if no such turn carries a suggestion
	MarkApplied(ctx context.Context, turnID string) error
}
