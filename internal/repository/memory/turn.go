package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"prdtool/internal/domain"
	llmModels "prdtool/internal/domain/models/llm"
	llmRepo "prdtool/internal/domain/repositories/llm"
)

// turnRecord is the stored form of a turn; Seq orders turns created in the
// same instant.
type turnRecord struct {
	ID         string
	DocumentID string
	Seq        int64
	Turn       llmModels.Turn
}

// TurnRepository stores conversation turns in memory
type TurnRepository struct {
	db *DB
}

// NewTurnRepository creates a new in-memory turn repository
func NewTurnRepository(db *DB) llmRepo.TurnRepository {
	return &TurnRepository{db: db}
}

// CreateTurn inserts a turn
func (r *TurnRepository) CreateTurn(_ context.Context, turn *llmModels.Turn) error {
	// Mirrors the messages table CHECK constraint
	if turn.Role != llmModels.RoleAssistant && turn.PrdUpdateSuggestion != nil {
		return &domain.ValidationError{Message: "only assistant messages may carry an update suggestion"}
	}
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	txn := r.db.db.Txn(true)
	defer txn.Abort()

	doc, err := txn.First(tblDocuments, "id", turn.DocumentID)
	if err != nil {
		return fmt.Errorf("find prd: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("prd %s: %w", turn.DocumentID, domain.ErrNotFound)
	}

	rec := &turnRecord{
		ID:         turn.ID,
		DocumentID: turn.DocumentID,
		Seq:        r.db.nextSeq(),
		Turn:       *turn,
	}
	if err := txn.Insert(tblTurns, rec); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	txn.Commit()
	return nil
}

// GetTurn retrieves a turn of the given document
func (r *TurnRepository) GetTurn(_ context.Context, documentID, turnID string) (*llmModels.Turn, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblTurns, "id", turnID)
	if err != nil {
		return nil, fmt.Errorf("find turn: %w", err)
	}
	if raw == nil || raw.(*turnRecord).DocumentID != documentID {
		return nil, fmt.Errorf("turn %s: %w", turnID, domain.ErrNotFound)
	}
	turn := raw.(*turnRecord).Turn
	return &turn, nil
}

// ListTurns returns all turns of a document, oldest first
func (r *TurnRepository) ListTurns(_ context.Context, documentID string) ([]llmModels.Turn, error) {
	records, err := r.records(documentID)
	if err != nil {
		return nil, err
	}
	return toTurns(records), nil
}

// ListRecentTurns returns the most recent limit turns, oldest first
func (r *TurnRepository) ListRecentTurns(_ context.Context, documentID string, limit int) ([]llmModels.Turn, error) {
	records, err := r.records(documentID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return toTurns(records), nil
}

// MarkApplied sets update_applied on a turn that carries a suggestion
func (r *TurnRepository) MarkApplied(_ context.Context, turnID string) error {
	txn := r.db.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblTurns, "id", turnID)
	if err != nil {
		return fmt.Errorf("find turn: %w", err)
	}
	if raw == nil || raw.(*turnRecord).Turn.PrdUpdateSuggestion == nil {
		return fmt.Errorf("turn %s with suggestion: %w", turnID, domain.ErrNotFound)
	}

	rec := *raw.(*turnRecord)
	rec.Turn.UpdateApplied = true
	if err := txn.Insert(tblTurns, &rec); err != nil {
		return fmt.Errorf("update turn: %w", err)
	}
	txn.Commit()
	return nil
}

// records returns a document's turns ordered by creation time, then insertion order
func (r *TurnRepository) records(documentID string) ([]*turnRecord, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblTurns, "prd_id", documentID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	var records []*turnRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		records = append(records, raw.(*turnRecord))
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Turn.CreatedAt.Equal(b.Turn.CreatedAt) {
			return a.Turn.CreatedAt.Before(b.Turn.CreatedAt)
		}
		return a.Seq < b.Seq
	})
	return records, nil
}

func toTurns(records []*turnRecord) []llmModels.Turn {
	turns := make([]llmModels.Turn, 0, len(records))
	for _, rec := range records {
		turns = append(turns, rec.Turn)
	}
	return turns
}
