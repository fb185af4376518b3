package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"prdtool/internal/domain"
	llmModels "prdtool/internal/domain/models/llm"
	llmRepo "prdtool/internal/domain/repositories/llm"
	"prdtool/internal/repository/postgres"
)

// PostgresTurnRepository implements the TurnRepository interface using PostgreSQL
type PostgresTurnRepository struct {
	pool   postgres.PgxPool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewTurnRepository creates a new PostgresTurnRepository
func NewTurnRepository(config *postgres.RepositoryConfig) llmRepo.TurnRepository {
	return &PostgresTurnRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const turnColumns = `id, prd_id, role, content, prd_update_suggestion, update_applied, token_count, created_at`

// CreateTurn appends a turn to a document's conversation
func (r *PostgresTurnRepository) CreateTurn(ctx context.Context, turn *llmModels.Turn) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (prd_id, role, content, prd_update_suggestion, update_applied, token_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		turn.DocumentID,
		turn.Role,
		turn.Content,
		turn.PrdUpdateSuggestion,
		turn.UpdateApplied,
		turn.TokenCount,
	).Scan(&turn.ID, &turn.CreatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("prd %s: %w", turn.DocumentID, domain.ErrNotFound)
		}
		if postgres.IsPgCheckViolation(err) {
			return &domain.ValidationError{Message: "only assistant messages may carry an update suggestion"}
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// GetTurn retrieves a turn that belongs to the given document
func (r *PostgresTurnRepository) GetTurn(ctx context.Context, documentID, turnID string) (*llmModels.Turn, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND prd_id = $2
	`, turnColumns, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	turn, err := scanTurn(executor.QueryRow(ctx, query, turnID, documentID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("message %s: %w", turnID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return turn, nil
}

// ListTurns returns every turn of a document, oldest first
func (r *PostgresTurnRepository) ListTurns(ctx context.Context, documentID string) ([]llmModels.Turn, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE prd_id = $1
		ORDER BY created_at ASC, seq ASC
	`, turnColumns, r.tables.Messages)

	return r.queryTurns(ctx, query, documentID)
}

// ListRecentTurns returns the most recent limit turns, oldest first
func (r *PostgresTurnRepository) ListRecentTurns(ctx context.Context, documentID string, limit int) ([]llmModels.Turn, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s
		FROM (
			SELECT %[1]s, seq
			FROM %[2]s
			WHERE prd_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, seq ASC
	`, turnColumns, r.tables.Messages)

	return r.queryTurns(ctx, query, documentID, limit)
}

// MarkApplied sets update_applied; turns without a suggestion are never touched
func (r *PostgresTurnRepository) MarkApplied(ctx context.Context, turnID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET update_applied = true, updated_at = now()
		WHERE id = $1 AND prd_update_suggestion IS NOT NULL
	`, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, turnID)
	if err != nil {
		return fmt.Errorf("mark message applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %s with suggestion: %w", turnID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresTurnRepository) queryTurns(ctx context.Context, query string, args ...any) ([]llmModels.Turn, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	turns := make([]llmModels.Turn, 0)
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		turns = append(turns, *turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return turns, nil
}

func scanTurn(row pgx.Row) (*llmModels.Turn, error) {
	var turn llmModels.Turn
	err := row.Scan(
		&turn.ID,
		&turn.DocumentID,
		&turn.Role,
		&turn.Content,
		&turn.PrdUpdateSuggestion,
		&turn.UpdateApplied,
		&turn.TokenCount,
		&turn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &turn, nil
}
