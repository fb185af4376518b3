package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"prdtool/internal/domain"
	models "prdtool/internal/domain/models/docsystem"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
	"prdtool/internal/repository/postgres"
)

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   postgres.PgxPool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *postgres.RepositoryConfig) docsysRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a version. The number is computed by the INSERT itself so
// two concurrent creates collide on (prd_id, version_number) rather than
// silently sharing a number.
func (r *PostgresVersionRepository) Create(ctx context.Context, version *models.Version) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (
			prd_id, created_by, version_number, title, content,
			content_hash, content_size, change_summary, change_source
		)
		SELECT $1::uuid, $2::uuid, COALESCE(MAX(version_number), 0) + 1,
		       $3::text, $4::text, $5::text, $6::int, $7::text, $8::text
		FROM %[1]s
		WHERE prd_id = $1::uuid
		RETURNING id, version_number, created_at
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		version.DocumentID,
		version.CreatedBy,
		version.Title,
		version.Content,
		version.ContentHash,
		version.ContentSize,
		version.ChangeSummary,
		version.ChangeSource,
	).Scan(&version.ID, &version.VersionNumber, &version.CreatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "a version with this number was created concurrently",
				ResourceType: "version",
				ResourceID:   version.DocumentID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("prd %s: %w", version.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create version: %w", err)
	}

	return nil
}

const versionColumns = `id, prd_id, created_by, version_number, title, content,
		content_hash, content_size, change_summary, change_source, created_at`

// GetByID retrieves a version of the given document, content included
func (r *PostgresVersionRepository) GetByID(ctx context.Context, documentID, versionID string) (*models.Version, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND prd_id = $2
	`, versionColumns, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	version, err := scanVersion(executor.QueryRow(ctx, query, versionID, documentID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// GetLatest returns the highest-numbered version of a document
func (r *PostgresVersionRepository) GetLatest(ctx context.Context, documentID string) (*models.Version, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE prd_id = $1
		ORDER BY version_number DESC
		LIMIT 1
	`, versionColumns, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	version, err := scanVersion(executor.QueryRow(ctx, query, documentID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("latest version of prd %s: %w", documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get latest version: %w", err)
	}
	return version, nil
}

// ListByDocument returns versions newest first, without content
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, prd_id, created_by, version_number, title,
		       content_hash, content_size, change_summary, change_source, created_at
		FROM %s
		WHERE prd_id = $1
		ORDER BY version_number DESC
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := make([]models.Version, 0)
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.CreatedBy,
			&v.VersionNumber,
			&v.Title,
			&v.ContentHash,
			&v.ContentSize,
			&v.ChangeSummary,
			&v.ChangeSource,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}

func scanVersion(row pgx.Row) (*models.Version, error) {
	var v models.Version
	err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.CreatedBy,
		&v.VersionNumber,
		&v.Title,
		&v.Content,
		&v.ContentHash,
		&v.ContentSize,
		&v.ChangeSummary,
		&v.ChangeSource,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
