package docsystem

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prdtool/internal/domain"
	models "prdtool/internal/domain/models/docsystem"
	"prdtool/internal/repository/postgres"
)

const (
	docID  = "7b1e4a52-3f0c-4c59-9d1e-2f1c0d4b8a11"
	userID = "0c6f2d1a-8e44-4b3f-a2c5-9b7d6e5f4a30"
)

func newConfig(t *testing.T) (*postgres.RepositoryConfig, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &postgres.RepositoryConfig{
		Pool:   mock,
		Tables: postgres.NewTableNames("test_"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, mock
}

func TestDocumentRepository_Create(t *testing.T) {
	cfg, mock := newConfig(t)
	defer mock.Close()
	repo := NewDocumentRepository(cfg)
	ctx := context.Background()

	now := time.Now()
	doc := &models.Document{
		ID:        docID,
		UserID:    userID,
		Title:     "Checkout",
		FilePath:  "/data/" + userID + "/" + docID + ".md",
		Status:    models.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectQuery(`INSERT INTO test_prds \(id, user_id, title, file_path, status, estimated_tokens, created_at, updated_at\)`).
		WithArgs(doc.ID, doc.UserID, doc.Title, doc.FilePath, doc.Status, 0, now, now).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	require.NoError(t, repo.Create(ctx, doc))

	mock.ExpectQuery(`INSERT INTO test_prds`).
		WithArgs(doc.ID, doc.UserID, doc.Title, doc.FilePath, doc.Status, 0, now, now).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := repo.Create(ctx, doc)
	require.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_GetByID(t *testing.T) {
	cfg, mock := newConfig(t)
	defer mock.Close()
	repo := NewDocumentRepository(cfg)
	ctx := context.Background()
	now := time.Now()

	columns := []string{"id", "user_id", "title", "file_path", "status", "estimated_tokens", "created_at", "updated_at"}
	mock.ExpectQuery(`SELECT id, user_id, title, file_path, status, estimated_tokens, created_at, updated_at\s+FROM test_prds\s+WHERE id = \$1 AND user_id = \$2 AND deleted_at IS NULL`).
		WithArgs(docID, userID).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(docID, userID, "Checkout", "path", models.StatusActive, 12, now, now))
	doc, err := repo.GetByID(ctx, docID, userID)
	require.NoError(t, err)
	assert.Equal(t, "Checkout", doc.Title)
	assert.Equal(t, models.StatusActive, doc.Status)
	assert.Equal(t, 12, doc.EstimatedTokens)

	mock.ExpectQuery(`FROM test_prds`).
		WithArgs(docID, userID).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByID(ctx, docID, userID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_Update(t *testing.T) {
	cfg, mock := newConfig(t)
	defer mock.Close()
	repo := NewDocumentRepository(cfg)
	ctx := context.Background()
	later := time.Now().Add(time.Minute)

	doc := &models.Document{ID: docID, Title: "Renamed", Status: models.StatusDraft, EstimatedTokens: 40}
	mock.ExpectQuery(`UPDATE test_prds\s+SET title = \$1, status = \$2, estimated_tokens = \$3, updated_at = now\(\)`).
		WithArgs("Renamed", models.StatusDraft, 40, docID).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(later))
	require.NoError(t, repo.Update(ctx, doc))
	assert.Equal(t, later, doc.UpdatedAt)

	mock.ExpectQuery(`UPDATE test_prds`).
		WithArgs("Renamed", models.StatusDraft, 40, docID).
		WillReturnError(pgx.ErrNoRows)
	require.ErrorIs(t, repo.Update(ctx, doc), domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepository_Create(t *testing.T) {
	cfg, mock := newConfig(t)
	defer mock.Close()
	repo := NewVersionRepository(cfg)
	ctx := context.Background()
	now := time.Now()

	actor := userID
	summary := "first cut"
	version := &models.Version{
		DocumentID:    docID,
		CreatedBy:     &actor,
		Title:         "Checkout",
		Content:       "A",
		ContentHash:   models.HashContent("A"),
		ContentSize:   1,
		ChangeSummary: &summary,
		ChangeSource:  models.ChangeSourceManual,
	}

	mock.ExpectQuery(`(?s)INSERT INTO test_prd_versions .*COALESCE\(MAX\(version_number\), 0\) \+ 1.*FROM test_prd_versions\s+WHERE prd_id = \$1::uuid`).
		WithArgs(docID, &actor, "Checkout", "A", version.ContentHash, 1, &summary, models.ChangeSourceManual).
		WillReturnRows(pgxmock.NewRows([]string{"id", "version_number", "created_at"}).AddRow("v-1", 3, now))
	require.NoError(t, repo.Create(ctx, version))
	assert.Equal(t, "v-1", version.ID)
	assert.Equal(t, 3, version.VersionNumber)

	mock.ExpectQuery(`INSERT INTO test_prd_versions`).
		WithArgs(docID, &actor, "Checkout", "A", version.ContentHash, 1, &summary, models.ChangeSourceManual).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, repo.Create(ctx, version), &conflict)
	assert.Equal(t, "version", conflict.ResourceType)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepository_GetLatest(t *testing.T) {
	cfg, mock := newConfig(t)
	defer mock.Close()
	repo := NewVersionRepository(cfg)
	ctx := context.Background()
	now := time.Now()

	columns := []string{"id", "prd_id", "created_by", "version_number", "title", "content",
		"content_hash", "content_size", "change_summary", "change_source", "created_at"}
	actor := userID
	mock.ExpectQuery(`FROM test_prd_versions\s+WHERE prd_id = \$1\s+ORDER BY version_number DESC\s+LIMIT 1`).
		WithArgs(docID).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("v-2", docID, &actor, 2, "Checkout", "B", models.HashContent("B"), 1, (*string)(nil), models.ChangeSourceManual, now))
	latest, err := repo.GetLatest(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.VersionNumber)
	assert.Equal(t, "B", latest.Content)
	assert.Nil(t, latest.ChangeSummary)

	mock.ExpectQuery(`FROM test_prd_versions`).
		WithArgs(docID).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetLatest(ctx, docID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepository_ListByDocument(t *testing.T) {
	cfg, mock := newConfig(t)
	defer mock.Close()
	repo := NewVersionRepository(cfg)
	ctx := context.Background()
	now := time.Now()

	columns := []string{"id", "prd_id", "created_by", "version_number", "title",
		"content_hash", "content_size", "change_summary", "change_source", "created_at"}
	mock.ExpectQuery(`SELECT id, prd_id, created_by, version_number, title,\s+content_hash`).
		WithArgs(docID).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("v-2", docID, (*string)(nil), 2, "T", "h2", 10, (*string)(nil), models.ChangeSourceManual, now).
			AddRow("v-1", docID, (*string)(nil), 1, "T", "h1", 5, (*string)(nil), models.ChangeSourceManual, now))
	versions, err := repo.ListByDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].VersionNumber)
	assert.Empty(t, versions[0].Content)

	require.NoError(t, mock.ExpectationsWereMet())
}
