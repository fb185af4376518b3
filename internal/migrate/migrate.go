// Package migrate applies the embedded SQL migrations with goose.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"prdtool/migrations"
)

// Migrator runs goose against one database and table prefix.
type Migrator struct {
	db     *sql.DB
	prefix string
}

// Open connects to dsn. Migrations substitute ${TABLE_PREFIX} from the
// environment, so the prefix is exported before goose reads any file.
func Open(dsn, tablePrefix string) (*Migrator, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := os.Setenv("TABLE_PREFIX", tablePrefix); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("export table prefix: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(tablePrefix + "goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Migrator{db: db, prefix: tablePrefix}, nil
}

// Close closes the underlying connection.
func (m *Migrator) Close() error { return m.db.Close() }

// Up runs all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	return goose.UpContext(ctx, m.db, ".")
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return goose.DownContext(ctx, m.db, ".")
}

// Reset rolls back every migration, dropping all prefixed tables.
func (m *Migrator) Reset(ctx context.Context) error {
	return goose.ResetContext(ctx, m.db, ".")
}

// Status writes the applied state of every migration to w.
func (m *Migrator) Status(ctx context.Context, w io.Writer) error {
	goose.SetLogger(log.New(w, "", 0))
	defer goose.SetLogger(log.New(os.Stderr, "", log.LstdFlags))
	return goose.StatusContext(ctx, m.db, ".")
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return goose.GetDBVersionContext(ctx, m.db)
}

// Up is a convenience wrapper used by the server on startup.
func Up(ctx context.Context, dsn, tablePrefix string) error {
	m, err := Open(dsn, tablePrefix)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up(ctx)
}
