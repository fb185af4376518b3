package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"prdtool/internal/domain/repositories"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Close()
}

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   PgxPool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Documents string
	Messages  string
	Versions  string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents: fmt.Sprintf("%sprds", prefix),
		Messages:  fmt.Sprintf("%smessages", prefix),
		Versions:  fmt.Sprintf("%sprd_versions", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool.
//
// Port 6543 is Supabase's transaction pooler (PgBouncer), which does not
// support prepared statements. Unless the connection string sets
// default_query_exec_mode explicitly, that port is switched to
// QueryExecModeCacheDescribe, which caches statement descriptions only.
//
// Table names are interpolated with fmt.Sprintf before the SQL reaches the
// server, so every prefix gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none.
// Repositories call it so they join a surrounding ExecTx automatically.
func GetExecutor(ctx context.Context, pool PgxPool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
