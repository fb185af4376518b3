// Package memory implements the repositories on an in-memory go-memdb
// database. It backs DATABASE_BACKEND=memory for local development and the
// service tests.
package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"

	"prdtool/internal/domain/repositories"
)

var (
	tblDocuments = "prds"
	tblTurns     = "messages"
	tblVersions  = "prd_versions"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblDocuments: {
			Name: tblDocuments,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
			},
		},
		tblTurns: {
			Name: tblTurns,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"prd_id": {
					Name:    "prd_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocumentID"},
				},
			},
		},
		tblVersions: {
			Name: tblVersions,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"prd_id": {
					Name:    "prd_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocumentID"},
				},
				"prd_id_version_number": {
					Name:   "prd_id_version_number",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "DocumentID"},
							&memdb.IntFieldIndex{Field: "VersionNumber"},
						},
					},
				},
			},
		},
	},
}

// DB is an in-memory database shared by the memory repositories.
type DB struct {
	db  *memdb.MemDB
	seq atomic.Int64
}

// New creates an empty in-memory database.
func New() (*DB, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}
	return &DB{db: db}, nil
}

// nextSeq returns a strictly increasing sequence used to order records
// inserted within the same clock tick.
func (d *DB) nextSeq() int64 {
	return d.seq.Add(1)
}

// TransactionManager runs fn directly. Each repository call commits its own
// memdb transaction, so a failing fn does not roll back earlier writes.
type TransactionManager struct{}

// NewTransactionManager creates a pass-through transaction manager
func NewTransactionManager() repositories.TransactionManager {
	return TransactionManager{}
}

// ExecTx executes fn without a surrounding transaction
func (TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
