package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"prdtool/internal/domain"
	"prdtool/internal/domain/models/docsystem"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
)

// versionRecord is the stored form of a version.
type versionRecord struct {
	ID            string
	DocumentID    string
	VersionNumber int
	Version       docsystem.Version
}

// VersionRepository stores document versions in memory
type VersionRepository struct {
	db *DB
}

// NewVersionRepository creates a new in-memory version repository
func NewVersionRepository(db *DB) docsysRepo.VersionRepository {
	return &VersionRepository{db: db}
}

// Create inserts a version numbered one above the current maximum.
// memdb serializes write transactions, so numbering cannot race.
func (r *VersionRepository) Create(_ context.Context, version *docsystem.Version) error {
	txn := r.db.db.Txn(true)
	defer txn.Abort()

	iter, err := txn.Get(tblVersions, "prd_id", version.DocumentID)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	maxNumber := 0
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		if n := raw.(*versionRecord).VersionNumber; n > maxNumber {
			maxNumber = n
		}
	}

	version.ID = uuid.NewString()
	version.VersionNumber = maxNumber + 1
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now()
	}

	rec := &versionRecord{
		ID:            version.ID,
		DocumentID:    version.DocumentID,
		VersionNumber: version.VersionNumber,
		Version:       *version,
	}
	if err := txn.Insert(tblVersions, rec); err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	txn.Commit()
	return nil
}

// GetByID retrieves a version of the given document
func (r *VersionRepository) GetByID(_ context.Context, documentID, versionID string) (*docsystem.Version, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblVersions, "id", versionID)
	if err != nil {
		return nil, fmt.Errorf("find version: %w", err)
	}
	if raw == nil || raw.(*versionRecord).DocumentID != documentID {
		return nil, fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
	}
	v := raw.(*versionRecord).Version
	return &v, nil
}

// GetLatest returns the highest-numbered version
func (r *VersionRepository) GetLatest(ctx context.Context, documentID string) (*docsystem.Version, error) {
	records, err := r.records(documentID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("latest version of prd %s: %w", documentID, domain.ErrNotFound)
	}
	v := records[0].Version
	return &v, nil
}

// ListByDocument returns versions newest first, without content
func (r *VersionRepository) ListByDocument(_ context.Context, documentID string) ([]docsystem.Version, error) {
	records, err := r.records(documentID)
	if err != nil {
		return nil, err
	}
	versions := make([]docsystem.Version, 0, len(records))
	for _, rec := range records {
		v := rec.Version
		v.Content = ""
		versions = append(versions, v)
	}
	return versions, nil
}

// records returns a document's versions, highest number first
func (r *VersionRepository) records(documentID string) ([]*versionRecord, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblVersions, "prd_id", documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	var records []*versionRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		records = append(records, raw.(*versionRecord))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].VersionNumber > records[j].VersionNumber
	})
	return records, nil
}
