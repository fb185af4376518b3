package docsystem

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Change sources recorded on a version
const (
	ChangeSourceManual = "manual"
	ChangeSourceAuto   = "auto"
	ChangeSourceAI     = "ai"
)

// Version is an immutable snapshot of a document's title and content.
// VersionNumber is unique per document and assigned max+1 at insert time.
type Version struct {
	ID            string    `json:"id" db:"id"`
	DocumentID    string    `json:"prd_id" db:"prd_id"`
	CreatedBy     *string   `json:"created_by" db:"created_by"`
	VersionNumber int       `json:"version_number" db:"version_number"`
	Title         string    `json:"title" db:"title"`
	Content       string    `json:"content" db:"content"`
	ContentHash   string    `json:"content_hash" db:"content_hash"`
	ContentSize   int       `json:"content_size" db:"content_size"`
	ChangeSummary *string   `json:"change_summary" db:"change_summary"`
	ChangeSource  string    `json:"change_source" db:"change_source"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// VersionSummary is a version without its content, as listed in history.
type VersionSummary struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"prd_id"`
	CreatedBy     *string   `json:"created_by"`
	VersionNumber int       `json:"version_number"`
	Title         string    `json:"title"`
	ContentHash   string    `json:"content_hash"`
	ContentSize   int       `json:"content_size"`
	ChangeSummary *string   `json:"change_summary"`
	ChangeSource  string    `json:"change_source"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summary drops the content of v.
func (v *Version) Summary() VersionSummary {
	return VersionSummary{
		ID:            v.ID,
		DocumentID:    v.DocumentID,
		CreatedBy:     v.CreatedBy,
		VersionNumber: v.VersionNumber,
		Title:         v.Title,
		ContentHash:   v.ContentHash,
		ContentSize:   v.ContentSize,
		ChangeSummary: v.ChangeSummary,
		ChangeSource:  v.ChangeSource,
		CreatedAt:     v.CreatedAt,
	}
}

// VersionSide is one end of a comparison.
type VersionSide struct {
	ID            string    `json:"id"`
	VersionNumber int       `json:"version_number"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// VersionComparison pairs two versions of the same document.
type VersionComparison struct {
	From VersionSide `json:"from"`
	To   VersionSide `json:"to"`
}

// Side returns the comparison view of v.
func (v *Version) Side() VersionSide {
	return VersionSide{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		Content:       v.Content,
		CreatedAt:     v.CreatedAt,
	}
}

// HashContent returns the lowercase hex md5 digest used to detect unchanged snapshots.
func HashContent(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}
