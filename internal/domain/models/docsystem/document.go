package docsystem

import (
	"time"
)

// DefaultDocumentTitle is used when a document is created without a title.
const DefaultDocumentTitle = "Untitled PRD"

// Document statuses
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Document is the metadata of a PRD. The markdown body lives in the content
// store, addressed by (UserID, ID).
type Document struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	Title           string    `json:"title" db:"title"`
	Status          string    `json:"status" db:"status"`
	FilePath        string    `json:"-" db:"file_path"`
	EstimatedTokens int       `json:"estimated_tokens" db:"estimated_tokens"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// DocumentContent is the body of a document together with its token estimate.
type DocumentContent struct {
	Content         string `json:"content"`
	EstimatedTokens int    `json:"estimated_tokens"`
}
