package docsystem

import (
	"context"
	"time"

	"prdtool/internal/domain/models/docsystem"
)

// DocumentService handles document metadata and content
type DocumentService interface {
	// CreateDocument creates the metadata row and the initial content
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*docsystem.Document, error)

	// GetDocument retrieves document metadata
	// userID is used for authorization check
	GetDocument(ctx context.Context, userID, documentID string) (*docsystem.Document, error)

	// GetContent returns the current body and its token estimate
	GetContent(ctx context.Context, userID, documentID string) (*docsystem.DocumentContent, error)

	// UpdateContent replaces the body and refreshes the token estimate
	UpdateContent(ctx context.Context, userID, documentID string, req *UpdateContentRequest) (*UpdateContentResult, error)
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	UserID  string  `json:"-"` // Set by handler from auth context, not from request body
	Title   *string `json:"title,omitempty"`
	Status  *string `json:"status,omitempty"`
	Content string  `json:"content"`
}

// UpdateContentRequest replaces a document body
type UpdateContentRequest struct {
	Content string `json:"content"`
}

// UpdateContentResult is returned after a successful content update
type UpdateContentResult struct {
	Message         string    `json:"message"`
	EstimatedTokens int       `json:"estimated_tokens"`
	UpdatedAt       time.Time `json:"updated_at"`
}
