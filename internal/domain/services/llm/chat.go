package llm

import (
	"context"

	"prdtool/internal/domain/models/llm"
)

// StreamSink receives the text fragments of a streaming turn as they arrive.
// A non-nil error from Fragment means the client is gone; the turn is then
// abandoned.
type StreamSink interface {
	Fragment(text string) error
}

// ChatService runs conversation turns against a document
type ChatService interface {
	// SubmitTurn persists the user's message, asks the model for a reply and
	// persists the reply. When sink is non-nil the reply is streamed through it.
	// The user turn stays persisted even if generation fails.
	SubmitTurn(ctx context.Context, req *SubmitTurnRequest, sink StreamSink) (*SubmitTurnResult, error)

	// ApplyDirective appends the turn's update suggestion to the document.
	// Returns domain.ErrNoDirective when the turn has none.
	ApplyDirective(ctx context.Context, documentID, userID, turnID string) (*ApplyResult, error)

	// ListMessages returns the conversation of a document, oldest first
	ListMessages(ctx context.Context, documentID, userID string) ([]llm.Turn, error)
}

// SubmitTurnRequest is the DTO for a new user message
type SubmitTurnRequest struct {
	DocumentID string `json:"-"` // From the URL
	UserID     string `json:"-"` // Set by handler from auth context, not from request body
	Content    string `json:"content"`
}

// SubmitTurnResult is the persisted assistant turn of a completed exchange
type SubmitTurnResult struct {
	Message   *llm.Turn `json:"message"`
	HasUpdate bool      `json:"has_update"`
}

// ApplyResult reports the document's token estimate after a directive was applied
type ApplyResult struct {
	Message         string `json:"message"`
	EstimatedTokens int    `json:"estimated_tokens"`
}
