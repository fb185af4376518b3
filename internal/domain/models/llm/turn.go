package llm

import (
	"time"
)

// Turn roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one persisted message in a document's conversation.
// Only assistant turns carry a PrdUpdateSuggestion, and UpdateApplied only
// ever moves from false to true for turns that have one.
type Turn struct {
	ID                  string    `json:"id" db:"id"`
	DocumentID          string    `json:"-" db:"prd_id"`
	Role                string    `json:"role" db:"role"` // "user" or "assistant"
	Content             string    `json:"content" db:"content"`
	PrdUpdateSuggestion *string   `json:"prd_update_suggestion" db:"prd_update_suggestion"`
	UpdateApplied       bool      `json:"update_applied" db:"update_applied"`
	TokenCount          int       `json:"token_count" db:"token_count"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// HasSuggestion reports whether the turn carries an update directive.
func (t *Turn) HasSuggestion() bool {
	return t.PrdUpdateSuggestion != nil && *t.PrdUpdateSuggestion != ""
}
