package config

import "time"

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxDocumentTitleLength = 255

	// MaxMessageLength is the maximum number of characters accepted for a
	// single user chat message.
	MaxMessageLength = 10000

	// MaxChangeSummaryLength is the maximum length of a manual version summary.
	MaxChangeSummaryLength = 255

	// MaxDocumentContentBytes caps direct content updates (2 MiB).
	MaxDocumentContentBytes = 2 << 20

	// ChatHistoryWindow is how many of the most recent turns are sent to the
	// model as conversation context.
	ChatHistoryWindow = 20

	// CompletionTimeout bounds a single call to the completion provider.
	CompletionTimeout = 2 * time.Minute
)
