package docsystem

import "context"

// ContentConverter turns the bytes of one file format into markdown.
// Implementations are stateless and safe for concurrent use.
type ContentConverter interface {
	Convert(ctx context.Context, input []byte) (markdown string, err error)

	// SupportedExtensions lists lowercase extensions with the leading dot
	SupportedExtensions() []string

	Name() string
}
