package converter

import (
	"context"
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// HTMLConverter sanitizes HTML with a user-generated-content policy, then
// renders it as markdown. Scripts, event handlers and javascript: URLs never
// reach the document.
type HTMLConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewHTMLConverter creates an HTML to markdown converter
func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

func (c *HTMLConverter) Convert(_ context.Context, input []byte) (string, error) {
	sanitized := c.policy.SanitizeBytes(input)

	markdown, err := c.converter.ConvertBytes(sanitized)
	if err != nil {
		return "", fmt.Errorf("convert HTML to markdown: %w", err)
	}
	return string(markdown), nil
}

func (c *HTMLConverter) SupportedExtensions() []string { return []string{".html", ".htm"} }
func (c *HTMLConverter) Name() string                  { return "html" }
