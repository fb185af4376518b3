package converter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Convert(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		input    string
		want     string
	}{
		{"markdown passthrough", "a.md", "# Title\n", "# Title\n"},
		{"uppercase extension", "A.MD", "# Title", "# Title"},
		{"plain text", "notes.txt", "just text", "just text"},
		{"html heading", "page.html", "<h1>Checkout</h1>", "# Checkout"},
		{"html strips script", "page.htm", "<p>Hi</p><script>alert(1)</script>", "Hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Convert(ctx, tt.filename, []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Supports("slides.pdf"))
	_, err := r.Convert(context.Background(), "slides.pdf", nil)
	assert.Error(t, err)
}

func TestRegistry_Extensions(t *testing.T) {
	assert.Equal(t, []string{".htm", ".html", ".markdown", ".md", ".text", ".txt"}, NewRegistry().Extensions())
}
