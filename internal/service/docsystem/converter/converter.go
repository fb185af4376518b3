// Package converter turns seed files of various formats into PRD markdown.
package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	docsysSvc "prdtool/internal/domain/services/docsystem"
)

// Registry routes files to a converter by extension. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	converters map[string]docsysSvc.ContentConverter
}

// NewRegistry creates a registry with the markdown, plain text and HTML converters.
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[string]docsysSvc.ContentConverter)}
	r.register(passthrough{name: "markdown", exts: []string{".md", ".markdown"}})
	r.register(passthrough{name: "plaintext", exts: []string{".txt", ".text"}})
	r.register(NewHTMLConverter())
	return r
}

func (r *Registry) register(c docsysSvc.ContentConverter) {
	for _, ext := range c.SupportedExtensions() {
		r.converters[strings.ToLower(ext)] = c
	}
}

// Supports reports whether filename has a registered extension (case-insensitive).
func (r *Registry) Supports(filename string) bool {
	_, ok := r.converters[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Convert picks the converter for filename and runs it.
func (r *Registry) Convert(ctx context.Context, filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	c, ok := r.converters[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type: %q", ext)
	}
	return c.Convert(ctx, content)
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.converters))
	for ext := range r.converters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// passthrough serves formats that already are valid markdown
type passthrough struct {
	name string
	exts []string
}

func (p passthrough) Convert(_ context.Context, input []byte) (string, error) {
	return string(input), nil
}

func (p passthrough) SupportedExtensions() []string { return p.exts }
func (p passthrough) Name() string                  { return p.name }
