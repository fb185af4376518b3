package utils

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SeedMetadata is the optional frontmatter of a markdown file used to seed a document
type SeedMetadata struct {
	Title  *string
	Status *string
}

// ParseFrontmatter splits YAML frontmatter from markdown content.
// Expected format:
// ---
// title: Checkout redesign
// status: draft
// ---
// # Markdown content here
//
// Content without a leading "---" line has no frontmatter and is returned as is.
func ParseFrontmatter(content []byte) (map[string]interface{}, string, error) {
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return nil, string(content), nil
	}

	// Find the closing delimiter
	var closingDelim int
	lines := bytes.Split(content, []byte("\n"))

	// Skip the opening "---" line
	for i := 1; i < len(lines); i++ {
		line := bytes.TrimSpace(lines[i])
		if bytes.Equal(line, []byte("---")) {
			closingDelim = i
			break
		}
	}

	if closingDelim == 0 {
		return nil, "", errors.New("missing closing frontmatter delimiter '---'")
	}

	yamlContent := bytes.Join(lines[1:closingDelim], []byte("\n"))

	var metadata map[string]interface{}
	if err := yaml.Unmarshal(yamlContent, &metadata); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}

	markdownLines := lines[closingDelim+1:]
	markdownContent := string(bytes.Join(markdownLines, []byte("\n")))

	return metadata, markdownContent, nil
}

// ValidateSeedMetadata converts parsed frontmatter into SeedMetadata
func ValidateSeedMetadata(metadata map[string]interface{}) (*SeedMetadata, error) {
	if metadata == nil {
		return &SeedMetadata{}, nil
	}

	title, err := optionalString(metadata, "title")
	if err != nil {
		return nil, err
	}
	status, err := optionalString(metadata, "status")
	if err != nil {
		return nil, err
	}

	return &SeedMetadata{Title: title, Status: status}, nil
}

func optionalString(metadata map[string]interface{}, key string) (*string, error) {
	val, exists := metadata[key]
	if !exists {
		return nil, nil
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return nil, fmt.Errorf("frontmatter field '%s' must be a non-empty string", key)
	}
	return &s, nil
}
