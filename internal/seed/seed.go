// Package seed creates PRDs from a directory of markdown, text or HTML files.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"prdtool/internal/domain/models/docsystem"
	docsysSvc "prdtool/internal/domain/services/docsystem"
	"prdtool/internal/service/docsystem/converter"
	"prdtool/internal/utils"
)

// Seeder turns files into documents owned by one user
type Seeder struct {
	documents  docsysSvc.DocumentService
	converters *converter.Registry
	logger     *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(documents docsysSvc.DocumentService, logger *slog.Logger) *Seeder {
	return &Seeder{
		documents:  documents,
		converters: converter.NewRegistry(),
		logger:     logger,
	}
}

// Result lists what a seeding run created and what it skipped
type Result struct {
	Created []*docsystem.Document
	Failed  map[string]error
}

// SeedDirectory creates one document per convertible file in dir, in name
// order. Files of other types are ignored. Frontmatter may set title and
// status; without a title the file name is used. A bad file is recorded in
// Result.Failed and does not stop the run.
func (s *Seeder) SeedDirectory(ctx context.Context, dir, ownerID string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list seed files: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && s.converters.Supports(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	result := &Result{Failed: make(map[string]error)}
	for _, path := range paths {
		doc, err := s.seedFile(ctx, path, ownerID)
		if err != nil {
			s.logger.Warn("seed file skipped", "path", path, "error", err)
			result.Failed[path] = err
			continue
		}
		s.logger.Info("seeded document", "path", path, "prd_id", doc.ID, "title", doc.Title)
		result.Created = append(result.Created, doc)
	}

	return result, nil
}

func (s *Seeder) seedFile(ctx context.Context, path, ownerID string) (*docsystem.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	metadata, rest, err := utils.ParseFrontmatter(raw)
	if err != nil {
		return nil, err
	}
	meta, err := utils.ValidateSeedMetadata(metadata)
	if err != nil {
		return nil, err
	}

	body, err := s.converters.Convert(ctx, path, []byte(rest))
	if err != nil {
		return nil, err
	}

	title := meta.Title
	if title == nil {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		title = &name
	}

	return s.documents.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
		UserID:  ownerID,
		Title:   title,
		Status:  meta.Status,
		Content: strings.TrimLeft(body, "\n"),
	})
}
