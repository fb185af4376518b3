package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"prdtool/internal/domain"
	docsysSvc "prdtool/internal/domain/services/docsystem"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// FileStore keeps each document body in <root>/<owner>/<document>.md.
type FileStore struct {
	root   string
	logger *slog.Logger
}

var _ docsysSvc.ContentStore = (*FileStore)(nil)

// NewFileStore creates the root directory if needed.
func NewFileStore(root string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	return &FileStore{root: root, logger: logger}, nil
}

func (s *FileStore) path(ownerID, documentID string) string {
	return filepath.Join(s.root, ownerID, documentID+".md")
}

// Read returns the stored content, or "" with a warning when the file is missing.
func (s *FileStore) Read(ctx context.Context, ownerID, documentID string) (string, error) {
	if err := validateIDs("read", ownerID, documentID); err != nil {
		return "", err
	}

	path := s.path(ownerID, documentID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("prd content file not found", "path", path, "prd_id", documentID)
			return "", nil
		}
		return "", &domain.StorageError{Op: "read", Err: err}
	}
	return string(data), nil
}

// Write replaces the content atomically via temp file and rename.
func (s *FileStore) Write(ctx context.Context, ownerID, documentID, content string) error {
	if err := validateIDs("write", ownerID, documentID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "write", Err: err}
	}

	if err := writeAtomic(s.path(ownerID, documentID), content); err != nil {
		return &domain.StorageError{Op: "write", Err: err}
	}
	return nil
}

// Create writes the initial content and returns the file path.
func (s *FileStore) Create(ctx context.Context, ownerID, documentID, initial string) (string, error) {
	if err := validateIDs("create", ownerID, documentID); err != nil {
		return "", err
	}

	path := s.path(ownerID, documentID)
	if err := writeAtomic(path, initial); err != nil {
		return "", &domain.StorageError{Op: "create", Err: err}
	}
	s.logger.Debug("prd content created", "path", path, "bytes", len(initial))
	return path, nil
}

// Delete removes the file. A missing file is not an error.
func (s *FileStore) Delete(ctx context.Context, ownerID, documentID string) error {
	if err := validateIDs("delete", ownerID, documentID); err != nil {
		return err
	}

	if err := os.Remove(s.path(ownerID, documentID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// Exists reports whether the file is present.
func (s *FileStore) Exists(ctx context.Context, ownerID, documentID string) (bool, error) {
	if err := validateIDs("exists", ownerID, documentID); err != nil {
		return false, err
	}

	_, err := os.Stat(s.path(ownerID, documentID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, &domain.StorageError{Op: "exists", Err: err}
}

// Size returns the file size in bytes, 0 when missing.
func (s *FileStore) Size(ctx context.Context, ownerID, documentID string) (int64, error) {
	if err := validateIDs("size", ownerID, documentID); err != nil {
		return 0, err
	}

	info, err := os.Stat(s.path(ownerID, documentID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, &domain.StorageError{Op: "size", Err: err}
	}
	return info.Size(), nil
}

// writeAtomic writes to a temp file in the target directory, fsyncs it and
// renames it over path. The temp file is removed on any failure.
func writeAtomic(path, content string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.WriteString(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
