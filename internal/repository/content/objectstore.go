package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"prdtool/internal/domain"
	docsysSvc "prdtool/internal/domain/services/docsystem"
)

const (
	objectKeyPrefix   = "prds"
	objectContentType = "text/markdown; charset=utf-8"
	noSuchKey         = "NoSuchKey"
)

// ObjectStoreConfig holds the S3-compatible endpoint settings
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ObjectStore keeps document bodies in an S3-compatible bucket under
// prds/<owner>/<document>.md. A PUT replaces an object atomically.
type ObjectStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

var _ docsysSvc.ContentStore = (*ObjectStore)(nil)

// NewObjectStore builds a client for the configured endpoint. No request is
// made until EnsureBucket or a store operation is called.
func NewObjectStore(cfg ObjectStoreConfig, logger *slog.Logger) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &ObjectStore{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created content bucket", "bucket", s.bucket)
	return nil
}

func objectKey(ownerID, documentID string) string {
	return path.Join(objectKeyPrefix, ownerID, documentID+".md")
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == noSuchKey
}

// Read returns the object body, or "" with a warning when it does not exist.
func (s *ObjectStore) Read(ctx context.Context, ownerID, documentID string) (string, error) {
	if err := validateIDs("read", ownerID, documentID); err != nil {
		return "", err
	}

	key := objectKey(ownerID, documentID)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			s.logger.Warn("prd content object not found", "key", key, "prd_id", documentID)
			return "", nil
		}
		return "", &domain.StorageError{Op: "read", Err: err}
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on first read
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			s.logger.Warn("prd content object not found", "key", key, "prd_id", documentID)
			return "", nil
		}
		return "", &domain.StorageError{Op: "read", Err: err}
	}
	return string(data), nil
}

// Write uploads the content, replacing any previous object.
func (s *ObjectStore) Write(ctx context.Context, ownerID, documentID, content string) error {
	if err := validateIDs("write", ownerID, documentID); err != nil {
		return err
	}
	if err := s.put(ctx, objectKey(ownerID, documentID), content); err != nil {
		return &domain.StorageError{Op: "write", Err: err}
	}
	return nil
}

// Create uploads the initial content and returns the object key.
func (s *ObjectStore) Create(ctx context.Context, ownerID, documentID, initial string) (string, error) {
	if err := validateIDs("create", ownerID, documentID); err != nil {
		return "", err
	}
	key := objectKey(ownerID, documentID)
	if err := s.put(ctx, key, initial); err != nil {
		return "", &domain.StorageError{Op: "create", Err: err}
	}
	return key, nil
}

func (s *ObjectStore) put(ctx context.Context, key, content string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, strings.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: objectContentType})
	return err
}

// Delete removes the object. Removing a missing object is not an error.
func (s *ObjectStore) Delete(ctx context.Context, ownerID, documentID string) error {
	if err := validateIDs("delete", ownerID, documentID); err != nil {
		return err
	}
	err := s.client.RemoveObject(ctx, s.bucket, objectKey(ownerID, documentID), minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return &domain.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// Exists reports whether the object is present.
func (s *ObjectStore) Exists(ctx context.Context, ownerID, documentID string) (bool, error) {
	_, found, err := s.stat(ctx, "exists", ownerID, documentID)
	return found, err
}

// Size returns the object size in bytes, 0 when missing.
func (s *ObjectStore) Size(ctx context.Context, ownerID, documentID string) (int64, error) {
	size, _, err := s.stat(ctx, "size", ownerID, documentID)
	return size, err
}

func (s *ObjectStore) stat(ctx context.Context, op, ownerID, documentID string) (int64, bool, error) {
	if err := validateIDs(op, ownerID, documentID); err != nil {
		return 0, false, err
	}
	info, err := s.client.StatObject(ctx, s.bucket, objectKey(ownerID, documentID), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return 0, false, nil
		}
		return 0, false, &domain.StorageError{Op: op, Err: err}
	}
	return info.Size, true, nil
}
