package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore is the opaque file storage behind document uploads. The handle
// returned by Put is the only way to address the stored bytes later.
type BlobStore interface {
	Put(ctx context.Context, data []byte, nameHint string) (string, error)
	Get(ctx context.Context, handle string) ([]byte, error)
	Delete(ctx context.Context, handle string) error
}

// LocalBlobStore stores blobs as uuid-named files under a base directory.
type LocalBlobStore struct {
	baseDir string
}

// NewLocalBlobStore ensures the base directory exists and returns the store.
func NewLocalBlobStore(baseDir string) (*LocalBlobStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalBlobStore{baseDir: baseDir}, nil
}

func (s *LocalBlobStore) Put(ctx context.Context, data []byte, nameHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	handle := uuid.New().String() + filepath.Ext(nameHint)
	path := filepath.Join(s.baseDir, handle)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return handle, nil
}

func (s *LocalBlobStore) Get(ctx context.Context, handle string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Reject handles that escape the base directory.
	if filepath.Base(handle) != handle {
		return nil, fmt.Errorf("invalid storage handle %q", handle)
	}
	return os.ReadFile(filepath.Join(s.baseDir, handle))
}

func (s *LocalBlobStore) Delete(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if filepath.Base(handle) != handle {
		return fmt.Errorf("invalid storage handle %q", handle)
	}
	return os.Remove(filepath.Join(s.baseDir, handle))
}
