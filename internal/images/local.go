package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore copies uploads into a directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "imagenes_productos"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve image directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &LocalStore{dir: abs}, nil
}

// Dir returns the absolute image directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes the upload byte for byte and returns its file:// reference.
func (s *LocalStore) Save(ctx context.Context, upload Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, objectName(upload.Filename))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := io.Copy(f, upload.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return LocalRef(path), nil
}

// Resolve returns the file behind ref when it lies inside the store directory.
func (s *LocalStore) Resolve(ref string) (string, bool) {
	if !IsLocal(ref) {
		return "", false
	}
	path := filepath.Clean(LocalPath(ref))
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

func (s *LocalStore) Close() error {
	return nil
}
