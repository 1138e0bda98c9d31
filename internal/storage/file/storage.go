package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage provides a simple file-based storage backend.
// It stores files under a specified base path on the local filesystem.
type Storage struct {
	basePath string
}

// NewStorage creates a new Storage instance with the given basePath.
// An empty basePath resolves directories relative to the working directory.
func NewStorage(basePath string) *Storage {
	return &Storage{basePath: basePath}
}

// Prepare creates dir (and its parents) if it does not exist yet.
func (s *Storage) Prepare(_ context.Context, dir string) error {
	path := filepath.Join(s.basePath, dir)
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// Save writes src to dir/filename. The content is written to a temporary file
// in the same directory and renamed into place, so a failed write never leaves
// a partial file behind and an existing file is replaced as a whole.
func (s *Storage) Save(ctx context.Context, dir, filename string, src io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dstDir := filepath.Join(s.basePath, dir)
	dstPath := filepath.Join(dstDir, filename)

	tmp, err := os.CreateTemp(dstDir, "."+filename+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", dstPath, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save file %s: %w", dstPath, err)
	}

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set mode on %s: %w", dstPath, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close file %s: %w", dstPath, err)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move file into place %s: %w", dstPath, err)
	}

	return dstPath, nil
}
