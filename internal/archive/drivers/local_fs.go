package drivers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFSDriver keeps archived objects under BaseDir, one file per key.
type LocalFSDriver struct {
	BaseDir string
}

func NewLocalFSDriver(baseDir string) (*LocalFSDriver, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalFSDriver{BaseDir: baseDir}, nil
}

func (d *LocalFSDriver) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	return filepath.Join(d.BaseDir, clean), nil
}

func (d *LocalFSDriver) Save(ctx context.Context, key string, body io.Reader, contentType string) (int64, error) {
	fullPath, err := d.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, body)
	if err != nil {
		file.Close()
		os.Remove(fullPath)
		return 0, fmt.Errorf("failed to save file content: %w", err)
	}
	return n, nil
}

func (d *LocalFSDriver) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := d.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}
