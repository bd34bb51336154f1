package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourorg/market-dashboard/internal/config"
	"github.com/yourorg/market-dashboard/internal/model"
)

// LocalArchive stores uploads in a directory tree by dataset kind
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a new LocalArchive
func NewLocalArchive(cfg config.LocalStorageConfig) (*LocalArchive, error) {
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalArchive{basePath: cfg.BasePath}, nil
}

// Store writes body to basePath/kind/<uuid>.csv
func (a *LocalArchive) Store(ctx context.Context, kind model.DatasetKind, filename string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(kind, filename)
	path := filepath.Join(a.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return key, nil
}
