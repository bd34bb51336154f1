package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yourorg/market-dashboard/internal/config"
	"github.com/yourorg/market-dashboard/internal/model"
)

// Archive keeps a copy of every raw upload
type Archive interface {
	// Store saves body under kind and returns the key it was stored as
	Store(ctx context.Context, kind model.DatasetKind, filename string, body []byte) (string, error)
}

// NewArchive creates the archive selected by the configuration
func NewArchive(cfg config.StorageConfig) (Archive, error) {
	switch cfg.Type {
	case "local":
		return NewLocalArchive(cfg.Local)
	case "s3":
		return NewS3Archive(cfg.S3)
	case "none", "":
		return NopArchive{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// NopArchive discards uploads
type NopArchive struct{}

// Store implements Archive
func (NopArchive) Store(context.Context, model.DatasetKind, string, []byte) (string, error) {
	return "", nil
}

// objectKey builds kind/<uuid><ext> for an uploaded file
func objectKey(kind model.DatasetKind, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".csv"
	}
	return fmt.Sprintf("%s/%s%s", kind, uuid.New().String(), ext)
}
