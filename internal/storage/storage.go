// Package storage uploads claim evidence to a file or object store.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/d60-Lab/green-credits/config"
)

// Uploader stores evidence bytes and returns a URL for them. Failures must be
// returned, never swallowed.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename, mimeType string) (string, error)
}

// New selects an Uploader implementation by configuration.
func New(ctx context.Context, cfg config.StorageConfig) (Uploader, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalUploader(cfg.LocalDir, cfg.PublicPrefix)
	case "s3":
		return NewS3Uploader(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ObjectKey builds a collision-free key that keeps a readable slug of the
// original name, e.g. "evidence/1f0c…-my-receipt.png".
func ObjectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		return fmt.Sprintf("evidence/%s%s", uuid.NewString(), ext)
	}
	return fmt.Sprintf("evidence/%s-%s%s", uuid.NewString(), base, ext)
}
