// Package storage keeps company backup archives in a local directory or an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/erp/books/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrArchiveNotFound is returned when no archive exists under a key
var ErrArchiveNotFound = errors.New("archive not found")

// ArchiveInfo describes one stored archive
type ArchiveInfo struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// ArchiveStore stores opaque archive blobs by key
type ArchiveStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns archives whose key starts with prefix, newest first
	List(ctx context.Context, prefix string) ([]ArchiveInfo, error)
	Delete(ctx context.Context, key string) error
}

// NewArchiveStore opens the store selected by configuration
func NewArchiveStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (ArchiveStore, error) {
	switch cfg.Backend {
	case "local", "":
		return NewFileStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(ctx, cfg, WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func sortNewestFirst(infos []ArchiveInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].ModifiedAt.Equal(infos[j].ModifiedAt) {
			return infos[i].Key > infos[j].Key
		}
		return infos[i].ModifiedAt.After(infos[j].ModifiedAt)
	})
}
