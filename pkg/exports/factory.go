package exports

import (
	"context"
	"fmt"
)

// StorageType selects the archive backend.
type StorageType string

const (
	StorageFS  StorageType = "fs"
	StorageS3  StorageType = "s3"
	StorageGCS StorageType = "gcs"
)

// ArchiveConfig configures NewArchive.
type ArchiveConfig struct {
	Type     StorageType
	Dir      string
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// NewArchive builds the configured backend. An empty type means fs.
func NewArchive(ctx context.Context, cfg ArchiveConfig) (Archive, error) {
	switch cfg.Type {
	case "", StorageFS:
		dir := cfg.Dir
		if dir == "" {
			dir = "data/exports"
		}
		return NewFileArchive(dir)
	case StorageS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("EXPORT_BUCKET is required for S3 storage")
		}
		region := cfg.Region
		if region == "" {
			region = "us-east-1"
		}
		return NewS3Archive(ctx, S3Config{Bucket: cfg.Bucket, Region: region, Endpoint: cfg.Endpoint, Prefix: cfg.Prefix})
	case StorageGCS:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("EXPORT_BUCKET is required for GCS storage")
		}
		return newGCSArchive(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported export storage type: %s", cfg.Type)
	}
}
