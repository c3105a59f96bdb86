//go:build gcp

package exports

import "context"

func newGCSArchive(ctx context.Context, cfg ArchiveConfig) (Archive, error) {
	return NewGCSArchive(ctx, GCSConfig{Bucket: cfg.Bucket, Prefix: cfg.Prefix})
}
