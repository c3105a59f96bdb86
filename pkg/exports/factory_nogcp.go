//go:build !gcp

package exports

import (
	"context"
	"fmt"
)

func newGCSArchive(context.Context, ArchiveConfig) (Archive, error) {
	return nil, fmt.Errorf("GCS storage is not enabled in this build (use -tags gcp)")
}
