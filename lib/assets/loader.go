package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oriumgames/navgraph/lib/diskio"
)

// Loader fetches the raw bytes behind a resource key (spec §6's
// "Data/SubScene_{SceneId}/Section_{SectionId}" convention). Provider
// is agnostic to where bytes come from; DiskLoader is the only
// implementation shipped here.
type Loader interface {
	Load(ctx context.Context, key string) ([]byte, error)
}

// DiskLoader reads one file per resource key from a root directory,
// via diskio.File so the read path goes through the same seekable
// ReaderAt abstraction the rest of the codebase uses for on-disk data.
type DiskLoader struct {
	Dir string
}

var _ Loader = DiskLoader{}

func (d DiskLoader) Load(_ context.Context, key string) ([]byte, error) {
	path := filepath.Join(d.Dir, filepath.FromSlash(key))
	osFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	file := &diskio.OSFile[int64]{File: osFile}
	defer file.Close()

	size := file.Size()
	buf := make([]byte, size)
	if size > 0 {
		if _, err := file.ReadAt(buf, 0); err != nil {
			return nil, fmt.Errorf("assets: reading %q: %w", path, err)
		}
	}
	return buf, nil
}
