package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dtsm/pkg/catalog"
	pkgio "github.com/matzehuels/dtsm/pkg/io"
)

// DefaultWorkers bounds concurrent file writes when the caller passes zero.
const DefaultWorkers = 8

// Materialize writes files below root, each at root/<id>. Writes are atomic
// (temp file and rename) so a reader never observes a partial file.
// Failures are reported per identifier; one failed write does not stop the
// others. The returned map only holds failed identifiers.
func Materialize(root string, files []*File, workers int) map[string]error {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		mu   sync.Mutex
		errs = make(map[string]error)
		g    errgroup.Group
	)
	g.SetLimit(workers)

	for _, f := range files {
		g.Go(func() error {
			if err := writeFile(root, f); err != nil {
				mu.Lock()
				errs[f.ID] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// Target returns the on-disk path of id below root.
func Target(root, id string) (string, error) {
	clean, err := catalog.Normalize(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

func writeFile(root string, f *File) error {
	dst, err := Target(root, f.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return pkgio.WriteFileAtomic(dst, f.Content, 0o644)
}
