package manifest

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/matzehuels/dtsm/pkg/errors"
	pkgio "github.com/matzehuels/dtsm/pkg/io"
	"github.com/matzehuels/dtsm/pkg/observability"
)

const lockRetry = 50 * time.Millisecond

// Load reads the manifest at file.
//
// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
// A file that cannot be decoded or violates the manifest invariants yields
// a MANIFEST_CORRUPT error.
func Load(file string) (*Manifest, error) {
	var m Manifest
	if err := pkgio.ImportJSON(file, &m); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		var pe *fs.PathError
		if stderrors.As(err, &pe) {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		return nil, errors.Wrap(errors.ErrCodeManifestCorrupt, err, "cannot parse %s", file)
	}
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]Entry)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestCorrupt, err, "invalid %s", file)
	}
	return &m, nil
}

// Exists reports whether a manifest file is present at file.
func Exists(file string) bool {
	_, err := os.Stat(file)
	return err == nil
}

// Save atomically replaces file with m, creating parent directories as
// needed. The write happens under an exclusive lock on file+".lock".
func Save(ctx context.Context, file string, m *Manifest) error {
	err := save(ctx, file, m)
	observability.Install().OnManifestSave(ctx, file, m.Len(), err)
	return err
}

func save(ctx context.Context, file string, m *Manifest) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	unlock, err := Lock(ctx, file)
	if err != nil {
		return err
	}
	defer unlock()
	return write(file, m)
}

// Update applies fn to the current content of file and saves the result,
// holding the lock on file from the read until the write completes. A
// missing file starts from New(). Changes made by other writers between an
// earlier Load and Update are therefore kept. If fn fails nothing is
// written. The saved manifest is returned.
func Update(ctx context.Context, file string, fn func(cur *Manifest) error) (*Manifest, error) {
	cur, err := update(ctx, file, fn)
	n := 0
	if cur != nil {
		n = cur.Len()
	}
	observability.Install().OnManifestSave(ctx, file, n, err)
	return cur, err
}

func update(ctx context.Context, file string, fn func(cur *Manifest) error) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}
	unlock, err := Lock(ctx, file)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cur, err := Load(file)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		cur = New()
	case err != nil:
		return nil, err
	}
	if err := fn(cur); err != nil {
		return nil, err
	}
	if err := write(file, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

// write replaces file with m. Callers hold the lock.
func write(file string, m *Manifest) error {
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]Entry)
	}
	if err := pkgio.ExportJSON(file, m); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Lock acquires the exclusive advisory lock guarding file. It waits until
// the lock is free or ctx is done. The returned func releases the lock.
func Lock(ctx context.Context, file string) (func(), error) {
	l := flock.New(file + ".lock")
	locked, err := l.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("cannot acquire manifest lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("manifest %s is locked by another process", file)
	}
	return func() { _ = l.Unlock() }, nil
}
