package manager

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/matzehuels/dtsm/pkg/catalog"
	"github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/fetch"
	"github.com/matzehuels/dtsm/pkg/index"
	"github.com/matzehuels/dtsm/pkg/manifest"
	"github.com/matzehuels/dtsm/pkg/resolve"
)

// Uninstall resolves term against the installed entries and removes the
// matching file. With opts.Save the entry is also removed from the
// manifest. Entries that still reference the removed file are left alone.
func (m *Manager) Uninstall(ctx context.Context, opts UninstallOptions, term string) ([]string, error) {
	if err := errors.ValidateTerm(term); err != nil {
		return nil, err
	}
	file := opts.Path
	if file == "" {
		file = m.manifestPath
	}
	mf, err := m.loadManifest(file, false)
	if err != nil {
		return nil, err
	}

	r := resolve.New(catalog.New(mf.IDs())).Resolve(term)
	if !r.OK() {
		return nil, r.Err()
	}
	id := r.Identifier

	dir := m.resolve(mf.Path)
	target, err := fetch.Target(dir, id)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove %s: %w", id, err)
	}
	pruneEmptyDirs(dir, filepath.Dir(target))
	m.logger.Info("removed", "id", id)

	if dependents := dependentsOf(mf, id); len(dependents) > 0 {
		m.logger.Warn("removed file is still referenced", "id", id, "by", dependents)
	}

	if opts.Save {
		m.saveMu.Lock()
		defer m.saveMu.Unlock()
		_, err := manifest.Update(ctx, file, func(cur *manifest.Manifest) error {
			cur.Remove(id)
			return manifest.WriteBundle(m.root, cur)
		})
		if err != nil {
			return nil, err
		}
	}
	return []string{id}, nil
}

// Outdated returns the installed entries whose recorded ref differs from
// the index's current ref, including entries the index no longer has.
func (m *Manager) Outdated(ctx context.Context) ([]string, error) {
	mf, err := m.loadManifest(m.manifestPath, false)
	if err != nil {
		return nil, err
	}
	c, err := m.Catalog()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var out []string
	for _, id := range mf.IDs() {
		if !c.Contains(id) {
			out = append(out, id)
			continue
		}
		ref, err := m.index.Ref(ctx, id)
		if stderrors.Is(err, index.ErrFileNotFound) {
			out = append(out, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ref of %s: %w", id, err)
		}
		if ref != mf.Dependencies[id].Ref {
			out = append(out, id)
		}
	}
	m.logger.Debug("outdated check", "entries", mf.Len(), "outdated", len(out), "took", time.Since(start))
	return out, nil
}

// dependentsOf returns the entries that list id as a dependency.
func dependentsOf(mf *manifest.Manifest, id string) []string {
	var out []string
	for _, other := range mf.IDs() {
		if slices.Contains(mf.Dependencies[other].Dependencies, id) {
			out = append(out, other)
		}
	}
	return out
}

// pruneEmptyDirs removes dir and its parents while they are empty, stopping
// at (and never removing) root.
func pruneEmptyDirs(root, dir string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root && len(dir) > len(root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}

func dirOf(id string) string { return path.Dir(id) }
