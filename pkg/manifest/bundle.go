package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgio "github.com/matzehuels/dtsm/pkg/io"
)

// BundleContent renders the bundle file for m: one reference directive per
// installed entry, relative to the bundle's own directory. base is the
// directory that m.Path and m.Bundle are relative to.
func BundleContent(base string, m *Manifest) ([]byte, error) {
	bundleDir := filepath.Dir(filepath.Join(base, filepath.FromSlash(m.Bundle)))
	installDir := filepath.Join(base, filepath.FromSlash(m.Path))

	var b strings.Builder
	for _, id := range m.IDs() {
		target := filepath.Join(installDir, filepath.FromSlash(id))
		rel, err := filepath.Rel(bundleDir, target)
		if err != nil {
			return nil, fmt.Errorf("bundle reference for %s: %w", id, err)
		}
		fmt.Fprintf(&b, "/// <reference path=%q />\n", filepath.ToSlash(rel))
	}
	return []byte(b.String()), nil
}

// WriteBundle regenerates the bundle file named by m. It does nothing when
// the manifest has no bundle.
func WriteBundle(base string, m *Manifest) error {
	if m.Bundle == "" {
		return nil
	}
	data, err := BundleContent(base, m)
	if err != nil {
		return err
	}
	dst := filepath.Join(base, filepath.FromSlash(m.Bundle))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create bundle directory: %w", err)
	}
	return pkgio.WriteFileAtomic(dst, data, 0o644)
}
