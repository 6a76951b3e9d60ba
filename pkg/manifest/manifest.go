// Package manifest reads and writes dtsm.json, the record of installed
// declaration files.
//
// The manifest maps every installed identifier to the ref it was installed
// at and the identifiers it references:
//
//	{
//	  "repos": [
//	    {"url": "https://github.com/borisyankov/DefinitelyTyped.git", "ref": "master"}
//	  ],
//	  "path": "typings",
//	  "bundle": "typings/bundle.d.ts",
//	  "dependencies": {
//	    "jquery/jquery.d.ts": {"ref": "1d53fa6d..."}
//	  }
//	}
//
// [Save] writes the file atomically while holding an exclusive lock on a
// sibling ".lock" file, so concurrent dtsm processes never interleave
// writes. [Update] holds the same lock across a read, modify and write
// cycle so that no writer's entries are lost. Encoding is byte-stable: loading a saved manifest and saving it
// again produces identical bytes.
package manifest

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/dtsm/pkg/catalog"
	"github.com/matzehuels/dtsm/pkg/errors"
)

const (
	DefaultFile   = "dtsm.json"           // Default manifest file name
	DefaultPath   = "typings"             // Default install directory
	DefaultBundle = "typings/bundle.d.ts" // Default bundle file
)

// Repo is an index repository the manifest was installed from.
type Repo struct {
	URL string `json:"url"`
	Ref string `json:"ref"`
}

// Entry is one installed declaration file.
type Entry struct {
	Ref          string   `json:"ref"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Manifest is the decoded form of dtsm.json.
type Manifest struct {
	Repos        []Repo           `json:"repos,omitempty"`
	Path         string           `json:"path"`
	Bundle       string           `json:"bundle,omitempty"`
	Dependencies map[string]Entry `json:"dependencies"`
}

// New returns an empty manifest with the default install path and bundle.
func New() *Manifest {
	return &Manifest{
		Path:         DefaultPath,
		Bundle:       DefaultBundle,
		Dependencies: make(map[string]Entry),
	}
}

// IDs returns the installed identifiers, sorted.
func (m *Manifest) IDs() []string {
	return slices.Sorted(maps.Keys(m.Dependencies))
}

// Len returns the number of installed entries.
func (m *Manifest) Len() int { return len(m.Dependencies) }

// Has reports whether id is installed.
func (m *Manifest) Has(id string) bool {
	_, ok := m.Dependencies[id]
	return ok
}

// Set records id as installed. The dependency list is copied and sorted.
func (m *Manifest) Set(id string, e Entry) {
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]Entry)
	}
	if len(e.Dependencies) == 0 {
		e.Dependencies = nil
	} else {
		e.Dependencies = slices.Clone(e.Dependencies)
		slices.Sort(e.Dependencies)
		e.Dependencies = slices.Compact(e.Dependencies)
	}
	m.Dependencies[id] = e
}

// Remove deletes the entry for id and reports whether it existed.
func (m *Manifest) Remove(id string) bool {
	if _, ok := m.Dependencies[id]; !ok {
		return false
	}
	delete(m.Dependencies, id)
	return true
}

// AddRepo records an index repository, replacing the ref of an existing
// entry with the same URL.
func (m *Manifest) AddRepo(r Repo) {
	for i := range m.Repos {
		if m.Repos[i].URL == r.URL {
			m.Repos[i].Ref = r.Ref
			return
		}
	}
	m.Repos = append(m.Repos, r)
}

// Clone returns a deep copy of m.
func (m *Manifest) Clone() *Manifest {
	c := &Manifest{
		Repos:        slices.Clone(m.Repos),
		Path:         m.Path,
		Bundle:       m.Bundle,
		Dependencies: make(map[string]Entry, len(m.Dependencies)),
	}
	for id, e := range m.Dependencies {
		e.Dependencies = slices.Clone(e.Dependencies)
		c.Dependencies[id] = e
	}
	return c
}

// Validate checks the structural invariants of a decoded manifest.
func (m *Manifest) Validate() error {
	if m.Path == "" {
		return errors.New(errors.ErrCodeManifestCorrupt, "manifest has no install path")
	}
	for id, e := range m.Dependencies {
		norm, err := catalog.Normalize(id)
		if err != nil || norm != id {
			return errors.New(errors.ErrCodeManifestCorrupt, "invalid identifier %q", id)
		}
		for _, dep := range e.Dependencies {
			if _, err := catalog.Normalize(dep); err != nil {
				return errors.New(errors.ErrCodeManifestCorrupt, "invalid dependency %q of %q", dep, id)
			}
		}
	}
	for i, r := range m.Repos {
		if err := errors.ValidateURL(r.URL); err != nil {
			return errors.Wrap(errors.ErrCodeManifestCorrupt, err, "repos[%d]", i)
		}
	}
	return nil
}

// String returns a short description for log output.
func (m *Manifest) String() string {
	return fmt.Sprintf("manifest(path=%s, entries=%d)", m.Path, len(m.Dependencies))
}
