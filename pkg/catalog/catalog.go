// Package catalog holds the list of declaration files available in an index
// repository and answers search queries against it.
//
// A [Catalog] is immutable once built. It is loaded once per session from an
// index source and only rebuilt after the index is fetched again.
//
// Queries follow two rules:
//
//   - a term that is itself an exact identifier matches only that identifier
//   - otherwise every identifier containing the term, compared with Unicode
//     case folding, matches
//
// The first rule keeps a short, precise term such as "node/node.d.ts" from
// being shadowed by longer identifiers that merely contain it.
package catalog

import (
	"context"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/matzehuels/dtsm/pkg/errors"
)

// Lister enumerates the identifiers of an index source.
type Lister interface {
	// List returns every identifier in the local copy of the index. It fails
	// with INDEX_UNAVAILABLE when the index was never fetched.
	List(ctx context.Context) ([]string, error)
}

// Catalog is an ordered, immutable set of identifiers.
// It is safe for concurrent use.
type Catalog struct {
	ids    []string
	folded []string
	index  map[string]int
}

// New builds a catalog from ids. Invalid identifiers are dropped and
// duplicates collapsed; the result is sorted lexicographically.
func New(ids []string) *Catalog {
	seen := make(map[string]struct{}, len(ids))
	clean := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := Normalize(raw)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	slices.Sort(clean)

	c := &Catalog{
		ids:    clean,
		folded: make([]string, len(clean)),
		index:  make(map[string]int, len(clean)),
	}
	for i, id := range clean {
		c.folded[i] = fold(id)
		c.index[id] = i
	}
	return c
}

// Load reads all identifiers from l and builds a catalog.
func Load(ctx context.Context, l Lister) (*Catalog, error) {
	ids, err := l.List(ctx)
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeIndexUnavailable, err, "load index")
	}
	return New(ids), nil
}

// Query returns the identifiers matching term. An exact identifier match
// short-circuits the substring search. An empty term matches nothing.
func (c *Catalog) Query(term string) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	if id, err := Normalize(term); err == nil {
		if _, ok := c.index[id]; ok {
			return []string{id}
		}
	}

	needle := fold(term)
	var out []string
	for i, f := range c.folded {
		if strings.Contains(f, needle) {
			out = append(out, c.ids[i])
		}
	}
	return out
}

// Contains reports whether id is an exact identifier in the catalog.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Len returns the number of identifiers.
func (c *Catalog) Len() int { return len(c.ids) }

// All returns a copy of every identifier in catalog order.
func (c *Catalog) All() []string { return slices.Clone(c.ids) }

// fold applies Unicode case folding. A fresh Caser is used per call because
// Casers keep internal state and are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Normalize converts p into a canonical identifier: slash-separated, cleaned,
// relative and inside the namespace root.
func Normalize(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New(errors.ErrCodeInvalidPath, "empty identifier")
	}
	if strings.HasPrefix(p, "/") {
		return "", errors.New(errors.ErrCodeInvalidPath, "identifier must be relative: %q", p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New(errors.ErrCodeInvalidPath, "identifier escapes the index root: %q", p)
	}
	if err := errors.ValidatePath(cleaned); err != nil {
		return "", err
	}
	return cleaned, nil
}
