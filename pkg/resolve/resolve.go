// Package resolve turns human-supplied search terms into exact identifiers.
//
// Resolution never guesses: a term must match exactly one catalog entry to
// be usable. The outcome is a tagged [Result] rather than an error so that
// batch callers can collect every term's outcome and continue.
package resolve

import (
	"slices"

	"github.com/matzehuels/dtsm/pkg/errors"
)

// Kind tags the outcome of resolving one term.
type Kind int

const (
	// NotFound means no identifier matched the term.
	NotFound Kind = iota
	// Found means exactly one identifier matched.
	Found
	// Ambiguous means more than one identifier matched.
	Ambiguous
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not found"
	}
}

// Querier answers catalog queries. *catalog.Catalog implements it.
type Querier interface {
	Query(term string) []string
}

// Result is the outcome of resolving one term.
type Result struct {
	Term       string
	Kind       Kind
	Identifier string   // set when Kind == Found
	Candidates []string // set when Kind == Ambiguous
}

// OK reports whether the term resolved to exactly one identifier.
func (r Result) OK() bool { return r.Kind == Found }

// Err converts an unsuccessful result into its coded error.
// It returns nil for Found.
func (r Result) Err() error {
	switch r.Kind {
	case Found:
		return nil
	case Ambiguous:
		return &errors.AmbiguousError{Term: r.Term, Candidates: slices.Clone(r.Candidates)}
	default:
		return errors.New(errors.ErrCodeNotFound, "no declaration file matches %q", r.Term)
	}
}

// Resolver applies the exactly-one-match rule on top of a Querier.
type Resolver struct {
	q Querier
}

// New creates a Resolver over q.
func New(q Querier) *Resolver {
	return &Resolver{q: q}
}

// Resolve resolves a single term.
func (r *Resolver) Resolve(term string) Result {
	matches := r.q.Query(term)
	switch len(matches) {
	case 0:
		return Result{Term: term, Kind: NotFound}
	case 1:
		return Result{Term: term, Kind: Found, Identifier: matches[0]}
	default:
		return Result{Term: term, Kind: Ambiguous, Candidates: matches}
	}
}

// ResolveAll resolves every term in input order. Repeated terms are
// resolved once.
func (r *Resolver) ResolveAll(terms []string) []Result {
	seen := make(map[string]struct{}, len(terms))
	out := make([]Result, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, r.Resolve(t))
	}
	return out
}
