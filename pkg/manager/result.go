package manager

import (
	"maps"
	"slices"
)

// TermOutcome is the outcome of one requested term.
type TermOutcome struct {
	Identifier string   // the resolved identifier, if any
	Candidates []string // all matches when the term was ambiguous
	Err        error
}

// OK reports whether the term resolved and its file was installed.
func (o TermOutcome) OK() bool { return o.Err == nil }

// DepOutcome is the outcome of one identifier visited during installation.
type DepOutcome struct {
	Ref          string
	Dependencies []string
	Err          error
}

// OK reports whether the file was fetched (and written, unless dry-run).
func (o DepOutcome) OK() bool { return o.Err == nil }

// Result reports every term and every visited identifier of an install.
type Result struct {
	Terms        map[string]TermOutcome
	Dependencies map[string]DepOutcome
	DryRun       bool
	Saved        bool // whether the manifest was written

	// Dropped lists manifest entries removed on save because they failed
	// and their file is not on disk, sorted.
	Dropped []string
}

func newResult(dryRun bool) *Result {
	return &Result{
		Terms:        make(map[string]TermOutcome),
		Dependencies: make(map[string]DepOutcome),
		DryRun:       dryRun,
	}
}

// Failed reports whether any term or identifier failed.
func (r *Result) Failed() bool {
	return len(r.FailedTerms()) > 0 || len(r.FailedDependencies()) > 0
}

// FailedTerms returns the terms that failed, sorted.
func (r *Result) FailedTerms() []string {
	var out []string
	for t, o := range r.Terms {
		if !o.OK() {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// FailedDependencies returns the identifiers that failed, sorted.
func (r *Result) FailedDependencies() []string {
	var out []string
	for id, o := range r.Dependencies {
		if !o.OK() {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Installed returns the identifiers that succeeded, sorted.
func (r *Result) Installed() []string {
	var out []string
	for id, o := range r.Dependencies {
		if o.OK() {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// SortedTerms returns every term, sorted.
func (r *Result) SortedTerms() []string {
	return slices.Sorted(maps.Keys(r.Terms))
}
