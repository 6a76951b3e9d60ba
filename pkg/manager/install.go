package manager

import (
	"context"
	"fmt"
	"os"

	"github.com/matzehuels/dtsm/pkg/deps"
	"github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/fetch"
	"github.com/matzehuels/dtsm/pkg/manifest"
	"github.com/matzehuels/dtsm/pkg/refs"
	"github.com/matzehuels/dtsm/pkg/resolve"
)

// Install resolves terms, installs each resolved file with everything it
// references, and, with opts.Save, records them in the manifest.
//
// Every term gets an entry in Result.Terms. A term succeeds when it
// resolved to exactly one identifier and that file was installed; failures
// of files it references are reported in Result.Dependencies only.
func (m *Manager) Install(ctx context.Context, opts InstallOptions, terms ...string) (*Result, error) {
	c, err := m.Catalog()
	if err != nil {
		return nil, err
	}
	mf, err := m.loadManifest(m.manifestPath, true)
	if err != nil {
		return nil, err
	}

	res := newResult(opts.DryRun)
	var valid []string
	for _, t := range terms {
		if err := errors.ValidateTerm(t); err != nil {
			res.Terms[t] = TermOutcome{Err: err}
			continue
		}
		valid = append(valid, t)
	}

	var roots []string
	rootOf := make(map[string]string)
	for _, r := range resolve.New(c).ResolveAll(valid) {
		if !r.OK() {
			m.logger.Debug("term not resolved", "term", r.Term, "result", r.Kind)
			res.Terms[r.Term] = TermOutcome{Candidates: r.Candidates, Err: r.Err()}
			continue
		}
		rootOf[r.Term] = r.Identifier
		roots = append(roots, r.Identifier)
	}

	if err := m.install(ctx, opts, mf, roots, res); err != nil {
		return nil, err
	}
	for term, id := range rootOf {
		res.Terms[term] = TermOutcome{Identifier: id, Err: res.Dependencies[id].Err}
	}
	return res, m.persist(ctx, opts, mf, res)
}

// InstallFromFile reinstalls every entry recorded in the manifest. The
// outcome's Terms are keyed by identifier.
func (m *Manager) InstallFromFile(ctx context.Context, opts InstallOptions) (*Result, error) {
	mf, err := m.loadManifest(m.manifestPath, false)
	if err != nil {
		return nil, err
	}

	res := newResult(opts.DryRun)
	roots := mf.IDs()
	if err := m.install(ctx, opts, mf, roots, res); err != nil {
		return nil, err
	}
	for _, id := range roots {
		res.Terms[id] = TermOutcome{Identifier: id, Err: res.Dependencies[id].Err}
	}
	return res, m.persist(ctx, opts, mf, res)
}

// install builds the closure of roots and writes the files into mf's
// install directory unless dry-run. res.Dependencies is filled for every
// visited identifier.
func (m *Manager) install(ctx context.Context, opts InstallOptions, mf *manifest.Manifest, roots []string, res *Result) error {
	if len(roots) == 0 {
		return nil
	}
	m.logger.Info("resolving", "roots", len(roots))

	closure, err := m.builder.Build(ctx, roots)
	if err != nil {
		return err
	}

	var files []*fetch.File
	for _, n := range closure.Sorted() {
		res.Dependencies[n.ID] = DepOutcome{Ref: n.Ref, Dependencies: n.Dependencies, Err: n.Err}
		if !n.OK() {
			m.logger.Warn("not installed", "id", n.ID, "err", n.Err)
			continue
		}
		m.logSkippedDirectives(n)
		files = append(files, n.File())
	}

	if !opts.DryRun {
		dir := m.resolve(mf.Path)
		for id, werr := range fetch.Materialize(dir, files, m.workers) {
			o := res.Dependencies[id]
			o.Err = fmt.Errorf("write %s: %w", id, werr)
			res.Dependencies[id] = o
		}
	}

	for _, f := range files {
		if o := res.Dependencies[f.ID]; o.OK() {
			m.logger.Debug("installed", "id", f.ID, "ref", o.Ref, "dry_run", opts.DryRun)
		}
	}
	return nil
}

// persist records the outcome in the manifest and rewrites the bundle when
// the options ask for it. The manifest is re-read under its lock and only
// this run's outcomes are applied, so concurrent installs keep each other's
// entries. A failed identifier whose file is not on disk is removed from the
// manifest and reported in res.Dropped; a failed identifier whose earlier
// copy is still installed keeps its entry.
func (m *Manager) persist(ctx context.Context, opts InstallOptions, mf *manifest.Manifest, res *Result) error {
	if !opts.Save || opts.DryRun {
		return nil
	}
	origin := m.index.Origin()

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	var dropped []string
	saved, err := manifest.Update(ctx, m.manifestPath, func(cur *manifest.Manifest) error {
		if origin.URL != "" {
			cur.AddRepo(manifest.Repo{URL: origin.URL, Ref: origin.Ref})
		}
		for _, id := range res.Installed() {
			o := res.Dependencies[id]
			cur.Set(id, manifest.Entry{Ref: o.Ref, Dependencies: o.Dependencies})
		}
		dir := m.resolve(cur.Path)
		for _, id := range res.FailedDependencies() {
			if cur.Has(id) && !onDisk(dir, id) {
				cur.Remove(id)
				dropped = append(dropped, id)
			}
		}
		return manifest.WriteBundle(m.root, cur)
	})
	if err != nil {
		return err
	}
	for _, id := range dropped {
		m.logger.Warn("dropped from manifest, file not installed", "id", id)
	}
	res.Dropped = dropped
	res.Saved = true
	m.logger.Info("saved manifest", "path", m.manifestPath, "entries", saved.Len())
	return nil
}

func onDisk(dir, id string) bool {
	target, err := fetch.Target(dir, id)
	if err != nil {
		return false
	}
	_, err = os.Stat(target)
	return err == nil
}

func (m *Manager) logSkippedDirectives(n *deps.Node) {
	for _, d := range refs.Directives(n.Content) {
		if _, ok := refs.Resolve(dirOf(n.ID), d); !ok {
			m.logger.Debug("skipped reference", "file", n.ID, "line", d.Line, "path", d.Path)
		}
	}
}
