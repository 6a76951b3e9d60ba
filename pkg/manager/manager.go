package manager

import (
	"context"
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/dtsm/pkg/catalog"
	"github.com/matzehuels/dtsm/pkg/deps"
	"github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/fetch"
	"github.com/matzehuels/dtsm/pkg/index"
	"github.com/matzehuels/dtsm/pkg/manifest"
)

// Options configures a Manager session.
type Options struct {
	ConfigPath string        // manifest file (default: dtsm.json)
	Root       string        // directory the manifest's path and bundle are relative to (default: ".")
	Index      index.Index   // required
	Fetcher    index.Fetcher // default: Index, if it implements index.Fetcher
	Logger     *log.Logger   // default: log.Default()
	Workers    int           // concurrent fetches and writes (default: 8)
	MaxDepth   int           // reference depth limit (default: 50)
	MaxNodes   int           // visited file limit (default: 5000)
}

// InstallOptions controls persistence of an install.
type InstallOptions struct {
	Save   bool // record installed files in the manifest
	DryRun bool // resolve and fetch only; write nothing
}

// UninstallOptions controls an uninstall.
type UninstallOptions struct {
	Path string // manifest file (default: the session's ConfigPath)
	Save bool   // remove the entry from the manifest
}

// Manager is one dtsm session bound to a manifest and an index.
// Its methods are safe for concurrent use.
type Manager struct {
	manifestPath string
	root         string
	index        index.Index
	orch         *fetch.Orchestrator
	builder      *deps.Builder
	workers      int
	logger       *log.Logger
	session      string

	mu         sync.RWMutex
	catalog    *catalog.Catalog
	catalogErr error

	saveMu sync.Mutex // serializes manifest updates within the process
}

// New creates a session. The catalog is loaded from opts.Index; an index
// that was never fetched is not an error here, but operations that need the
// catalog will report INDEX_UNAVAILABLE until [Manager.Fetch] succeeds.
func New(ctx context.Context, opts Options) (*Manager, error) {
	if opts.Index == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "manager requires an index")
	}
	if opts.Fetcher == nil {
		f, ok := opts.Index.(index.Fetcher)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "index cannot serve files and no fetcher was given")
		}
		opts.Fetcher = f
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = manifest.DefaultFile
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Workers <= 0 {
		opts.Workers = deps.DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	session := uuid.NewString()
	logger := opts.Logger.With("session", session[:8])
	orch := fetch.New(opts.Fetcher, opts.Index)

	m := &Manager{
		manifestPath: opts.ConfigPath,
		root:         opts.Root,
		index:        opts.Index,
		orch:         orch,
		builder: deps.NewBuilder(orch, deps.Options{
			Workers:  opts.Workers,
			MaxDepth: opts.MaxDepth,
			MaxNodes: opts.MaxNodes,
			Logger:   logger,
		}),
		workers: opts.Workers,
		logger:  logger,
		session: session,
	}
	m.loadCatalog(ctx)
	return m, nil
}

// Session returns the session ID attached to every log line.
func (m *Manager) Session() string { return m.session }

// ManifestPath returns the manifest file the session is bound to.
func (m *Manager) ManifestPath() string { return m.manifestPath }

// Root returns the directory manifest paths are resolved against.
func (m *Manager) Root() string { return m.root }

// Catalog returns the session catalog, or the INDEX_UNAVAILABLE error
// explaining why there is none.
func (m *Manager) Catalog() (*catalog.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.catalog == nil {
		if m.catalogErr != nil {
			return nil, m.catalogErr
		}
		return nil, errors.New(errors.ErrCodeIndexUnavailable, "index not loaded")
	}
	return m.catalog, nil
}

func (m *Manager) loadCatalog(ctx context.Context) {
	c, err := catalog.Load(ctx, m.index)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.logger.Debug("catalog unavailable", "err", err)
		m.catalog, m.catalogErr = nil, err
		return
	}
	m.logger.Debug("catalog loaded", "files", c.Len())
	m.catalog, m.catalogErr = c, nil
}

// Fetch syncs the index and rebuilds the catalog.
func (m *Manager) Fetch(ctx context.Context) error {
	origin := m.index.Origin()
	m.logger.Info("fetching index", "url", origin.URL, "ref", origin.Ref)
	if err := m.index.Sync(ctx); err != nil {
		return err
	}
	m.loadCatalog(ctx)
	_, err := m.Catalog()
	return err
}

// Search returns every identifier matching term, without the single-match
// rule that install applies.
func (m *Manager) Search(ctx context.Context, term string) ([]string, error) {
	if err := errors.ValidateTerm(term); err != nil {
		return nil, err
	}
	c, err := m.Catalog()
	if err != nil {
		return nil, err
	}
	return c.Query(term), nil
}

// Init creates an empty manifest at path (default: the session's manifest).
func (m *Manager) Init(ctx context.Context, path string, overwrite bool) (*manifest.Manifest, error) {
	if path == "" {
		path = m.manifestPath
	}
	if manifest.Exists(path) && !overwrite {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "%s already exists", path)
	}
	mf := manifest.New()
	origin := m.index.Origin()
	if origin.URL != "" {
		mf.AddRepo(manifest.Repo{URL: origin.URL, Ref: origin.Ref})
	}
	if err := manifest.Save(ctx, path, mf); err != nil {
		return nil, err
	}
	m.logger.Info("created manifest", "path", path)
	return mf, nil
}

// Manifest loads the session's manifest. A missing manifest is NOT_FOUND.
func (m *Manager) Manifest(ctx context.Context) (*manifest.Manifest, error) {
	return m.loadManifest(m.manifestPath, false)
}

// loadManifest reads path. When allowMissing is set, a missing file yields
// a fresh manifest.
func (m *Manager) loadManifest(path string, allowMissing bool) (*manifest.Manifest, error) {
	mf, err := manifest.Load(path)
	if err == nil {
		return mf, nil
	}
	if stderrors.Is(err, fs.ErrNotExist) {
		if allowMissing {
			return manifest.New(), nil
		}
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no manifest at %s (run: dtsm init)", path)
	}
	return nil, err
}

// resolve makes a manifest-relative path absolute against the session root.
func (m *Manager) resolve(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.root, p)
}
