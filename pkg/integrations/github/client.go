package github

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/dtsm/pkg/cache"
	"github.com/matzehuels/dtsm/pkg/catalog"
	"github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/index"
	"github.com/matzehuels/dtsm/pkg/integrations"
)

const (
	defaultAPIURL  = "https://api.github.com"
	defaultRawURL  = "https://raw.githubusercontent.com"
	defaultInclude = "**/*.d.ts"
)

// Options configures a Client.
type Options struct {
	Token   string        // optional; raises the API rate limit
	Cache   cache.Cache   // default: NullCache
	Keyer   cache.Keyer   // default: cache.NewDefaultKeyer()
	TTL     time.Duration // lifetime of cached file contents (default: cache.TTLContent)
	Include string        // doublestar pattern for listed files (default: **/*.d.ts)
	Logger  *log.Logger   // default: log.Default()

	APIURL string // override for tests and GitHub Enterprise
	RawURL string
}

// Client serves an index straight from GitHub: the recursive tree listing
// backs the catalog and raw.githubusercontent.com serves file contents.
// Refs are blob SHAs, so a file is outdated exactly when its content
// changed upstream.
type Client struct {
	*integrations.Client
	owner, repo, ref string
	apiURL, rawURL   string
	include          string
	ttl              time.Duration
	keyer            cache.Keyer
	logger           *log.Logger

	mu   sync.Mutex
	snap *Snapshot
}

var _ index.Source = (*Client)(nil)

// NewClient creates a Client for repoURL at ref. An empty ref means HEAD.
func NewClient(repoURL, ref string, opts Options) (*Client, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "github index")
	}
	if ref == "" {
		ref = "HEAD"
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Include == "" {
		opts.Include = defaultInclude
	}
	if opts.TTL <= 0 {
		opts.TTL = cache.TTLContent
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.APIURL == "" {
		opts.APIURL = defaultAPIURL
	}
	if opts.RawURL == "" {
		opts.RawURL = defaultRawURL
	}

	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if opts.Token != "" {
		headers["Authorization"] = "Bearer " + opts.Token
	}

	return &Client{
		Client:  integrations.NewClient(opts.Cache, headers),
		owner:   owner,
		repo:    repo,
		ref:     ref,
		apiURL:  strings.TrimSuffix(opts.APIURL, "/"),
		rawURL:  strings.TrimSuffix(opts.RawURL, "/"),
		include: opts.Include,
		ttl:     opts.TTL,
		keyer:   opts.Keyer,
		logger:  opts.Logger,
	}, nil
}

// Origin returns the canonical repository URL and ref.
func (c *Client) Origin() index.Origin {
	return index.Origin{URL: c.repoURL(), Ref: c.ref}
}

func (c *Client) repoURL() string {
	return fmt.Sprintf("https://github.com/%s/%s.git", c.owner, c.repo)
}

// Sync resolves the ref to a commit, downloads that commit's tree listing
// and replaces the cached snapshot.
func (c *Client) Sync(ctx context.Context) error {
	var commit commitResponse
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.apiURL, c.owner, c.repo, url.PathEscape(c.ref))
	if err := c.getAPI(ctx, endpoint, &commit); err != nil {
		return err
	}
	if commit.SHA == "" {
		return errors.New(errors.ErrCodeNetwork, "no commit for %s/%s at %s", c.owner, c.repo, c.ref)
	}

	var tr treeResponse
	endpoint = fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.apiURL, c.owner, c.repo, commit.SHA)
	if err := c.getAPI(ctx, endpoint, &tr); err != nil {
		return err
	}

	snap := &Snapshot{
		Commit:    commit.SHA,
		Tree:      tr.SHA,
		Ref:       c.ref,
		Blobs:     make(map[string]string, len(tr.Tree)),
		Truncated: tr.Truncated,
		FetchedAt: time.Now().UTC(),
	}
	for _, e := range tr.Tree {
		if e.Type == "blob" {
			snap.Blobs[e.Path] = e.SHA
		}
	}
	if tr.Truncated {
		c.logger.Warn("tree listing truncated by GitHub, catalog is incomplete", "repo", c.owner+"/"+c.repo)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.Cache().Set(ctx, c.treeKey(), data, cache.TTLTree); err != nil {
		c.logger.Warn("cannot cache tree snapshot", "err", err)
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	c.logger.Debug("index snapshot", "commit", commit.SHA, "files", len(snap.Blobs))
	return nil
}

func (c *Client) getAPI(ctx context.Context, endpoint string, v any) error {
	err := cache.RetryWithBackoff(ctx, func() error {
		return c.Get(ctx, endpoint, v)
	})
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, integrations.ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, "repository %s/%s at %s", c.owner, c.repo, c.ref)
	default:
		return errors.Wrap(errors.ErrCodeNetwork, err, "list %s/%s", c.owner, c.repo)
	}
}

// List returns every blob path in the snapshot that matches the include pattern.
func (c *Client) List(ctx context.Context) ([]string, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(snap.Blobs))
	for p := range snap.Blobs {
		if ok, _ := doublestar.Match(c.include, p); ok {
			ids = append(ids, p)
		}
	}
	return ids, nil
}

// Ref returns the blob SHA of id.
func (c *Client) Ref(ctx context.Context, id string) (string, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return "", err
	}
	sha, ok := snap.Blobs[id]
	if !ok {
		return "", index.ErrFileNotFound
	}
	return sha, nil
}

// FetchFile returns the content of id at the snapshot's commit. Contents
// are cached by blob SHA.
func (c *Client) FetchFile(ctx context.Context, id string) ([]byte, error) {
	id, err := catalog.Normalize(id)
	if err != nil {
		return nil, err
	}
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sha, ok := snap.Blobs[id]
	if !ok {
		return nil, index.ErrFileNotFound
	}
	if snap.Commit == "" {
		return nil, errors.New(errors.ErrCodeIndexUnavailable, "cached index predates commit pinning (run: dtsm fetch)")
	}

	endpoint := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawURL, c.owner, c.repo, snap.Commit, escapePath(id))
	data, err := c.Cached(ctx, c.keyer.ContentKey(c.repoURL(), sha), c.ttl, false, func() ([]byte, error) {
		return c.GetBytes(ctx, endpoint, nil)
	})
	if stderrors.Is(err, integrations.ErrNotFound) {
		return nil, index.ErrFileNotFound
	}
	return data, err
}

func (c *Client) treeKey() string {
	return c.keyer.TreeKey(c.repoURL(), c.ref)
}

// snapshot returns the in-memory snapshot, loading it from the cache on
// first use.
func (c *Client) snapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil {
		return c.snap, nil
	}

	data, ok, err := c.Cache().Get(ctx, c.treeKey())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexUnavailable, err, "read cached index")
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeIndexUnavailable, "index not fetched yet (run: dtsm fetch)")
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexUnavailable, err, "cached index is corrupt (run: dtsm fetch)")
	}
	c.snap = &snap
	return c.snap, nil
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
