// Package gitindex serves an index from a local git checkout.
//
// The checkout lives under the dtsm cache directory and is created by the
// first [Repo.Sync] (git clone) and updated by later ones (git fetch
// followed by a hard reset). Listing walks the working tree; refs are the
// hash of the last commit that touched a file, which is what the outdated
// check compares.
package gitindex

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/dtsm/pkg/catalog"
	"github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/index"
)

// DefaultInclude selects declaration files anywhere in the repository.
const DefaultInclude = "**/*.d.ts"

// Options configures a Repo.
type Options struct {
	Include string      // doublestar pattern for listed files (default: **/*.d.ts)
	Logger  *log.Logger // default: log.Default()
}

// Repo is a git checkout of an index repository.
type Repo struct {
	url     string
	ref     string
	dir     string
	include string
	logger  *log.Logger
}

var _ index.Source = (*Repo)(nil)

// New creates a Repo that clones url at ref into dir. An empty ref tracks
// the remote's default branch.
func New(url, ref, dir string, opts Options) *Repo {
	if opts.Include == "" {
		opts.Include = DefaultInclude
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Repo{url: url, ref: ref, dir: dir, include: opts.Include, logger: opts.Logger}
}

// Dir returns the checkout directory.
func (r *Repo) Dir() string { return r.dir }

// Origin returns the repository URL and ref.
func (r *Repo) Origin() index.Origin {
	return index.Origin{URL: r.url, Ref: r.ref}
}

// Synced reports whether the checkout exists.
func (r *Repo) Synced() bool {
	info, err := os.Stat(filepath.Join(r.dir, ".git"))
	return err == nil && info.IsDir()
}

// Sync clones the repository or brings an existing checkout up to date.
func (r *Repo) Sync(ctx context.Context) error {
	if !r.Synced() {
		if err := os.MkdirAll(filepath.Dir(r.dir), 0o755); err != nil {
			return fmt.Errorf("create index directory: %w", err)
		}
		args := []string{"clone", "--quiet"}
		if r.ref != "" {
			args = append(args, "--branch", r.ref)
		}
		args = append(args, r.url, r.dir)
		r.logger.Info("cloning index", "url", r.url, "ref", r.ref)
		if _, err := git(ctx, "", args...); err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "clone %s", r.url)
		}
		return nil
	}

	ref := r.ref
	if ref == "" {
		ref = "HEAD"
	}
	r.logger.Info("updating index", "dir", r.dir, "ref", ref)
	if _, err := git(ctx, r.dir, "fetch", "--quiet", "origin", ref); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", r.url)
	}
	if _, err := git(ctx, r.dir, "reset", "--quiet", "--hard", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("reset index checkout: %w", err)
	}
	return nil
}

// List returns every file in the working tree matching the include pattern.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	if !r.Synced() {
		return nil, errors.New(errors.ErrCodeIndexUnavailable, "index not fetched yet (run: dtsm fetch)")
	}

	var ids []string
	err := filepath.WalkDir(r.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(r.dir, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(r.include, rel); ok {
			ids = append(ids, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}
	return ids, nil
}

// Ref returns the hash of the last commit that touched id.
func (r *Repo) Ref(ctx context.Context, id string) (string, error) {
	id, err := catalog.Normalize(id)
	if err != nil {
		return "", err
	}
	out, err := git(ctx, r.dir, "log", "-1", "--format=%H", "--", id)
	if err != nil {
		return "", err
	}
	ref := strings.TrimSpace(string(out))
	if ref == "" {
		return "", index.ErrFileNotFound
	}
	return ref, nil
}

// FetchFile returns the committed content of id at HEAD.
func (r *Repo) FetchFile(ctx context.Context, id string) ([]byte, error) {
	id, err := catalog.Normalize(id)
	if err != nil {
		return nil, err
	}
	if !r.Synced() {
		return nil, errors.New(errors.ErrCodeIndexUnavailable, "index not fetched yet (run: dtsm fetch)")
	}
	if _, err := os.Stat(filepath.Join(r.dir, filepath.FromSlash(id))); err != nil {
		if os.IsNotExist(err) {
			return nil, index.ErrFileNotFound
		}
		return nil, err
	}
	return git(ctx, r.dir, "show", "HEAD:"+id)
}

// git runs a git command in dir (or the current directory when dir is
// empty) and returns its stdout.
func git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("git %s: %w", args[0], err)
		}
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}
	return stdout.Bytes(), nil
}
