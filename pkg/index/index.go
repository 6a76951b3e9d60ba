// Package index defines the remote collaborator that declaration files are
// installed from.
//
// An index is a repository of declaration files addressed by identifier
// (a slash-separated path relative to the repository root). Two
// implementations ship with dtsm: [gitindex.Repo], a local git checkout, and
// [github.Client], which reads the GitHub REST and raw content endpoints.
//
// [gitindex.Repo]: github.com/matzehuels/dtsm/pkg/index/gitindex
// [github.Client]: github.com/matzehuels/dtsm/pkg/integrations/github
package index

import (
	"context"
	"errors"
)

// ErrFileNotFound is returned by [Fetcher.FetchFile] when the index has no
// file for the identifier.
var ErrFileNotFound = errors.New("file not found in index")

// Fetcher retrieves the content of one declaration file.
type Fetcher interface {
	FetchFile(ctx context.Context, id string) ([]byte, error)
}

// Referencer reports the revision marker of a file: the value recorded in
// the manifest and compared by the outdated check.
type Referencer interface {
	Ref(ctx context.Context, id string) (string, error)
}

// Lister enumerates every identifier in the index.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Origin names where an index comes from. It is recorded in the manifest's
// repos list.
type Origin struct {
	URL string
	Ref string
}

// Index is a syncable listing of declaration files.
//
// List returns an INDEX_UNAVAILABLE error when the index was never synced.
// Sync is the only operation that talks to the network for listing
// purposes; List and Ref read the local snapshot.
type Index interface {
	Lister
	Referencer
	Sync(ctx context.Context) error
	Origin() Origin
}

// Source is an index that can also serve file contents.
type Source interface {
	Index
	Fetcher
}
