// Package fetch retrieves declaration files from an index and writes them
// to disk.
//
// [Orchestrator.Fetch] calls the remote collaborator exactly once per
// request and never retries; transport-level retries belong to the
// collaborator. Every failure is reported as an [errors.FetchError] naming
// the identifier so batch callers can attribute it.
package fetch

import (
	"context"
	"time"

	"github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/index"
	"github.com/matzehuels/dtsm/pkg/observability"
)

// File is a fetched declaration file.
type File struct {
	ID      string
	Content []byte
	Ref     string // revision marker, empty if the index has no ref source
}

// Orchestrator fetches files by identifier. It holds no per-request state
// and is safe for concurrent use.
type Orchestrator struct {
	fetcher index.Fetcher
	refs    index.Referencer
}

// New creates an Orchestrator. refs may be nil, in which case fetched files
// carry an empty ref.
func New(fetcher index.Fetcher, refs index.Referencer) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, refs: refs}
}

// Fetch retrieves the content and ref of id.
func (o *Orchestrator) Fetch(ctx context.Context, id string) (*File, error) {
	hooks := observability.Fetch()
	hooks.OnFetchStart(ctx, id)
	start := time.Now()

	f, err := o.fetch(ctx, id)

	size := 0
	if f != nil {
		size = len(f.Content)
	}
	hooks.OnFetchComplete(ctx, id, size, time.Since(start), err)
	return f, err
}

func (o *Orchestrator) fetch(ctx context.Context, id string) (*File, error) {
	data, err := o.fetcher.FetchFile(ctx, id)
	if err != nil {
		return nil, &errors.FetchError{Identifier: id, Cause: err}
	}

	f := &File{ID: id, Content: data}
	if o.refs != nil {
		ref, err := o.refs.Ref(ctx, id)
		if err != nil {
			return nil, &errors.FetchError{Identifier: id, Cause: err}
		}
		f.Ref = ref
	}
	return f, nil
}
