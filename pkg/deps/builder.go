package deps

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/dtsm/pkg/fetch"
	"github.com/matzehuels/dtsm/pkg/observability"
	"github.com/matzehuels/dtsm/pkg/refs"
)

// Builder computes the transitive reference closure of a set of roots.
type Builder struct {
	fetcher Fetcher
	opts    Options
}

// NewBuilder creates a Builder that fetches through fetcher.
func NewBuilder(fetcher Fetcher, opts Options) *Builder {
	return &Builder{fetcher: fetcher, opts: opts.WithDefaults()}
}

// Build fetches roots and everything they transitively reference.
//
// A fetch failure, including one for a root, is recorded on its node and
// the pass continues with the remaining frontier. The only error returned
// is the context's, in which case the partial closure is discarded.
func (b *Builder) Build(ctx context.Context, roots []string) (*Closure, error) {
	hooks := observability.Install()
	hooks.OnClosureStart(ctx, len(roots))
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := &crawler{
		ctx:     runCtx,
		opts:    b.opts,
		fetch:   b.fetcher.Fetch,
		nodes:   make(map[string]*Node),
		visited: make(map[string]bool),
		jobs:    make(chan job, b.opts.Workers*2),
		results: make(chan result, b.opts.Workers*2),
	}
	err := c.run(roots)
	cancel()
	c.wg.Wait()

	if err != nil {
		hooks.OnClosureComplete(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}

	cl := &Closure{Nodes: c.nodes, Roots: dedupe(roots)}
	hooks.OnClosureComplete(ctx, len(cl.Nodes), len(cl.Failed()), time.Since(start), nil)
	return cl, nil
}

type crawler struct {
	ctx   context.Context
	opts  Options
	fetch func(context.Context, string) (*fetch.File, error)

	nodes map[string]*Node

	jobs    chan job
	results chan result
	wg      sync.WaitGroup

	mu        sync.Mutex
	visited   map[string]bool
	pending   int64
	nodeCount int32
	truncated bool
}

type job struct {
	id    string
	depth int
}

type result struct {
	job
	file *fetch.File
	err  error
}

func (c *crawler) run(roots []string) error {
	for range c.opts.Workers {
		c.wg.Add(1)
		go c.worker()
	}

	queued := 0
	for _, r := range roots {
		if c.enqueue(job{id: r}) {
			queued++
		}
	}
	if queued == 0 {
		return nil
	}
	return c.collect()
}

func (c *crawler) worker() {
	defer c.wg.Done()
	for {
		select {
		case j := <-c.jobs:
			f, err := c.fetch(c.ctx, j.id)
			select {
			case c.results <- result{job: j, file: f, err: err}:
			case <-c.ctx.Done():
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *crawler) enqueue(j job) bool {
	c.mu.Lock()
	if c.visited[j.id] {
		c.mu.Unlock()
		return false
	}
	c.visited[j.id] = true
	c.mu.Unlock()

	atomic.AddInt64(&c.pending, 1)

	go func() {
		select {
		case c.jobs <- j:
		case <-c.ctx.Done():
		}
	}()
	return true
}

func (c *crawler) collect() error {
	for {
		select {
		case r := <-c.results:
			c.handle(r)
			if atomic.AddInt64(&c.pending, -1) == 0 {
				return nil
			}
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}

func (c *crawler) handle(r result) {
	n := &Node{ID: r.id, Depth: r.depth}
	c.nodes[r.id] = n

	if r.err != nil {
		n.Err = r.err
		c.opts.Logger.Warn("fetch failed", "id", r.id, "err", r.err)
		return
	}

	n.Content = r.file.Content
	n.Ref = r.file.Ref
	n.Dependencies = refs.Extract(r.id, r.file.Content)
	atomic.AddInt32(&c.nodeCount, 1)

	c.enqueueDeps(n)
}

func (c *crawler) enqueueDeps(n *Node) {
	if len(n.Dependencies) == 0 {
		return
	}
	if n.Depth >= c.opts.MaxDepth {
		c.opts.Logger.Warn("max depth reached, references not followed", "id", n.ID, "depth", n.Depth)
		return
	}

	next := n.Depth + 1
	for _, dep := range n.Dependencies {
		if int(atomic.LoadInt32(&c.nodeCount))+int(atomic.LoadInt64(&c.pending)) >= c.opts.MaxNodes {
			if !c.truncated {
				c.truncated = true
				c.opts.Logger.Warn("max nodes reached, closure truncated", "limit", c.opts.MaxNodes)
			}
			return
		}
		if c.enqueue(job{id: dep, depth: next}) {
			c.opts.Logger.Debug("reference", "from", n.ID, "to", dep)
		}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
