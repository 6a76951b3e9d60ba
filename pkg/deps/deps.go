package deps

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dtsm/pkg/fetch"
)

const (
	DefaultMaxDepth = 50   // Default maximum reference depth
	DefaultMaxNodes = 5000 // Default maximum files to fetch
	DefaultWorkers  = 8    // Default concurrent fetches
)

// Options configures a closure pass.
type Options struct {
	Workers  int         // Concurrent fetches (default: 8)
	MaxDepth int         // Maximum depth to traverse (default: 50)
	MaxNodes int         // Maximum files to fetch (default: 5000)
	Logger   *log.Logger // Progress and skip messages (default: log.Default())
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Fetcher retrieves one declaration file. *fetch.Orchestrator implements it.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*fetch.File, error)
}

// Node is one identifier visited during a closure pass.
type Node struct {
	ID           string
	Content      []byte
	Ref          string
	Dependencies []string // references declared by the file, sorted
	Err          error    // fetch failure; a failed node is never expanded
	Depth        int      // distance from the nearest root
}

// OK reports whether the node was fetched.
func (n *Node) OK() bool { return n.Err == nil }

// File returns the fetched file of a successful node.
func (n *Node) File() *fetch.File {
	return &fetch.File{ID: n.ID, Content: n.Content, Ref: n.Ref}
}

// Closure is the result of one pass: every identifier reachable from the
// roots, visited exactly once.
type Closure struct {
	Nodes map[string]*Node
	Roots []string
}

// Node returns the node for id.
func (c *Closure) Node(id string) (*Node, bool) {
	n, ok := c.Nodes[id]
	return n, ok
}

// Sorted returns every node ordered by identifier.
func (c *Closure) Sorted() []*Node {
	return c.filter(func(*Node) bool { return true })
}

// Succeeded returns the fetched nodes ordered by identifier.
func (c *Closure) Succeeded() []*Node {
	return c.filter((*Node).OK)
}

// Failed returns the nodes whose fetch failed, ordered by identifier.
func (c *Closure) Failed() []*Node {
	return c.filter(func(n *Node) bool { return !n.OK() })
}

func (c *Closure) filter(keep func(*Node) bool) []*Node {
	out := make([]*Node, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b *Node) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Reachable returns root and every visited identifier reachable from it
// through successfully fetched nodes, sorted. Failed nodes are included but
// not expanded.
func (c *Closure) Reachable(root string) []string {
	if _, ok := c.Nodes[root]; !ok {
		return nil
	}
	seen := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := c.Nodes[id]
		if !n.OK() {
			continue
		}
		for _, dep := range n.Dependencies {
			if seen[dep] {
				continue
			}
			if _, ok := c.Nodes[dep]; !ok {
				continue
			}
			seen[dep] = true
			queue = append(queue, dep)
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
