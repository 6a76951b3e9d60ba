// Package deps computes the transitive closure of declaration file
// references.
//
// # Overview
//
// Declaration files reference each other with triple-slash directives. Given
// a set of root identifiers, [Builder.Build] fetches every root, parses its
// references with the refs package, and keeps following newly discovered
// identifiers until the frontier is empty:
//
//	b := deps.NewBuilder(fetch.New(src, src), deps.Options{Workers: 8})
//	closure, err := b.Build(ctx, []string{"atom/atom.d.ts"})
//
// The pass is breadth-first over a worker pool. A visited set guarantees that
// each reachable identifier is fetched exactly once, which is also what makes
// reference cycles terminate.
//
// # Partial failure
//
// A failed fetch does not abort the pass. The failure is recorded on the
// node ([Node.Err]) and the node is not expanded, so files reachable only
// through it are never visited. Callers inspect [Closure.Failed] and decide
// what to persist.
//
// # Options
//
// [Options] bounds the traversal:
//
//   - Workers: concurrent fetches (default 8)
//   - MaxDepth: maximum reference depth (default 50)
//   - MaxNodes: maximum files to visit (default 5000)
//   - Logger: receives warnings when a limit truncates the closure
package deps
