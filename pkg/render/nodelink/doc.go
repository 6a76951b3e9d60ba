// Package nodelink renders the installed dependency tree as a node-link
// diagram.
//
// # Usage
//
// Convert a manifest to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(m, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Each manifest entry becomes a box; each recorded dependency becomes an
// edge from the referencing file to the referenced one. Dependencies that
// are referenced but not installed (because their fetch failed) are drawn
// dashed so they stand out.
//
// The DOT source can also be written out and processed with external
// Graphviz tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is required.
package nodelink
