package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dtsm/pkg/manifest"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the recorded ref to each node label.
	// When false, only the identifier is shown.
	Detailed bool
}

const refWidth = 8

// ToDOT converts a manifest to Graphviz DOT format.
// The output is deterministic: nodes and edges are emitted in identifier order.
func ToDOT(m *manifest.Manifest, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	ids := m.IDs()
	for _, id := range ids {
		label := fmtLabel(id, m.Dependencies[id], opts.Detailed)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", id, label)
	}
	for _, id := range missing(m) {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n", id, id)
	}

	buf.WriteString("\n")
	for _, id := range ids {
		for _, dep := range m.Dependencies[id].Dependencies {
			fmt.Fprintf(&buf, "  %q -> %q;\n", id, dep)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(id string, e manifest.Entry, detailed bool) string {
	if !detailed || e.Ref == "" {
		return id
	}
	ref := e.Ref
	if len(ref) > refWidth {
		ref = ref[:refWidth]
	}
	return id + "\n" + ref
}

// missing returns referenced identifiers with no entry of their own.
func missing(m *manifest.Manifest) []string {
	var out []string
	for _, e := range m.Dependencies {
		for _, dep := range e.Dependencies {
			if !m.Has(dep) {
				out = append(out, dep)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales with its
// container instead of using Graphviz's point-based size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Format names an output format of the graph command.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want dot or svg)", s)
	}
}

// Render produces the manifest graph in the given format.
func Render(ctx context.Context, m *manifest.Manifest, f Format, opts Options) ([]byte, error) {
	dot := ToDOT(m, opts)
	switch f {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}
