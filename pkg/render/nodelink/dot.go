package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphscope/pkg/render"
)

const highlightColor = "#d62728"

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes node metadata in labels.
	// When false, only the node ID is shown.
	Detailed bool
	// Cluster groups nodes of the same file or module path into subgraphs.
	Cluster bool
}

// ToDOT converts a diagram to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Highlighted nodes and edges are drawn in red. Dashed edges mark
// conditional calls and type-only imports. Synthetic nodes introduced by a
// cycle resolution get dashed outlines and grey fill.
func ToDOT(d render.Diagram, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if d.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", d.Title)
	}
	buf.WriteString("\n")

	if opts.Cluster {
		writeClusters(&buf, d.Nodes, opts.Detailed)
	} else {
		for _, n := range d.Nodes {
			writeNode(&buf, "  ", n, opts.Detailed)
		}
	}

	buf.WriteString("\n")
	for _, e := range d.Edges {
		if attrs := fmtEdgeAttrs(e); len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeClusters(buf *bytes.Buffer, nodes []render.Node, detailed bool) {
	groups := make(map[string][]render.Node)
	for _, n := range nodes {
		groups[n.Group] = append(groups[n.Group], n)
	}
	for _, n := range groups[""] {
		writeNode(buf, "  ", n, detailed)
	}
	for i, name := range slices.Sorted(maps.Keys(groups)) {
		if name == "" {
			continue
		}
		fmt.Fprintf(buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(buf, "    label=%q;\n    style=\"rounded,dashed\";\n    color=grey;\n", name)
		for _, n := range groups[name] {
			writeNode(buf, "    ", n, detailed)
		}
		buf.WriteString("  }\n")
	}
}

func writeNode(buf *bytes.Buffer, indent string, n render.Node, detailed bool) {
	attrs := fmtAttrs(n, fmtLabel(n, detailed))
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(attrs, ", "))
}

func fmtLabel(n render.Node, detailed bool) string {
	if !detailed || len(n.Meta) == 0 {
		return n.Label
	}

	parts := make([]string, 0, len(n.Meta))
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}

	return n.Label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n render.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Synthetic {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	if n.Highlight {
		attrs = append(attrs, fmt.Sprintf("color=%q", highlightColor), "penwidth=2")
	}
	return attrs
}

func fmtEdgeAttrs(e render.Edge) []string {
	var attrs []string
	switch {
	case e.Back:
		attrs = append(attrs, "style=dotted", "constraint=false")
	case e.Dashed:
		attrs = append(attrs, "style=dashed")
	}
	if e.Highlight {
		attrs = append(attrs, fmt.Sprintf("color=%q", highlightColor), "penwidth=2")
	}
	return attrs
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
