// Package nodelink renders diagrams as traditional node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// nodes appear as boxes connected by arrows.
//
// # Usage
//
// Convert a [render.Diagram] to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(d, nodelink.Options{Cluster: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include all metadata (file, line, kind, ...)
//   - Cluster: nodes sharing a file or module path are drawn in one box
//
// # Styling
//
// Nodes and edges on a highlighted cycle are drawn in red. Conditional calls
// and type-only imports are dashed. Nodes added by a cycle resolution, such
// as an extracted interface, have a dashed grey outline.
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) with rounded
// box nodes.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. No external Graphviz installation is needed.
//
// [render.Diagram]: github.com/matzehuels/graphscope/pkg/render.Diagram
package nodelink
