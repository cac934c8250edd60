// Package render turns analysis graphs into a renderer-agnostic diagram.
//
// # Overview
//
// [Build] converts a [graph.Graph] into a [Diagram]: nodes with labels and
// groups, edges with highlight and style flags. Backends consume the diagram:
//
//   - [nodelink]: Graphviz DOT text and SVG via go-graphviz
//   - [tree]: an indented terminal tree via lipgloss
//   - JSON: the diagram itself, for web front ends
//
// Cycles can be highlighted by passing them in [Options.Highlight]:
//
//	found := cycles.Detect(g)
//	d, err := render.Build(g, render.Options{Highlight: found})
//	svg, err := nodelink.RenderSVG(nodelink.ToDOT(d, nodelink.Options{}))
//
// # Transitive Reduction
//
// Dense dependency graphs are hard to read. With [Options.Reduce] every edge
// u→v that is implied by a longer path u→…→v is dropped before building the
// diagram. Reduction is only defined for acyclic graphs, so on a cyclic graph
// the back edges of a depth-first search ([cycles.BreakCycles]) are set aside
// first and drawn afterwards with [Edge.Back] set.
//
// [nodelink]: github.com/matzehuels/graphscope/pkg/render/nodelink
// [tree]: github.com/matzehuels/graphscope/pkg/render/tree
package render
