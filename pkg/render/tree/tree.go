// Package tree renders diagrams as indented terminal trees.
//
// Each root is expanded depth-first along outgoing edges. A node already on
// the current path is printed with a cycle marker and not expanded again. A
// node expanded earlier in the output is printed once more with a reference
// marker, which keeps the output linear in the size of the diagram.
package tree

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/matzehuels/graphscope/pkg/render"
)

// Markers appended to repeated nodes.
const (
	CycleMarker = " ↺"
	SeenMarker  = " ↑"
	DepthMarker = " …"
)

// Options configures [Render].
type Options struct {
	// Roots to expand. Defaults to [render.Diagram.Roots]; when the diagram
	// has none (every node is on a cycle) the first node is used.
	Roots []string
	// MaxDepth limits expansion. Zero means unlimited.
	MaxDepth int
	// Color draws highlighted nodes in red and synthetic nodes in grey.
	Color bool
}

var (
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	syntheticStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	enumStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Render returns the diagram as one tree per root, separated by blank lines.
func Render(d render.Diagram, opts Options) string {
	roots := opts.Roots
	if len(roots) == 0 {
		roots = d.Roots()
	}
	if len(roots) == 0 && len(d.Nodes) > 0 {
		roots = []string{d.Nodes[0].ID}
	}

	w := &walker{
		opts:  opts,
		adj:   d.Successors(),
		nodes: make(map[string]render.Node, len(d.Nodes)),
		seen:  make(map[string]bool),
		path:  make(map[string]bool),
	}
	for _, n := range d.Nodes {
		w.nodes[n.ID] = n
	}

	parts := make([]string, 0, len(roots))
	for _, r := range roots {
		t := w.expand(r, 0)
		parts = append(parts, t.String())
	}
	return strings.Join(parts, "\n\n") + "\n"
}

type walker struct {
	opts  Options
	adj   map[string][]string
	nodes map[string]render.Node
	seen  map[string]bool
	path  map[string]bool
}

func (w *walker) expand(id string, depth int) *tree.Tree {
	t := tree.Root(w.label(id)).Enumerator(tree.RoundedEnumerator)
	if w.opts.Color {
		t = t.EnumeratorStyle(enumStyle)
	}

	w.seen[id] = true
	w.path[id] = true
	defer delete(w.path, id)

	for _, next := range w.adj[id] {
		switch {
		case w.path[next]:
			t.Child(w.label(next) + CycleMarker)
		case len(w.adj[next]) == 0:
			w.seen[next] = true
			t.Child(w.label(next))
		case w.seen[next]:
			t.Child(w.label(next) + SeenMarker)
		case w.opts.MaxDepth > 0 && depth+1 >= w.opts.MaxDepth:
			t.Child(w.label(next) + DepthMarker)
		default:
			t.Child(w.expand(next, depth+1))
		}
	}
	return t
}

func (w *walker) label(id string) string {
	n, ok := w.nodes[id]
	if !ok {
		return id
	}
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if !w.opts.Color {
		return label
	}
	switch {
	case n.Highlight:
		return highlightStyle.Render(label)
	case n.Synthetic:
		return syntheticStyle.Render(label)
	}
	return label
}
