package render

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
)

// Output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatTree = "tree"
)

// Formats lists the supported output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatJSON, FormatTree}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeUnsupported, "invalid format %q (must be one of: dot, svg, json, tree)", format)
	}
	return nil
}

// Node is a diagram node.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// Group is the file of a function or the path of a module, if known.
	Group string `json:"group,omitempty"`
	// Highlight marks nodes on a highlighted cycle.
	Highlight bool `json:"highlight,omitempty"`
	// Synthetic marks nodes introduced by a cycle resolution.
	Synthetic bool           `json:"synthetic,omitempty"`
	Meta      graph.Metadata `json:"meta,omitempty"`
}

// Edge is a diagram edge.
type Edge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Highlight bool   `json:"highlight,omitempty"`
	// Dashed marks conditional calls and type-only imports.
	Dashed bool `json:"dashed,omitempty"`
	// Back marks an edge set aside to make a cyclic graph reducible. It is
	// drawn but not reduced.
	Back bool `json:"back,omitempty"`
}

// Diagram is the renderer-agnostic form of a graph. Nodes and edges are
// sorted.
type Diagram struct {
	Title string `json:"title,omitempty"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Options configures [Build].
type Options struct {
	Title string
	// Reduce applies transitive reduction first. On a cyclic graph the
	// depth-first back edges are set aside, the rest is reduced and the back
	// edges are drawn as [Edge.Back].
	Reduce bool
	// Highlight lists cycles whose nodes and edges are highlighted.
	Highlight [][]string
	// Meta copies node metadata into the diagram.
	Meta bool
}

// Build converts g into a diagram. g is not modified.
func Build(g *graph.Graph, opts Options) (Diagram, error) {
	src := g
	var back []cycles.Edge
	if opts.Reduce {
		g = g.Clone()
		var err error
		if back, err = cycles.BreakCycles(g); err != nil {
			return Diagram{}, err
		}
		TransitiveReduction(g)
	}

	hotNodes := make(map[string]bool)
	hotEdges := make(map[[2]string]bool)
	for _, c := range opts.Highlight {
		for i, v := range c {
			hotNodes[v] = true
			hotEdges[[2]string{v, c[(i+1)%len(c)]}] = true
		}
	}

	d := Diagram{Title: opts.Title, Nodes: []Node{}, Edges: []Edge{}}
	for _, id := range g.Nodes() {
		meta, _ := g.Node(id)
		n := Node{ID: id, Label: id, Highlight: hotNodes[id]}
		if s, ok := meta[graph.MetaFile].(string); ok {
			n.Group = s
		} else if s, ok := meta[graph.MetaPath].(string); ok {
			n.Group = s
		}
		n.Synthetic, _ = meta["synthetic"].(bool)
		if opts.Meta && len(meta) > 0 {
			n.Meta = maps.Clone(meta)
		}
		d.Nodes = append(d.Nodes, n)
	}
	edge := func(from, to string, meta graph.Metadata) Edge {
		conditional, _ := meta[graph.MetaConditional].(bool)
		kind, _ := meta[graph.MetaImportKind].(string)
		return Edge{
			From:      from,
			To:        to,
			Highlight: hotEdges[[2]string{from, to}],
			Dashed:    conditional || kind == string(graph.ImportTypeOnly),
		}
	}
	for _, e := range g.Edges() {
		d.Edges = append(d.Edges, edge(e.From, e.To, e.Meta))
	}
	for _, e := range back {
		meta, _ := src.EdgeMeta(e.From, e.To)
		be := edge(e.From, e.To, meta)
		be.Back = true
		d.Edges = append(d.Edges, be)
	}
	slices.SortFunc(d.Edges, func(a, b Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return d, nil
}

// Successors returns the diagram adjacency, for backends that walk it.
func (d Diagram) Successors() map[string][]string {
	adj := make(map[string][]string, len(d.Nodes))
	for _, e := range d.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	return adj
}

// Roots returns the nodes without incoming edges, sorted.
func (d Diagram) Roots() []string {
	hasIn := make(map[string]bool)
	for _, e := range d.Edges {
		if e.From != e.To {
			hasIn[e.To] = true
		}
	}
	var roots []string
	for _, n := range d.Nodes {
		if !hasIn[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// Marshal encodes d as indented JSON.
func Marshal(d Diagram) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal diagram: %w", err)
	}
	return data, nil
}
