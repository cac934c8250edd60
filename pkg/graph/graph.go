package graph

import (
	"maps"
	"slices"

	"github.com/matzehuels/graphscope/pkg/errors"
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the
// graph itself. Metadata maps returned by the graph are never nil.
type Metadata map[string]any

// Edge is a directed connection between two nodes.
type Edge struct {
	From string   // Source node ID
	To   string   // Target node ID
	Meta Metadata // Edge metadata (never nil when returned by Edges)
}

type edgeKey struct{ from, to string }

// Graph is a directed graph with an adjacency set per node and a predecessor
// index maintained alongside it. Cycles and self-loops are allowed; parallel
// edges are not.
//
// A Graph grows monotonically while it is being built. After [Graph.Freeze]
// every mutator fails with [errors.ErrCodeGraphFrozen] and the graph may be
// read from multiple goroutines. The zero value is not usable - use [New].
// Graph is not safe for concurrent mutation.
type Graph struct {
	nodes    map[string]Metadata
	succ     map[string]map[string]struct{}
	pred     map[string]map[string]struct{}
	edgeMeta map[edgeKey]Metadata
	edges    int
	meta     Metadata
	frozen   bool
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:    make(map[string]Metadata),
		succ:     make(map[string]map[string]struct{}),
		pred:     make(map[string]map[string]struct{}),
		edgeMeta: make(map[edgeKey]Metadata),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node or, if it already exists, replaces its metadata.
// Re-adding is never an error; the last write wins. It fails only for an
// empty id or a frozen graph.
func (g *Graph) AddNode(id string, meta Metadata) error {
	if err := g.writable(); err != nil {
		return err
	}
	if id == "" {
		return errors.New(errors.ErrCodeInvalidInput, "node id must not be empty")
	}
	if meta == nil {
		meta = Metadata{}
	}
	g.nodes[id] = meta
	return nil
}

// AddEdge records the edge from→to. Missing endpoints are created as bare
// nodes, so an edge never dangles. Adding an existing edge is a no-op, except
// that non-nil meta replaces the stored edge metadata.
func (g *Graph) AddEdge(from, to string, meta Metadata) error {
	if err := g.writable(); err != nil {
		return err
	}
	if from == "" || to == "" {
		return errors.New(errors.ErrCodeInvalidInput, "edge endpoints must not be empty")
	}
	g.ensure(from)
	g.ensure(to)

	k := edgeKey{from, to}
	if _, ok := g.succ[from][to]; ok {
		if meta != nil {
			g.edgeMeta[k] = meta
		}
		return nil
	}
	if meta == nil {
		meta = Metadata{}
	}
	addTo(g.succ, from, to)
	addTo(g.pred, to, from)
	g.edgeMeta[k] = meta
	g.edges++
	return nil
}

// RemoveEdge deletes the edge from→to and reports whether it existed.
func (g *Graph) RemoveEdge(from, to string) (bool, error) {
	if err := g.writable(); err != nil {
		return false, err
	}
	if _, ok := g.succ[from][to]; !ok {
		return false, nil
	}
	delete(g.succ[from], to)
	delete(g.pred[to], from)
	delete(g.edgeMeta, edgeKey{from, to})
	g.edges--
	return true, nil
}

// RemoveNode deletes a node together with all incident edges.
func (g *Graph) RemoveNode(id string) error {
	if err := g.writable(); err != nil {
		return err
	}
	if _, ok := g.nodes[id]; !ok {
		return errors.NotFound(id)
	}
	for to := range g.succ[id] {
		delete(g.pred[to], id)
		delete(g.edgeMeta, edgeKey{id, to})
		g.edges--
	}
	for from := range g.pred[id] {
		if from == id {
			continue
		}
		delete(g.succ[from], id)
		delete(g.edgeMeta, edgeKey{from, id})
		g.edges--
	}
	delete(g.succ, id)
	delete(g.pred, id)
	delete(g.nodes, id)
	return nil
}

// Freeze makes the graph read-only.
func (g *Graph) Freeze() { g.frozen = true }

// Frozen reports whether [Graph.Freeze] has been called.
func (g *Graph) Frozen() bool { return g.frozen }

// Clone returns an unfrozen deep copy of the graph structure. Metadata maps
// are copied one level deep.
func (g *Graph) Clone() *Graph {
	c := New(maps.Clone(g.meta))
	for id, m := range g.nodes {
		c.nodes[id] = maps.Clone(m)
	}
	for from, tos := range g.succ {
		for to := range tos {
			addTo(c.succ, from, to)
			addTo(c.pred, to, from)
		}
	}
	for k, m := range g.edgeMeta {
		c.edgeMeta[k] = maps.Clone(m)
	}
	c.edges = g.edges
	return c
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.succ[from][to]
	return ok
}

// Node returns the metadata of a node.
func (g *Graph) Node(id string) (Metadata, bool) {
	m, ok := g.nodes[id]
	return m, ok
}

// EdgeMeta returns the metadata of the edge from→to.
func (g *Graph) EdgeMeta(from, to string) (Metadata, bool) {
	m, ok := g.edgeMeta[edgeKey{from, to}]
	return m, ok
}

// Successors returns the direct successors of id in sorted order.
// It fails with [errors.ErrCodeNotFound] if id is not a node.
func (g *Graph) Successors(id string) ([]string, error) {
	if !g.HasNode(id) {
		return nil, errors.NotFound(id)
	}
	return sortedKeys(g.succ[id]), nil
}

// Predecessors returns the direct predecessors of id in sorted order, read
// from the inverse index. It fails with [errors.ErrCodeNotFound] if id is not
// a node.
func (g *Graph) Predecessors(id string) ([]string, error) {
	if !g.HasNode(id) {
		return nil, errors.NotFound(id)
	}
	return sortedKeys(g.pred[id]), nil
}

// Out returns the sorted successors of id, or nil for an unknown id.
// Algorithms use it after validating their start nodes.
func (g *Graph) Out(id string) []string { return sortedKeys(g.succ[id]) }

// In returns the sorted predecessors of id, or nil for an unknown id.
func (g *Graph) In(id string) []string { return sortedKeys(g.pred[id]) }

// OutDegree returns the number of successors of id.
func (g *Graph) OutDegree(id string) int { return len(g.succ[id]) }

// InDegree returns the number of predecessors of id.
func (g *Graph) InDegree(id string) int { return len(g.pred[id]) }

// Nodes returns all node ids in sorted order.
func (g *Graph) Nodes() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Edges returns all edges sorted by (From, To).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for _, from := range g.Nodes() {
		for _, to := range g.Out(from) {
			out = append(out, Edge{From: from, To: to, Meta: g.edgeMeta[edgeKey{from, to}]})
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Sources returns nodes with no incoming edges, sorted.
func (g *Graph) Sources() []string {
	var out []string
	for _, id := range g.Nodes() {
		if len(g.pred[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Sinks returns nodes with no outgoing edges, sorted.
func (g *Graph) Sinks() []string {
	var out []string
	for _, id := range g.Nodes() {
		if len(g.succ[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

func (g *Graph) writable() error {
	if g.frozen {
		return errors.New(errors.ErrCodeGraphFrozen, "graph is frozen")
	}
	return nil
}

func (g *Graph) ensure(id string) {
	if _, ok := g.nodes[id]; !ok {
		g.nodes[id] = Metadata{}
	}
}

func addTo(idx map[string]map[string]struct{}, k, v string) {
	set, ok := idx[k]
	if !ok {
		set = make(map[string]struct{})
		idx[k] = set
	}
	set[v] = struct{}{}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(set))
}
