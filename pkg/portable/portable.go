package portable

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

// EdgeSep separates the endpoints in edge metadata keys.
const EdgeSep = " -> "

// Graph is the portable form of a [graph.Graph]: an adjacency list keyed by
// node id plus the metadata of the graph, its nodes and its edges.
type Graph struct {
	Nodes    map[string][]string `json:"nodes"`
	Metadata Metadata            `json:"metadata"`
}

// Metadata groups graph-, node- and edge-level metadata. Edge metadata is
// keyed by "from -> to". Empty metadata is omitted.
type Metadata struct {
	Graph map[string]any            `json:"graph,omitempty"`
	Nodes map[string]map[string]any `json:"nodes,omitempty"`
	Edges map[string]map[string]any `json:"edges,omitempty"`
}

// EdgeKey returns the metadata key of the edge from -> to.
func EdgeKey(from, to string) string { return from + EdgeSep + to }

// From converts g to its portable form. Every node appears in Nodes, isolated
// nodes with an empty list; successor lists are sorted.
func From(g *graph.Graph) Graph {
	p := Graph{Nodes: make(map[string][]string, g.NodeCount())}
	if len(g.Meta()) > 0 {
		p.Metadata.Graph = maps.Clone(g.Meta())
	}
	for _, id := range g.Nodes() {
		succ := g.Out(id)
		if succ == nil {
			succ = []string{}
		}
		p.Nodes[id] = succ
		if m, _ := g.Node(id); len(m) > 0 {
			if p.Metadata.Nodes == nil {
				p.Metadata.Nodes = make(map[string]map[string]any)
			}
			p.Metadata.Nodes[id] = maps.Clone(m)
		}
	}
	for _, e := range g.Edges() {
		if len(e.Meta) == 0 {
			continue
		}
		if p.Metadata.Edges == nil {
			p.Metadata.Edges = make(map[string]map[string]any)
		}
		p.Metadata.Edges[EdgeKey(e.From, e.To)] = maps.Clone(e.Meta)
	}
	return p
}

// ToGraph rebuilds a graph from its portable form. Structurally inconsistent
// input fails with MALFORMED_DATA: empty node ids, successors that are not
// listed as nodes, repeated successors, and metadata for unknown nodes or
// edges. The returned graph is not frozen.
func ToGraph(p Graph) (*graph.Graph, error) {
	if p.Nodes == nil {
		return nil, errors.Malformed("missing \"nodes\"")
	}
	g := graph.New(maps.Clone(p.Metadata.Graph))

	ids := slices.Sorted(maps.Keys(p.Nodes))
	for _, id := range ids {
		if id == "" {
			return nil, errors.Malformed("empty node id")
		}
		if err := g.AddNode(id, maps.Clone(p.Metadata.Nodes[id])); err != nil {
			return nil, err
		}
	}
	for _, id := range ids {
		seen := make(map[string]bool, len(p.Nodes[id]))
		for _, to := range p.Nodes[id] {
			if _, ok := p.Nodes[to]; !ok {
				return nil, errors.Malformed("node %q has dangling successor %q", id, to)
			}
			if seen[to] {
				return nil, errors.Malformed("node %q lists successor %q twice", id, to)
			}
			seen[to] = true
			if err := g.AddEdge(id, to, nil); err != nil {
				return nil, err
			}
		}
	}

	for id := range p.Metadata.Nodes {
		if !g.HasNode(id) {
			return nil, errors.Malformed("metadata for unknown node %q", id)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(p.Metadata.Edges)) {
		from, to, ok := splitEdgeKey(g, key)
		if !ok {
			return nil, errors.Malformed("metadata for unknown edge %q", key)
		}
		if err := g.AddEdge(from, to, maps.Clone(p.Metadata.Edges[key])); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// splitEdgeKey finds the split of key into an existing edge. Node ids may
// themselves contain the separator, so every occurrence is tried.
func splitEdgeKey(g *graph.Graph, key string) (from, to string, ok bool) {
	for i := 0; ; {
		j := strings.Index(key[i:], EdgeSep)
		if j < 0 {
			return "", "", false
		}
		from, to = key[:i+j], key[i+j+len(EdgeSep):]
		if g.HasEdge(from, to) {
			return from, to, true
		}
		i += j + 1
	}
}

// ToCallGraph rebuilds a call graph.
func ToCallGraph(p Graph) (*graph.CallGraph, error) {
	g, err := ToGraph(p)
	if err != nil {
		return nil, err
	}
	return &graph.CallGraph{Graph: g}, nil
}

// ToDependencyGraph rebuilds a dependency graph.
func ToDependencyGraph(p Graph) (*graph.DependencyGraph, error) {
	g, err := ToGraph(p)
	if err != nil {
		return nil, err
	}
	return &graph.DependencyGraph{Graph: g}, nil
}

// Adjacency returns only the adjacency list of g.
func Adjacency(g *graph.Graph) map[string][]string {
	return From(g).Nodes
}

// Unmarshal decodes JSON bytes into the portable form without validating it.
func Unmarshal(data []byte) (Graph, error) {
	var p Graph
	if err := json.Unmarshal(data, &p); err != nil {
		return Graph{}, errors.Wrap(errors.ErrCodeMalformedData, err, "decode portable graph")
	}
	return p, nil
}
