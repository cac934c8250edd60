// Package graph provides the directed graph core shared by the call graph and
// the dependency graph.
//
// # Overview
//
// A codebase is modelled as two directed graphs: a [CallGraph], where an edge
// means "caller calls callee", and a [DependencyGraph], where an edge means
// "module depends on module". Both wrap the generic [Graph], which owns a
// successor set per node, a predecessor index maintained by [Graph.AddEdge],
// and metadata maps for the graph, its nodes and its edges.
//
// Unlike a DAG, a [Graph] may contain cycles, self-loops and disconnected
// components. Parallel edges are collapsed: the edge set has at most one edge
// per (from, to) pair.
//
// # Basic Usage
//
//	g := graph.New(nil)
//	g.AddEdge("A", "B", nil) // creates A and B
//	g.AddEdge("B", "C", nil)
//	g.AddEdge("A", "C", nil)
//
//	succ, _ := g.Successors("A")   // [B C]
//	pred, _ := g.Predecessors("C") // [A B]
//
// # Node Policy
//
// [Graph.AddNode] is idempotent and last-write-wins on metadata.
// [Graph.AddEdge] creates missing endpoints as bare nodes, so edges never
// dangle. Lookups of unknown ids ([Graph.Successors], [Graph.Predecessors])
// fail with a NOT_FOUND error from pkg/errors; this one strictness policy is
// applied by every algorithm that takes a start node.
//
// # Concurrency
//
// Graph is not safe for concurrent mutation. Builders serialize all writes
// through a single goroutine. Once [Graph.Freeze] has been called the graph is
// read-only and any number of algorithms may read it concurrently.
package graph
