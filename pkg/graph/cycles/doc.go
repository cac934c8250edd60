// Package cycles finds and resolves dependency cycles.
//
// # Detection
//
// [StronglyConnected] partitions a graph with an iterative Tarjan search.
// [Detector.Detect] enumerates the elementary cycles inside every component
// that has more than one node or a self-loop. Enumeration follows Johnson's
// algorithm: for each start node s, only nodes sorting after s are explored
// and a blocked set prevents re-exploring dead ends, so each cycle is found
// exactly once, already rotated to start at its smallest node.
//
//	g := graph.New(nil)
//	g.AddEdge("A", "B", nil)
//	g.AddEdge("B", "C", nil)
//	g.AddEdge("C", "A", nil)
//	cycles.Detect(g) // [[A B C]]
//
// # Resolution
//
// A cycle can be broken with one of three [Strategy] values. [Suggest] is a
// pure function returning the edge to remove and its replacement edges.
// [Apply] performs the same change on the graph and verifies that the cycle
// is gone; if not, it restores the graph and fails with
// RESOLUTION_INEFFECTIVE.
//
// # Back Edges
//
// [BackEdges] lists the edges closing a cycle in a deterministic depth-first
// search. Ignoring them yields an acyclic view of the graph, which the call
// chain analysis relies on.
package cycles
