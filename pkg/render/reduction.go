package render

import "github.com/matzehuels/graphscope/pkg/graph"

// TransitiveReduction removes every edge u→v for which another path from u
// to v exists, and returns how many edges it removed. If A→B, B→C and A→C
// all exist, A→C is removed because A reaches C through B.
//
// g must be acyclic and writable. Metadata of kept edges is preserved.
//
// Reachability is computed for every node with an explicit-stack DFS, so the
// cost is O(V·(V+E)) time and O(V²) bits of memory.
func TransitiveReduction(g *graph.Graph) int {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return 0
	}

	index := make(map[string]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}
	adj := make([][]int, len(nodes))
	for i, id := range nodes {
		for _, s := range g.Out(id) {
			adj[i] = append(adj[i], index[s])
		}
	}

	reach := computeReachability(adj)

	removed := 0
	for _, e := range g.Edges() {
		src, dst := index[e.From], index[e.To]
		for _, mid := range adj[src] {
			if mid != dst && mid != src && reach[mid][dst] {
				if ok, _ := g.RemoveEdge(e.From, e.To); ok {
					removed++
				}
				break
			}
		}
	}
	return removed
}

// computeReachability returns reach[i][j] = j is reachable from i by a
// non-empty or empty path.
func computeReachability(adj [][]int) [][]bool {
	n := len(adj)
	reach := make([][]bool, n)
	stack := make([]int, 0, n)
	for i := range reach {
		reach[i] = make([]bool, n)
		row := reach[i]
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if row[v] {
				continue
			}
			row[v] = true
			for _, w := range adj[v] {
				if !row[w] {
					stack = append(stack, w)
				}
			}
		}
	}
	return reach
}
