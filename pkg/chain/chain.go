// Package chain finds the longest call chain in a call graph.
//
// The longest simple path problem is NP-hard on general graphs, so cycles are
// handled approximately: the back edges of a deterministic depth-first search
// are ignored, which leaves an acyclic graph on which the longest path is
// found exactly by dynamic programming in topological order. On an acyclic
// call graph the result is exact. Recursive calls never extend a chain.
package chain

import (
	"slices"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/portable"
)

// Result is the output of call chain analysis.
type Result struct {
	// MaxChainLength is the number of calls in the longest chain.
	MaxChainLength int `json:"max_chain_length"`
	// MaxChain lists the functions along the longest chain.
	MaxChain []string `json:"max_chain"`
	// CallGraph is the adjacency list of the analysed graph.
	CallGraph map[string][]string `json:"call_graph"`
	// Approximate is set when back edges had to be ignored.
	Approximate bool `json:"approximate,omitempty"`
}

// Analyze returns the longest call chain of cg. Among chains of equal length
// the lexicographically smallest sequence wins. An empty graph yields a zero
// length and an empty chain.
func Analyze(cg *graph.CallGraph) Result {
	res := Result{MaxChain: []string{}, CallGraph: portable.Adjacency(cg.Graph)}
	if cg.NodeCount() == 0 {
		return res
	}

	back := cycles.BackEdges(cg.Graph)
	skip := make(map[[2]string]bool, len(back))
	for _, e := range back {
		skip[[2]string{e.From, e.To}] = true
	}
	res.Approximate = len(back) > 0
	succ := func(v string) []string {
		var out []string
		for _, w := range cg.Out(v) {
			if !skip[[2]string{v, w}] {
				out = append(out, w)
			}
		}
		return out
	}

	// best[v] is the longest chain starting at v, computed in reverse
	// topological order so every successor is final before v.
	best := make(map[string][]string, cg.NodeCount())
	for _, v := range postOrder(cg.Graph, succ) {
		chain := []string{v}
		for _, w := range succ(v) {
			cand := best[w]
			if len(cand)+1 > len(chain) || (len(cand)+1 == len(chain) && slices.Compare(cand, chain[1:]) < 0) {
				chain = append([]string{v}, cand...)
			}
		}
		best[v] = chain
	}

	for _, v := range cg.Nodes() {
		c := best[v]
		if len(c) > len(res.MaxChain) || (len(c) == len(res.MaxChain) && slices.Compare(c, res.MaxChain) < 0) {
			res.MaxChain = c
		}
	}
	res.MaxChainLength = len(res.MaxChain) - 1
	return res
}

// postOrder returns every node after all of its successors under succ, which
// must describe an acyclic graph.
func postOrder(g *graph.Graph, succ func(string) []string) []string {
	type frame struct {
		v    string
		next []string
	}
	done := make(map[string]bool, g.NodeCount())
	order := make([]string, 0, g.NodeCount())
	for _, root := range g.Nodes() {
		if done[root] {
			continue
		}
		done[root] = true
		stack := []frame{{v: root, next: succ(root)}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if len(f.next) == 0 {
				order = append(order, f.v)
				stack = stack[:len(stack)-1]
				continue
			}
			w := f.next[0]
			f.next = f.next[1:]
			if !done[w] {
				done[w] = true
				stack = append(stack, frame{v: w, next: succ(w)})
			}
		}
	}
	return order
}
