package cycles

import "github.com/matzehuels/graphscope/pkg/graph"

// BackEdges returns the edges that close a cycle during a depth-first search
// started from the sources of g, then from any node not yet visited. Nodes
// and successors are taken in sorted order, so the result is deterministic.
// Removing every back edge leaves g acyclic.
func BackEdges(g *graph.Graph) []Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var back []Edge

	visit := func(root string) {
		color[root] = gray
		frames := []sccFrame{{v: root, succ: g.Out(root)}}
		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if f.next == len(f.succ) {
				color[f.v] = black
				frames = frames[:len(frames)-1]
				continue
			}
			child := f.succ[f.next]
			f.next++
			switch color[child] {
			case white:
				color[child] = gray
				frames = append(frames, sccFrame{v: child, succ: g.Out(child)})
			case gray:
				back = append(back, Edge{From: f.v, To: child})
			}
		}
	}

	for _, n := range g.Sources() {
		if color[n] == white {
			visit(n)
		}
	}
	for _, n := range g.Nodes() {
		if color[n] == white {
			visit(n)
		}
	}
	return back
}

// BreakCycles removes the back edges of g, leaving it acyclic, and returns
// the removed edges.
func BreakCycles(g *graph.Graph) ([]Edge, error) {
	back := BackEdges(g)
	for _, e := range back {
		if _, err := g.RemoveEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}
	return back, nil
}
