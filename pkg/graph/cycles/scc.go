package cycles

import (
	"cmp"
	"slices"

	"github.com/matzehuels/graphscope/pkg/graph"
)

type sccFrame struct {
	v    string
	succ []string
	next int
}

type tarjan struct {
	g       *graph.Graph
	counter int
	index   map[string]int
	low     map[string]int
	stack   []string
	onStack map[string]bool
	comps   [][]string
}

// StronglyConnected partitions g into strongly connected components using
// Tarjan's algorithm with an explicit frame stack. Each component is sorted,
// and components are ordered by their smallest node.
func StronglyConnected(g *graph.Graph) [][]string {
	t := &tarjan{
		g:       g,
		index:   make(map[string]int, g.NodeCount()),
		low:     make(map[string]int, g.NodeCount()),
		onStack: make(map[string]bool),
	}
	for _, v := range g.Nodes() {
		if _, seen := t.index[v]; !seen {
			t.run(v)
		}
	}
	for _, c := range t.comps {
		slices.Sort(c)
	}
	slices.SortFunc(t.comps, func(a, b []string) int { return cmp.Compare(a[0], b[0]) })
	return t.comps
}

func (t *tarjan) visit(v string) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true
}

func (t *tarjan) run(root string) {
	t.visit(root)
	frames := []sccFrame{{v: root, succ: t.g.Out(root)}}

	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		if f.next < len(f.succ) {
			w := f.succ[f.next]
			f.next++
			if _, seen := t.index[w]; !seen {
				t.visit(w)
				frames = append(frames, sccFrame{v: w, succ: t.g.Out(w)})
			} else if t.onStack[w] {
				t.low[f.v] = min(t.low[f.v], t.index[w])
			}
			continue
		}

		v := f.v
		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			p := frames[len(frames)-1].v
			t.low[p] = min(t.low[p], t.low[v])
		}
		if t.low[v] != t.index[v] {
			continue
		}
		var comp []string
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		t.comps = append(t.comps, comp)
	}
}

// Nontrivial reports whether a component contains at least one cycle: it has
// more than one node, or its single node has a self-loop.
func Nontrivial(g *graph.Graph, comp []string) bool {
	return len(comp) > 1 || (len(comp) == 1 && g.HasEdge(comp[0], comp[0]))
}
