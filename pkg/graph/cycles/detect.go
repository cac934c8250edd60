package cycles

import (
	"slices"

	"github.com/matzehuels/graphscope/pkg/graph"
)

// Detector enumerates elementary cycles.
type Detector struct {
	// MaxCycles stops enumeration once this many cycles have been found.
	// Zero means unbounded. The number of elementary cycles can grow
	// exponentially with graph size, so callers analysing large graphs
	// should set a limit.
	MaxCycles int
}

// Detect enumerates the elementary cycles of g with an unbounded [Detector].
func Detect(g *graph.Graph) [][]string {
	cycles, _ := Detector{}.Detect(g)
	return cycles
}

// Detect enumerates the elementary cycles of g. The graph is first split into
// strongly connected components; cycles are then enumerated inside each
// nontrivial component with Johnson's blocked-set backtracking, implemented
// over an explicit stack.
//
// Every cycle is reported once, rotated to start at its lexicographically
// smallest node, without repeating the start at the end: A→B→C→A is reported
// as [A B C] and a self-loop on A as [A]. The result is sorted. truncated is
// true when MaxCycles stopped the enumeration early.
func (d Detector) Detect(g *graph.Graph) (cycles [][]string, truncated bool) {
	s := &search{g: g, limit: d.MaxCycles}
	for _, comp := range StronglyConnected(g) {
		if !Nontrivial(g, comp) {
			continue
		}
		for i, start := range comp {
			allowed := make(map[string]bool, len(comp)-i)
			for _, v := range comp[i:] {
				allowed[v] = true
			}
			s.circuits(start, allowed)
			if s.full() {
				break
			}
		}
		if s.full() {
			break
		}
	}
	slices.SortFunc(s.cycles, slices.Compare[[]string])
	return s.cycles, s.full()
}

type search struct {
	g      *graph.Graph
	limit  int
	cycles [][]string
}

func (s *search) full() bool { return s.limit > 0 && len(s.cycles) >= s.limit }

type circuitFrame struct {
	v     string
	succ  []string
	next  int
	found bool
}

func (s *search) succ(v string, allowed map[string]bool) []string {
	var out []string
	for _, w := range s.g.Out(v) {
		if allowed[w] {
			out = append(out, w)
		}
	}
	return out
}

// circuits finds every elementary cycle through start that stays inside
// allowed. Since allowed holds start and the nodes sorting after it, start is
// the smallest node of each cycle found.
func (s *search) circuits(start string, allowed map[string]bool) {
	blocked := map[string]bool{start: true}
	bmap := make(map[string]map[string]bool)
	path := []string{start}
	frames := []circuitFrame{{v: start, succ: s.succ(start, allowed)}}

	for len(frames) > 0 {
		if s.full() {
			return
		}
		f := &frames[len(frames)-1]
		if f.next < len(f.succ) {
			w := f.succ[f.next]
			f.next++
			if w == start {
				s.cycles = append(s.cycles, slices.Clone(path))
				f.found = true
			} else if !blocked[w] {
				blocked[w] = true
				path = append(path, w)
				frames = append(frames, circuitFrame{v: w, succ: s.succ(w, allowed)})
			}
			continue
		}

		v, found := f.v, f.found
		if found {
			unblock(v, blocked, bmap)
		} else {
			for _, w := range f.succ {
				if bmap[w] == nil {
					bmap[w] = make(map[string]bool)
				}
				bmap[w][v] = true
			}
		}
		frames = frames[:len(frames)-1]
		path = path[:len(path)-1]
		if found && len(frames) > 0 {
			frames[len(frames)-1].found = true
		}
	}
}

func unblock(u string, blocked map[string]bool, bmap map[string]map[string]bool) {
	blocked[u] = false
	stack := []string{u}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for w := range bmap[x] {
			delete(bmap[x], w)
			if blocked[w] {
				blocked[w] = false
				stack = append(stack, w)
			}
		}
	}
}

// Canonical rotates a cycle to start at its smallest node. A trailing repeat
// of the first node, as in [A B C A], is dropped first.
func Canonical(cycle []string) []string {
	if n := len(cycle); n > 1 && cycle[0] == cycle[n-1] {
		cycle = cycle[:n-1]
	}
	if len(cycle) == 0 {
		return nil
	}
	m := 0
	for i, v := range cycle {
		if v < cycle[m] {
			m = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[m:]...)
	return append(out, cycle[:m]...)
}

// Exists reports whether every edge of cycle is present in g.
func Exists(g *graph.Graph, cycle []string) bool {
	if len(cycle) == 0 {
		return false
	}
	for i, v := range cycle {
		if !g.HasEdge(v, cycle[(i+1)%len(cycle)]) {
			return false
		}
	}
	return true
}
