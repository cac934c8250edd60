package traverse

import (
	"fmt"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

// Mode selects the visitation order of [Traverse].
type Mode int

const (
	// BreadthFirst visits nodes in order of edge-count distance from start.
	BreadthFirst Mode = iota
	// DepthFirst visits nodes in pre-order, following successors in sorted order.
	DepthFirst
)

// String returns the mode name used by the CLI and API.
func (m Mode) String() string {
	switch m {
	case BreadthFirst:
		return "breadth_first"
	case DepthFirst:
		return "depth_first"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "bfs"/"breadth_first" or "dfs"/"depth_first" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "bfs", "breadth_first", "":
		return BreadthFirst, nil
	case "dfs", "depth_first":
		return DepthFirst, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, "unknown traversal mode %q", s)
	}
}

// Direction selects which edges a traversal follows.
type Direction int

const (
	// Forward follows edges from source to target.
	Forward Direction = iota
	// Backward follows edges from target to source, using the predecessor index.
	Backward
)

// Unbounded disables the depth limit.
const Unbounded = -1

// Visit is one step of a traversal.
type Visit struct {
	ID    string `json:"id"`
	Depth int    `json:"depth"`
}

type options struct {
	maxDepth  int
	direction Direction
}

// Option configures [Traverse].
type Option func(*options)

// WithMaxDepth stops expansion at depth n. Depth 0 visits only the start node.
// A negative n means unbounded, which is the default.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithDirection selects forward or backward traversal.
func WithDirection(d Direction) Option {
	return func(o *options) { o.direction = d }
}

func next(g *graph.Graph, dir Direction) func(string) []string {
	if dir == Backward {
		return g.In
	}
	return g.Out
}

// Traverse visits every node reachable from start. Breadth-first order matches
// the minimum edge-count distance from start; depth-first order is pre-order
// with successors taken in sorted order, so both are deterministic for a fixed
// graph. Unreachable nodes are not visited. It fails with NOT_FOUND if start
// is not in g.
func Traverse(g *graph.Graph, start string, mode Mode, opts ...Option) ([]Visit, error) {
	o := options{maxDepth: Unbounded}
	for _, opt := range opts {
		opt(&o)
	}
	if !g.HasNode(start) {
		return nil, errors.NotFound(start)
	}
	nbrs := next(g, o.direction)

	switch mode {
	case BreadthFirst:
		return bfs(start, o.maxDepth, nbrs), nil
	case DepthFirst:
		return dfs(start, o.maxDepth, nbrs), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown traversal mode %v", mode)
	}
}

func within(depth, max int) bool { return max < 0 || depth < max }

func bfs(start string, maxDepth int, nbrs func(string) []string) []Visit {
	seen := map[string]bool{start: true}
	queue := []Visit{{ID: start}}
	var out []Visit
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		out = append(out, v)
		if !within(v.Depth, maxDepth) {
			continue
		}
		for _, w := range nbrs(v.ID) {
			if !seen[w] {
				seen[w] = true
				queue = append(queue, Visit{ID: w, Depth: v.Depth + 1})
			}
		}
	}
	return out
}

func dfs(start string, maxDepth int, nbrs func(string) []string) []Visit {
	seen := make(map[string]bool)
	stack := []Visit{{ID: start}}
	var out []Visit
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
		if !within(v.Depth, maxDepth) {
			continue
		}
		succ := nbrs(v.ID)
		for i := len(succ) - 1; i >= 0; i-- {
			if !seen[succ[i]] {
				stack = append(stack, Visit{ID: succ[i], Depth: v.Depth + 1})
			}
		}
	}
	return out
}

// IDs extracts the node ids of visits, preserving order.
func IDs(visits []Visit) []string {
	out := make([]string, len(visits))
	for i, v := range visits {
		out[i] = v.ID
	}
	return out
}

// Reachable returns the set of nodes reachable from any of starts, the starts
// included. Every start must be a node of g.
func Reachable(g *graph.Graph, starts []string, dir Direction) (map[string]bool, error) {
	nbrs := next(g, dir)
	seen := make(map[string]bool, len(starts))
	var stack []string
	for _, s := range starts {
		if !g.HasNode(s) {
			return nil, errors.NotFound(s)
		}
		if !seen[s] {
			seen[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, w := range nbrs(v) {
			if !seen[w] {
				seen[w] = true
				stack = append(stack, w)
			}
		}
	}
	return seen, nil
}

// BlastRadius returns, in sorted order, the nodes that transitively reach any
// of the changed nodes: everything affected when they change. The changed
// nodes themselves are excluded unless they reach each other through a cycle.
func BlastRadius(g *graph.Graph, changed ...string) ([]string, error) {
	seen := make(map[string]bool)
	var stack []string
	for _, c := range changed {
		if !g.HasNode(c) {
			return nil, errors.NotFound(c)
		}
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, w := range g.In(v) {
			if !seen[w] {
				seen[w] = true
				stack = append(stack, w)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for _, id := range g.Nodes() {
		if seen[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
