package traverse

import (
	"slices"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

// DefaultRiskThreshold is the node count above which unbounded path
// enumeration triggers an UNBOUNDED_ENUMERATION advisory.
const DefaultRiskThreshold = 500

// ShortestPath returns a path from source to target with the fewest edges, or
// nil if target is unreachable. The search halts on the first dequeue of
// target; ties are broken by sorted successor order. source == target yields
// [source].
func ShortestPath(g *graph.Graph, source, target string) ([]string, error) {
	if !g.HasNode(source) {
		return nil, errors.NotFound(source)
	}
	if !g.HasNode(target) {
		return nil, errors.NotFound(target)
	}

	parent := map[string]string{source: ""}
	queue := []string{source}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if v == target {
			return unwind(parent, source, target), nil
		}
		for _, w := range g.Out(v) {
			if _, ok := parent[w]; !ok {
				parent[w] = v
				queue = append(queue, w)
			}
		}
	}
	return nil, nil
}

func unwind(parent map[string]string, source, target string) []string {
	path := []string{target}
	for v := target; v != source; {
		v = parent[v]
		path = append(path, v)
	}
	slices.Reverse(path)
	return path
}

type pathOptions struct {
	maxPaths  int
	maxLength int
	threshold int
	advisory  func(error)
}

// PathOption configures [FindAllPaths].
type PathOption func(*pathOptions)

// WithMaxPaths stops enumeration after n paths. n <= 0 means unbounded.
func WithMaxPaths(n int) PathOption {
	return func(o *pathOptions) { o.maxPaths = n }
}

// WithMaxLength skips paths longer than n edges. n <= 0 means unbounded.
func WithMaxLength(n int) PathOption {
	return func(o *pathOptions) { o.maxLength = n }
}

// WithRiskThreshold sets the node count above which unbounded enumeration is
// reported as a risk.
func WithRiskThreshold(n int) PathOption {
	return func(o *pathOptions) { o.threshold = n }
}

// WithAdvisory receives the UNBOUNDED_ENUMERATION advisory. Enumeration
// continues after the callback returns.
func WithAdvisory(fn func(error)) PathOption {
	return func(o *pathOptions) { o.advisory = fn }
}

// CheckEnumerationRisk returns an UNBOUNDED_ENUMERATION error when maxPaths is
// unbounded and g has more than threshold nodes, nil otherwise.
func CheckEnumerationRisk(g *graph.Graph, maxPaths, threshold int) error {
	if maxPaths > 0 || g.NodeCount() <= threshold {
		return nil
	}
	return errors.New(errors.ErrCodeUnboundedEnumeration,
		"enumerating all paths without a limit on a graph of %d nodes (threshold %d)",
		g.NodeCount(), threshold)
}

type pathFrame struct {
	node string
	succ []string
	next int
}

// FindAllPaths enumerates simple paths (no repeated node) from source to
// target by backtracking over an explicit stack, so deep graphs cannot
// exhaust the call stack. Successors are visited in sorted order, which makes
// the discovery order deterministic. source == target yields the zero-length
// path [source] first; since a path may not repeat a node it is also the only
// one. An unreachable target yields no paths and no error.
//
// Without [WithMaxPaths] the result can grow combinatorially; callers must
// bound either the path count or the graph size.
func FindAllPaths(g *graph.Graph, source, target string, opts ...PathOption) ([][]string, error) {
	o := pathOptions{threshold: DefaultRiskThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	if !g.HasNode(source) {
		return nil, errors.NotFound(source)
	}
	if !g.HasNode(target) {
		return nil, errors.NotFound(target)
	}
	if err := CheckEnumerationRisk(g, o.maxPaths, o.threshold); err != nil && o.advisory != nil {
		o.advisory(err)
	}

	if source == target {
		return [][]string{{source}}, nil
	}

	var paths [][]string
	onPath := map[string]bool{source: true}
	path := []string{source}
	stack := []pathFrame{{node: source, succ: g.Out(source)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.succ) {
			delete(onPath, top.node)
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
			continue
		}
		w := top.succ[top.next]
		top.next++

		if onPath[w] {
			continue
		}
		if w == target {
			paths = append(paths, append(slices.Clone(path), w))
			if o.maxPaths > 0 && len(paths) >= o.maxPaths {
				return paths, nil
			}
			continue
		}
		if o.maxLength > 0 && len(path) >= o.maxLength {
			continue
		}
		onPath[w] = true
		path = append(path, w)
		stack = append(stack, pathFrame{node: w, succ: g.Out(w)})
	}
	return paths, nil
}
