package cycles

import (
	"fmt"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

// Strategy is a way of breaking a dependency cycle.
type Strategy int

// Resolution strategies. The set is closed: [Suggest] handles each one and
// rejects any other value.
const (
	// ExtractInterface makes the caller depend on an interface owned by the
	// callee's side instead of on the callee itself.
	ExtractInterface Strategy = iota + 1
	// InvertEdge reverses the dependency that points at the less stable module.
	InvertEdge
	// ExtractSharedModule moves what both modules need into a new module they
	// both depend on.
	ExtractSharedModule
)

var strategyNames = map[Strategy]string{
	ExtractInterface:    "extract_interface",
	InvertEdge:          "invert_edge",
	ExtractSharedModule: "extract_shared_module",
}

// Strategies lists every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{ExtractInterface, InvertEdge, ExtractSharedModule}
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a strategy name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidStrategy,
		"unknown strategy %q (want extract_interface, invert_edge or extract_shared_module)", name)
}

// MarshalText encodes the strategy as its name.
func (s Strategy) MarshalText() ([]byte, error) {
	if _, ok := strategyNames[s]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a strategy name.
func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Edge is a directed edge in a suggestion.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (e Edge) String() string { return e.From + " -> " + e.To }

// Suggestion describes how to break one cycle: remove one edge, optionally
// introduce a new node, and add replacement edges.
type Suggestion struct {
	Cycle    []string `json:"cycle"`
	Strategy Strategy `json:"strategy"`
	Remove   Edge     `json:"remove"`
	Add      []Edge   `json:"add,omitempty"`
	NewNode  string   `json:"new_node,omitempty"`
	Reason   string   `json:"reason"`
}

// Suggest proposes how to break cycle with strategy. It does not modify g.
//
// The targeted edge depends on the strategy:
//   - invert_edge: the edge u→v with the largest instability increase from u
//     to v, replaced by v→u
//   - extract_interface: the edge whose target has the most dependents,
//     replaced by u→v.iface and v→v.iface
//   - extract_shared_module: the edge whose endpoints share the most
//     dependencies, replaced by u→S and v→S with S = "u+v.shared"
//
// Ties go to the lexicographically smallest edge. The cycle must be a cycle
// of g; unknown nodes fail with NOT_FOUND and missing edges with INVALID_INPUT.
func Suggest(g *graph.Graph, cycle []string, strategy Strategy) (Suggestion, error) {
	edges, err := cycleEdges(g, cycle)
	if err != nil {
		return Suggestion{}, err
	}
	s := Suggestion{Cycle: Canonical(cycle), Strategy: strategy}

	switch strategy {
	case InvertEdge:
		e := pick(edges, func(e Edge) float64 { return instability(g, e.To) - instability(g, e.From) })
		s.Remove = e
		s.Add = []Edge{{From: e.To, To: e.From}}
		s.Reason = fmt.Sprintf("%s (instability %.2f) depends on the less stable %s (instability %.2f); invert the dependency",
			e.From, instability(g, e.From), e.To, instability(g, e.To))
	case ExtractInterface:
		e := pick(edges, func(e Edge) float64 { return float64(g.InDegree(e.To)) })
		iface := e.To + ".iface"
		s.Remove = e
		s.NewNode = iface
		s.Add = []Edge{{From: e.From, To: iface}, {From: e.To, To: iface}}
		s.Reason = fmt.Sprintf("%s has %d dependents; extract %s so %s depends on the abstraction",
			e.To, g.InDegree(e.To), iface, e.From)
	case ExtractSharedModule:
		e := pick(edges, func(e Edge) float64 { return float64(shared(g, e.From, e.To)) })
		mod := e.From + "+" + e.To + ".shared"
		s.Remove = e
		s.NewNode = mod
		s.Add = []Edge{{From: e.From, To: mod}, {From: e.To, To: mod}}
		s.Reason = fmt.Sprintf("%s and %s share %d dependencies; move the shared code into %s",
			e.From, e.To, shared(g, e.From, e.To), mod)
	default:
		return Suggestion{}, errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %v", strategy)
	}
	return s, nil
}

// Apply performs the suggestion for cycle and strategy on g, then checks that
// the cycle is gone. If it persists, as when inverting a self-loop, every
// change is rolled back and Apply fails with RESOLUTION_INEFFECTIVE.
func Apply(g *graph.Graph, cycle []string, strategy Strategy) (Suggestion, error) {
	s, err := Suggest(g, cycle, strategy)
	if err != nil {
		return s, err
	}

	removedMeta, _ := g.EdgeMeta(s.Remove.From, s.Remove.To)
	createdNode := s.NewNode != "" && !g.HasNode(s.NewNode)
	var added []Edge

	rollback := func() {
		for _, e := range added {
			_, _ = g.RemoveEdge(e.From, e.To)
		}
		if createdNode {
			_ = g.RemoveNode(s.NewNode)
		}
		_ = g.AddEdge(s.Remove.From, s.Remove.To, removedMeta)
	}

	if _, err := g.RemoveEdge(s.Remove.From, s.Remove.To); err != nil {
		return s, err
	}
	if createdNode {
		if err := g.AddNode(s.NewNode, graph.Metadata{"synthetic": true, "strategy": strategy.String()}); err != nil {
			rollback()
			return s, err
		}
	}
	for _, e := range s.Add {
		if g.HasEdge(e.From, e.To) {
			continue
		}
		if err := g.AddEdge(e.From, e.To, graph.Metadata{"strategy": strategy.String()}); err != nil {
			rollback()
			return s, err
		}
		added = append(added, e)
	}

	if Exists(g, cycle) {
		rollback()
		return s, errors.New(errors.ErrCodeResolutionIneffective,
			"%s on %s left cycle %v intact", strategy, s.Remove, s.Cycle)
	}
	return s, nil
}

// Analysis is the result of cycle analysis.
type Analysis struct {
	Cycles      [][]string   `json:"cycles"`
	Suggestions []Suggestion `json:"suggestions"`
	Truncated   bool         `json:"truncated,omitempty"`
}

// Analyze detects the cycles of g and suggests a resolution for each.
func (d Detector) Analyze(g *graph.Graph, strategy Strategy) (Analysis, error) {
	cycles, truncated := d.Detect(g)
	a := Analysis{Cycles: cycles, Suggestions: make([]Suggestion, 0, len(cycles)), Truncated: truncated}
	if a.Cycles == nil {
		a.Cycles = [][]string{}
	}
	for _, c := range cycles {
		s, err := Suggest(g, c, strategy)
		if err != nil {
			return Analysis{}, err
		}
		a.Suggestions = append(a.Suggestions, s)
	}
	return a, nil
}

func cycleEdges(g *graph.Graph, cycle []string) ([]Edge, error) {
	cycle = Canonical(cycle)
	if len(cycle) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty cycle")
	}
	for _, v := range cycle {
		if !g.HasNode(v) {
			return nil, errors.NotFound(v)
		}
	}
	edges := make([]Edge, len(cycle))
	for i, v := range cycle {
		w := cycle[(i+1)%len(cycle)]
		if !g.HasEdge(v, w) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%v is not a cycle: missing edge %s -> %s", cycle, v, w)
		}
		edges[i] = Edge{From: v, To: w}
	}
	return edges, nil
}

// pick returns the edge with the highest score; ties go to the smallest edge.
func pick(edges []Edge, score func(Edge) float64) Edge {
	best := edges[0]
	bestScore := score(best)
	for _, e := range edges[1:] {
		sc := score(e)
		if sc > bestScore || (sc == bestScore && less(e, best)) {
			best, bestScore = e, sc
		}
	}
	return best
}

func less(a, b Edge) bool {
	if a.From != b.From {
		return a.From < b.From
	}
	return a.To < b.To
}

func instability(g *graph.Graph, id string) float64 {
	ca, ce := g.InDegree(id), g.OutDegree(id)
	if ca+ce == 0 {
		return 0
	}
	return float64(ce) / float64(ca+ce)
}

func shared(g *graph.Graph, a, b string) int {
	bs := make(map[string]bool)
	for _, w := range g.Out(b) {
		bs[w] = true
	}
	n := 0
	for _, w := range g.Out(a) {
		if bs[w] {
			n++
		}
	}
	return n
}
