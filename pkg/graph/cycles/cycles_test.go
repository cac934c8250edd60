package cycles

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

func build(edges ...string) *graph.Graph {
	g := graph.New(nil)
	for _, e := range edges {
		parts := strings.Split(e, "->")
		_ = g.AddEdge(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil)
	}
	return g
}

func TestDetect_Acyclic(t *testing.T) {
	g := build("A->B", "B->C", "A->C")
	if got := Detect(g); len(got) != 0 {
		t.Errorf("Detect() = %v, want no cycles", got)
	}
}

func TestDetect_Triangle(t *testing.T) {
	g := build("B->C", "C->A", "A->B")
	got := Detect(g)
	if len(got) != 1 || !slices.Equal(got[0], []string{"A", "B", "C"}) {
		t.Errorf("Detect() = %v, want [[A B C]]", got)
	}
}

func TestDetect_SelfLoop(t *testing.T) {
	g := build("A->A", "A->B")
	got := Detect(g)
	if len(got) != 1 || !slices.Equal(got[0], []string{"A"}) {
		t.Errorf("Detect() = %v, want [[A]]", got)
	}
}

func TestDetect_Overlapping(t *testing.T) {
	// Two cycles sharing the edge a->b, plus a separate 2-cycle.
	g := build("a->b", "b->c", "c->a", "b->d", "d->a", "x->y", "y->x")
	got := Detect(g)
	want := [][]string{{"a", "b", "c"}, {"a", "b", "d"}, {"x", "y"}}
	if len(got) != len(want) {
		t.Fatalf("Detect() = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("cycle[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDetect_MaxCycles(t *testing.T) {
	g := build("a->b", "b->a", "b->c", "c->b", "c->d", "d->c")
	cycles, truncated := Detector{MaxCycles: 2}.Detect(g)
	if len(cycles) != 2 || !truncated {
		t.Errorf("Detect(MaxCycles=2) = %v, truncated=%v", cycles, truncated)
	}
	all, truncated := Detector{}.Detect(g)
	if len(all) != 3 || truncated {
		t.Errorf("Detect() = %v, truncated=%v", all, truncated)
	}
}

func TestStronglyConnected(t *testing.T) {
	g := build("a->b", "b->a", "b->c", "c->d", "d->c", "e->e")
	got := StronglyConnected(g)
	want := [][]string{{"a", "b"}, {"c", "d"}, {"e"}}
	if len(got) != len(want) {
		t.Fatalf("StronglyConnected() = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("scc[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !Nontrivial(g, []string{"e"}) {
		t.Error("self-loop singleton should be nontrivial")
	}
}

func TestStronglyConnected_DeepChain(t *testing.T) {
	// A long ring must not overflow the stack.
	g := graph.New(nil)
	const n = 100000
	for i := 0; i < n; i++ {
		_ = g.AddEdge(fmt.Sprintf("n%06d", i), fmt.Sprintf("n%06d", (i+1)%n), nil)
	}
	comps := StronglyConnected(g)
	if len(comps) != 1 || len(comps[0]) != n {
		t.Errorf("ring of %d nodes gave %d components", n, len(comps))
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in, want []string
	}{
		{[]string{"c", "a", "b"}, []string{"a", "b", "c"}},
		{[]string{"b", "c", "a", "b"}, []string{"a", "b", "c"}},
		{[]string{"x"}, []string{"x"}},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("Canonical(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// toGonum maps a graph onto gonum's simple.DirectedGraph.
func toGonum(g *graph.Graph) (*simple.DirectedGraph, map[int64]string) {
	dg := simple.NewDirectedGraph()
	ids := make(map[string]int64)
	names := make(map[int64]string)
	for i, n := range g.Nodes() {
		ids[n] = int64(i)
		names[int64(i)] = n
		dg.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges() {
		dg.SetEdge(simple.Edge{F: simple.Node(ids[e.From]), T: simple.Node(ids[e.To])})
	}
	return dg, names
}

func key(nodes []gonum.Node, names map[int64]string) string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = names[n.ID()]
	}
	return strings.Join(out, ",")
}

func randomGraph(rng *rand.Rand, n, m int) *graph.Graph {
	g := graph.New(nil)
	for i := 0; i < n; i++ {
		_ = g.AddNode(fmt.Sprintf("v%02d", i), nil)
	}
	for i := 0; i < m; i++ {
		a, b := rng.Intn(n), rng.Intn(n)
		if a == b {
			continue
		}
		_ = g.AddEdge(fmt.Sprintf("v%02d", a), fmt.Sprintf("v%02d", b), nil)
	}
	return g
}

func TestDetect_MatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 30; round++ {
		g := randomGraph(rng, 8, 14)
		dg, names := toGonum(g)

		want := make(map[string]bool)
		for _, c := range topo.DirectedCyclesIn(dg) {
			var ids []string
			for _, n := range c {
				ids = append(ids, names[n.ID()])
			}
			want[strings.Join(Canonical(ids), ",")] = true
		}

		got := Detect(g)
		if len(got) != len(want) {
			t.Fatalf("round %d: Detect() found %d cycles, gonum %d", round, len(got), len(want))
		}
		for _, c := range got {
			if !want[strings.Join(c, ",")] {
				t.Errorf("round %d: cycle %v not reported by gonum", round, c)
			}
			if !Exists(g, c) {
				t.Errorf("round %d: cycle %v has a missing edge", round, c)
			}
		}
	}
}

func TestStronglyConnected_MatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for round := 0; round < 30; round++ {
		g := randomGraph(rng, 10, 15)
		dg, names := toGonum(g)

		want := make(map[string]bool)
		for _, comp := range topo.TarjanSCC(dg) {
			var ids []string
			for _, n := range comp {
				ids = append(ids, names[n.ID()])
			}
			slices.Sort(ids)
			want[strings.Join(ids, ",")] = true
		}

		got := StronglyConnected(g)
		if len(got) != len(want) {
			t.Fatalf("round %d: %d components, gonum %d", round, len(got), len(want))
		}
		for _, c := range got {
			if !want[strings.Join(c, ",")] {
				t.Errorf("round %d: component %v not reported by gonum", round, c)
			}
		}
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies() {
		got, err := ParseStrategy(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStrategy(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseStrategy("delete_everything"); !errors.Is(err, errors.ErrCodeInvalidStrategy) {
		t.Errorf("ParseStrategy(unknown) error = %v", err)
	}
}

func TestSuggest_Pure(t *testing.T) {
	g := build("A->B", "B->C", "C->A")
	before := g.Edges()
	for _, s := range Strategies() {
		if _, err := Suggest(g, []string{"A", "B", "C"}, s); err != nil {
			t.Fatalf("Suggest(%v): %v", s, err)
		}
	}
	if !slices.EqualFunc(before, g.Edges(), func(a, b graph.Edge) bool { return a.From == b.From && a.To == b.To }) {
		t.Error("Suggest mutated the graph")
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d after Suggest", g.NodeCount())
	}
}

func TestSuggest_Targets(t *testing.T) {
	// api <-> store, and two more modules depending on store.
	g := build("api->store", "store->api", "cli->store", "worker->store", "api->log", "store->log")

	tests := []struct {
		strategy Strategy
		remove   Edge
		newNode  string
	}{
		// store: I = 2/(3+2)=0.4, api: I = 2/(1+2)=0.67 -> store->api increases instability most.
		{InvertEdge, Edge{"store", "api"}, ""},
		// store has 3 dependents.
		{ExtractInterface, Edge{"api", "store"}, "store.iface"},
		// both directions share "log"; tie broken lexicographically.
		{ExtractSharedModule, Edge{"api", "store"}, "api+store.shared"},
	}
	for _, tt := range tests {
		s, err := Suggest(g, []string{"store", "api"}, tt.strategy)
		if err != nil {
			t.Fatalf("Suggest(%v): %v", tt.strategy, err)
		}
		if s.Remove != tt.remove {
			t.Errorf("Suggest(%v).Remove = %v, want %v", tt.strategy, s.Remove, tt.remove)
		}
		if s.NewNode != tt.newNode {
			t.Errorf("Suggest(%v).NewNode = %q, want %q", tt.strategy, s.NewNode, tt.newNode)
		}
		if !slices.Equal(s.Cycle, []string{"api", "store"}) {
			t.Errorf("Suggest(%v).Cycle = %v, want canonical [api store]", tt.strategy, s.Cycle)
		}
		if s.Reason == "" {
			t.Errorf("Suggest(%v) has no reason", tt.strategy)
		}
	}
}

func TestSuggest_InvalidCycle(t *testing.T) {
	g := build("A->B", "B->C")
	if _, err := Suggest(g, []string{"A", "B", "C"}, InvertEdge); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Suggest(non-cycle) error = %v, want INVALID_INPUT", err)
	}
	if _, err := Suggest(g, []string{"A", "Q"}, InvertEdge); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Suggest(unknown node) error = %v, want NOT_FOUND", err)
	}
	g2 := build("A->B", "B->A")
	if _, err := Suggest(g2, []string{"A", "B"}, Strategy(99)); !errors.Is(err, errors.ErrCodeInvalidStrategy) {
		t.Errorf("Suggest(bad strategy) error = %v", err)
	}
}

func TestApply(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			g := build("A->B", "B->C", "C->A")
			sug, err := Apply(g, []string{"A", "B", "C"}, s)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if g.HasEdge(sug.Remove.From, sug.Remove.To) {
				t.Errorf("edge %v still present", sug.Remove)
			}
			for _, e := range sug.Add {
				if !g.HasEdge(e.From, e.To) {
					t.Errorf("edge %v not added", e)
				}
			}
			if Exists(g, []string{"A", "B", "C"}) {
				t.Error("cycle persists")
			}
		})
	}
}

func TestApply_Ineffective(t *testing.T) {
	g := build("A->A", "A->B")
	_, err := Apply(g, []string{"A"}, InvertEdge)
	if !errors.Is(err, errors.ErrCodeResolutionIneffective) {
		t.Fatalf("Apply(invert self-loop) error = %v, want RESOLUTION_INEFFECTIVE", err)
	}
	if !g.HasEdge("A", "A") || g.EdgeCount() != 2 {
		t.Errorf("graph not restored: edges = %v", g.Edges())
	}

	// Extracting an interface does break a self-loop.
	if _, err := Apply(g, []string{"A"}, ExtractInterface); err != nil {
		t.Errorf("Apply(extract_interface on self-loop): %v", err)
	}
	if len(Detect(g)) != 0 {
		t.Errorf("cycles remain: %v", Detect(g))
	}
}

func TestApply_Frozen(t *testing.T) {
	g := build("A->B", "B->A")
	g.Freeze()
	if _, err := Apply(g, []string{"A", "B"}, InvertEdge); !errors.Is(err, errors.ErrCodeGraphFrozen) {
		t.Errorf("Apply on frozen graph error = %v", err)
	}
}

func TestAnalyze(t *testing.T) {
	g := build("a->b", "b->a", "c->d")
	a, err := Detector{}.Analyze(g, ExtractInterface)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Cycles) != 1 || len(a.Suggestions) != 1 {
		t.Fatalf("Analyze() = %+v", a)
	}
	if a.Suggestions[0].Strategy != ExtractInterface {
		t.Errorf("strategy = %v", a.Suggestions[0].Strategy)
	}

	empty, _ := Detector{}.Analyze(build("a->b"), InvertEdge)
	if empty.Cycles == nil {
		t.Error("Cycles should be an empty list, not nil")
	}
}

func TestBackEdges(t *testing.T) {
	g := build("a->b", "b->c", "c->a", "c->d", "d->d")
	back := BackEdges(g)
	want := []Edge{{"c", "a"}, {"d", "d"}}
	if !slices.Equal(back, want) {
		t.Errorf("BackEdges() = %v, want %v", back, want)
	}

	removed, err := BreakCycles(g)
	if err != nil || !slices.Equal(removed, want) {
		t.Fatalf("BreakCycles() = %v, %v, want %v", removed, err, want)
	}
	if len(Detect(g)) != 0 {
		t.Errorf("graph still cyclic: %v", Detect(g))
	}

	g.Freeze()
	if _, err := BreakCycles(g); !errors.Is(err, errors.ErrCodeGraphFrozen) {
		t.Errorf("BreakCycles(frozen) error = %v, want GRAPH_FROZEN", err)
	}
}
