package render

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

func diamond(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	for _, e := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}, {"a", "d"}} {
		if err := g.AddEdge(e[0], e[1], nil); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestTransitiveReduction(t *testing.T) {
	tests := []struct {
		name    string
		edges   [][2]string
		removed int
		gone    [][2]string
	}{
		{"empty", nil, 0, nil},
		{"chain shortcut", [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}}, 1, [][2]string{{"a", "c"}}},
		{"diamond shortcut", [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}, {"a", "d"}}, 1, [][2]string{{"a", "d"}}},
		{"long shortcut", [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"a", "d"}, {"b", "d"}}, 2, [][2]string{{"a", "d"}, {"b", "d"}}},
		{"already minimal", [][2]string{{"a", "b"}, {"a", "c"}}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New(nil)
			for _, e := range tt.edges {
				_ = g.AddEdge(e[0], e[1], nil)
			}
			before := g.EdgeCount()
			if got := TransitiveReduction(g); got != tt.removed {
				t.Errorf("TransitiveReduction() = %d, want %d", got, tt.removed)
			}
			if g.EdgeCount() != before-tt.removed {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), before-tt.removed)
			}
			for _, e := range tt.gone {
				if g.HasEdge(e[0], e[1]) {
					t.Errorf("edge %s->%s should be removed", e[0], e[1])
				}
			}
		})
	}
}

func TestTransitiveReduction_KeepsMeta(t *testing.T) {
	g := graph.New(nil)
	_ = g.AddEdge("a", "b", graph.Metadata{graph.MetaConditional: true})
	_ = g.AddEdge("b", "c", nil)
	_ = g.AddEdge("a", "c", nil)
	TransitiveReduction(g)
	meta, ok := g.EdgeMeta("a", "b")
	if !ok || meta[graph.MetaConditional] != true {
		t.Errorf("EdgeMeta(a, b) = %v, want conditional kept", meta)
	}
}

func TestBuild(t *testing.T) {
	calls := graph.NewCallGraph()
	_ = calls.AddFunction("main", graph.FunctionInfo{File: "main.go", Kind: graph.KindFunction})
	_ = calls.AddFunction("helper", graph.FunctionInfo{File: "util.go"})
	_ = calls.AddCall("main", "helper", graph.CallSite{Conditional: true})
	_ = calls.AddCall("helper", "main", graph.CallSite{})
	_ = calls.AddCall("main", "log", graph.CallSite{})

	d, err := Build(calls.Graph, Options{Title: "calls", Highlight: [][]string{{"main", "helper"}}, Meta: true})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if d.Title != "calls" {
		t.Errorf("Title = %q, want calls", d.Title)
	}
	if len(d.Nodes) != 3 || len(d.Edges) != 3 {
		t.Fatalf("Build() = %d nodes %d edges, want 3 and 3", len(d.Nodes), len(d.Edges))
	}

	nodes := make(map[string]Node)
	for _, n := range d.Nodes {
		nodes[n.ID] = n
	}
	if nodes["main"].Group != "main.go" || !nodes["main"].Highlight {
		t.Errorf("main = %+v, want group main.go and highlighted", nodes["main"])
	}
	if nodes["main"].Meta[graph.MetaKind] != graph.KindFunction {
		t.Errorf("main meta = %v, want kind copied", nodes["main"].Meta)
	}
	if nodes["log"].Highlight || nodes["log"].Group != "" {
		t.Errorf("log = %+v, want plain node", nodes["log"])
	}

	for _, e := range d.Edges {
		switch [2]string{e.From, e.To} {
		case [2]string{"main", "helper"}:
			if !e.Highlight || !e.Dashed {
				t.Errorf("main->helper = %+v, want highlighted and dashed", e)
			}
		case [2]string{"helper", "main"}:
			if !e.Highlight || e.Dashed {
				t.Errorf("helper->main = %+v, want highlighted solid", e)
			}
		case [2]string{"main", "log"}:
			if e.Highlight {
				t.Errorf("main->log = %+v, want not highlighted", e)
			}
		}
	}
}

func TestBuild_TypeOnlyDashed(t *testing.T) {
	deps := graph.NewDependencyGraph()
	_ = deps.AddModule("api", graph.ModuleInfo{Path: "src/api.ts"})
	_ = deps.AddImport("api", "types", graph.ImportTypeOnly)
	_ = deps.AddImport("api", "store", graph.ImportStatic)

	d, err := Build(deps.Graph, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for _, e := range d.Edges {
		if want := e.To == "types"; e.Dashed != want {
			t.Errorf("edge %s->%s Dashed = %v, want %v", e.From, e.To, e.Dashed, want)
		}
	}
	if d.Nodes[0].ID != "api" || d.Nodes[0].Group != "src/api.ts" {
		t.Errorf("Nodes[0] = %+v, want api grouped by path", d.Nodes[0])
	}
	if d.Nodes[0].Meta != nil {
		t.Error("Meta should be omitted unless requested")
	}
}

func TestBuild_Reduce(t *testing.T) {
	g := diamond(t)
	g.Freeze()

	d, err := Build(g, Options{Reduce: true})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(d.Edges) != 4 {
		t.Errorf("reduced edges = %d, want 4", len(d.Edges))
	}
	if g.EdgeCount() != 5 {
		t.Errorf("input modified: EdgeCount() = %d, want 5", g.EdgeCount())
	}

}

func TestBuild_ReduceCyclic(t *testing.T) {
	// x -> y -> z -> x plus the shortcut x -> z, implied by x -> y -> z.
	g := graph.New(nil)
	_ = g.AddEdge("x", "y", nil)
	_ = g.AddEdge("y", "z", nil)
	_ = g.AddEdge("z", "x", graph.Metadata{graph.MetaConditional: true})
	_ = g.AddEdge("x", "z", nil)
	g.Freeze()

	d, err := Build(g, Options{Reduce: true})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	want := []Edge{
		{From: "x", To: "y"},
		{From: "y", To: "z"},
		{From: "z", To: "x", Dashed: true, Back: true},
	}
	if !slices.Equal(d.Edges, want) {
		t.Errorf("Edges = %+v, want %+v", d.Edges, want)
	}
	if g.EdgeCount() != 4 {
		t.Errorf("input modified: EdgeCount() = %d, want 4", g.EdgeCount())
	}

	plain, err := Build(g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range plain.Edges {
		if e.Back {
			t.Errorf("edge %s -> %s marked Back without Reduce", e.From, e.To)
		}
	}
}

func TestDiagram_Roots(t *testing.T) {
	g := diamond(t)
	_ = g.AddEdge("loop", "loop", nil)
	_ = g.AddNode("lonely", nil)
	d, _ := Build(g, Options{})

	want := []string{"a", "lonely", "loop"}
	if got := d.Roots(); !slices.Equal(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
	if got := d.Successors()["a"]; !slices.Equal(got, []string{"b", "c", "d"}) {
		t.Errorf("Successors()[a] = %v, want [b c d]", got)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range Formats {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) error: %v", f, err)
		}
	}
	if err := ValidateFormat("pdf"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ValidateFormat(pdf) error = %v, want UNSUPPORTED", err)
	}
}

func TestMarshal(t *testing.T) {
	d, _ := Build(diamond(t), Options{Title: "deps"})
	data, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var got Diagram
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got.Title != "deps" || len(got.Nodes) != 4 || len(got.Edges) != 5 {
		t.Errorf("round trip = %+v", got)
	}
}
