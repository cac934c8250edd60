package graph

import (
	"slices"
	"testing"

	"github.com/matzehuels/graphscope/pkg/errors"
)

func triangle(t *testing.T) *Graph {
	t.Helper()
	g := New(nil)
	for _, e := range [][2]string{{"A", "B"}, {"B", "C"}, {"A", "C"}} {
		if err := g.AddEdge(e[0], e[1], nil); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddEdge_CreatesEndpoints(t *testing.T) {
	g := New(nil)
	if err := g.AddEdge("a", "b", nil); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if !g.HasNode("a") || !g.HasNode("b") {
		t.Errorf("endpoints not created: nodes = %v", g.Nodes())
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
	m, ok := g.Node("b")
	if !ok || m == nil || len(m) != 0 {
		t.Errorf("Node(b) = %v, %v, want empty metadata", m, ok)
	}
}

func TestAddEdge_Idempotent(t *testing.T) {
	g := New(nil)
	_ = g.AddEdge("a", "b", Metadata{"line": 1})
	_ = g.AddEdge("a", "b", nil)

	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if m, _ := g.EdgeMeta("a", "b"); m["line"] != 1 {
		t.Errorf("nil meta on repeat should keep metadata, got %v", m)
	}

	_ = g.AddEdge("a", "b", Metadata{"line": 7})
	if m, _ := g.EdgeMeta("a", "b"); m["line"] != 7 {
		t.Errorf("non-nil meta on repeat should replace metadata, got %v", m)
	}
	if p := g.In("b"); !slices.Equal(p, []string{"a"}) {
		t.Errorf("In(b) = %v, want [a]", p)
	}
}

func TestAddEdge_PreservesExistingNodeMeta(t *testing.T) {
	g := New(nil)
	_ = g.AddNode("a", Metadata{"file": "a.go"})
	_ = g.AddEdge("a", "b", nil)
	if m, _ := g.Node("a"); m["file"] != "a.go" {
		t.Errorf("AddEdge overwrote metadata of existing node: %v", m)
	}
}

func TestAddNode_LastWriteWins(t *testing.T) {
	g := New(nil)
	if err := g.AddNode("x", Metadata{"v": 1}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode("x", Metadata{"v": 2}); err != nil {
		t.Fatalf("re-adding a node must not fail: %v", err)
	}
	if m, _ := g.Node("x"); m["v"] != 2 {
		t.Errorf("Node(x) = %v, want v=2", m)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
	if err := g.AddNode("", nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("AddNode(\"\") error = %v, want INVALID_INPUT", err)
	}
}

func TestNeighbours(t *testing.T) {
	g := triangle(t)

	succ, err := g.Successors("A")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(succ, []string{"B", "C"}) {
		t.Errorf("Successors(A) = %v, want [B C]", succ)
	}

	pred, err := g.Predecessors("C")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(pred, []string{"A", "B"}) {
		t.Errorf("Predecessors(C) = %v, want [A B]", pred)
	}

	if succ, _ := g.Successors("C"); len(succ) != 0 {
		t.Errorf("Successors(C) = %v, want empty", succ)
	}
}

func TestNeighbours_UnknownNode(t *testing.T) {
	g := triangle(t)
	if _, err := g.Successors("Z"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Successors(Z) error = %v, want NOT_FOUND", err)
	}
	if _, err := g.Predecessors("Z"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Predecessors(Z) error = %v, want NOT_FOUND", err)
	}
}

func TestSelfLoop(t *testing.T) {
	g := New(nil)
	_ = g.AddEdge("a", "a", nil)
	if !g.HasEdge("a", "a") {
		t.Fatal("self-loop not recorded")
	}
	if g.InDegree("a") != 1 || g.OutDegree("a") != 1 {
		t.Errorf("degrees = in %d out %d, want 1/1", g.InDegree("a"), g.OutDegree("a"))
	}
	if err := g.RemoveNode("a"); err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != 0 || g.NodeCount() != 0 {
		t.Errorf("after RemoveNode: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestRemoveEdge(t *testing.T) {
	g := triangle(t)
	ok, err := g.RemoveEdge("A", "C")
	if err != nil || !ok {
		t.Fatalf("RemoveEdge(A, C) = %v, %v", ok, err)
	}
	if g.HasEdge("A", "C") || slices.Contains(g.In("C"), "A") {
		t.Error("edge or inverse index entry survived removal")
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if ok, _ := g.RemoveEdge("A", "C"); ok {
		t.Error("second RemoveEdge should report false")
	}
}

func TestRemoveNode(t *testing.T) {
	g := triangle(t)
	if err := g.RemoveNode("B"); err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if !slices.Equal(g.In("C"), []string{"A"}) {
		t.Errorf("In(C) = %v, want [A]", g.In("C"))
	}
	if err := g.RemoveNode("B"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("RemoveNode(B) twice error = %v, want NOT_FOUND", err)
	}
}

func TestFreeze(t *testing.T) {
	g := triangle(t)
	g.Freeze()

	if err := g.AddNode("D", nil); !errors.Is(err, errors.ErrCodeGraphFrozen) {
		t.Errorf("AddNode on frozen graph error = %v", err)
	}
	if err := g.AddEdge("A", "D", nil); !errors.Is(err, errors.ErrCodeGraphFrozen) {
		t.Errorf("AddEdge on frozen graph error = %v", err)
	}
	if _, err := g.RemoveEdge("A", "B"); !errors.Is(err, errors.ErrCodeGraphFrozen) {
		t.Errorf("RemoveEdge on frozen graph error = %v", err)
	}

	c := g.Clone()
	if c.Frozen() {
		t.Error("Clone() should not be frozen")
	}
	if err := c.AddEdge("C", "A", nil); err != nil {
		t.Errorf("AddEdge on clone: %v", err)
	}
	if g.HasEdge("C", "A") {
		t.Error("mutating the clone changed the original")
	}
}

func TestEdgesSorted(t *testing.T) {
	g := New(nil)
	_ = g.AddEdge("b", "a", nil)
	_ = g.AddEdge("a", "c", nil)
	_ = g.AddEdge("a", "b", nil)

	var got [][2]string
	for _, e := range g.Edges() {
		got = append(got, [2]string{e.From, e.To})
	}
	want := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "a"}}
	if !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
}

func TestSourcesSinks(t *testing.T) {
	g := triangle(t)
	_ = g.AddNode("lonely", nil)

	if got := g.Sources(); !slices.Equal(got, []string{"A", "lonely"}) {
		t.Errorf("Sources() = %v", got)
	}
	if got := g.Sinks(); !slices.Equal(got, []string{"C", "lonely"}) {
		t.Errorf("Sinks() = %v", got)
	}
}

func TestCallGraph(t *testing.T) {
	cg := NewCallGraph()
	_ = cg.AddFunction("main", FunctionInfo{File: "main.go", Kind: KindFunction, Line: 3, Exported: false})
	_ = cg.AddCall("main", "run", CallSite{File: "main.go", Line: 5, Conditional: true})

	if got := cg.FileOf("main"); got != "main.go" {
		t.Errorf("FileOf(main) = %q", got)
	}
	if got := cg.FileOf("run"); got != "" {
		t.Errorf("FileOf(run) = %q, want empty for implicit node", got)
	}
	callers, _ := cg.Callers("run")
	if !slices.Equal(callers, []string{"main"}) {
		t.Errorf("Callers(run) = %v", callers)
	}
	m, _ := cg.EdgeMeta("main", "run")
	if m[MetaConditional] != true || m[MetaLine] != 5 {
		t.Errorf("call site metadata = %v", m)
	}
}

func TestDependencyGraph(t *testing.T) {
	dg := NewDependencyGraph()
	_ = dg.AddModule("api", ModuleInfo{Path: "pkg/api", Abstractness: 0.25})
	_ = dg.AddImport("api", "store", "")

	if got := dg.Abstractness("api"); got != 0.25 {
		t.Errorf("Abstractness(api) = %v, want 0.25", got)
	}
	m, _ := dg.EdgeMeta("api", "store")
	if m[MetaImportKind] != string(ImportStatic) {
		t.Errorf("import kind = %v, want static", m[MetaImportKind])
	}
	deps, _ := dg.Dependents("store")
	if !slices.Equal(deps, []string{"api"}) {
		t.Errorf("Dependents(store) = %v", deps)
	}
}

func TestParseImportKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ImportKind
		wantErr bool
	}{
		{"", ImportStatic, false},
		{"relative", ImportRelative, false},
		{"type_only", ImportTypeOnly, false},
		{"weird", "", true},
	}
	for _, tt := range tests {
		got, err := ParseImportKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseImportKind(%q) = %v, %v", tt.in, got, err)
		}
	}
}
