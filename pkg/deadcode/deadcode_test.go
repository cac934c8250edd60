package deadcode

import (
	"slices"
	"testing"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

type fn struct {
	id, file, kind string
	exported       bool
}

func callGraph(t *testing.T, fns []fn, calls [][2]string) *graph.CallGraph {
	t.Helper()
	cg := graph.NewCallGraph()
	for _, f := range fns {
		kind := f.kind
		if kind == "" {
			kind = graph.KindFunction
		}
		if err := cg.AddFunction(f.id, graph.FunctionInfo{File: f.file, Kind: kind, Exported: f.exported}); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range calls {
		if err := cg.AddCall(c[0], c[1], graph.CallSite{}); err != nil {
			t.Fatal(err)
		}
	}
	return cg
}

func sample(t *testing.T) *graph.CallGraph {
	return callGraph(t,
		[]fn{
			{id: "main", file: "cmd/main.go"},
			{id: "run", file: "cmd/main.go"},
			{id: "helper", file: "util/util.go"},
			{id: "orphan", file: "util/util.go"},
			{id: "legacy", file: "old/legacy.go"},
			{id: "legacyHelper", file: "old/legacy.go"},
			{id: "TestRun", file: "cmd/main_test.go", kind: graph.KindTest},
		},
		[][2]string{
			{"main", "run"},
			{"run", "helper"},
			{"legacy", "legacyHelper"},
			{"TestRun", "run"},
			{"run", "fmt.Println"},
		})
}

func TestDetect(t *testing.T) {
	r, err := NewAnalyzer(nil).Detect(sample(t), nil, Options{EntryPoints: []string{"main"}})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string][]string{
		"util/util.go":     {"orphan"},
		"old/legacy.go":    {"legacy", "legacyHelper"},
		"cmd/main_test.go": {"TestRun"},
	}
	if len(r.UnusedSymbols) != len(want) {
		t.Fatalf("UnusedSymbols = %v, want %v", r.UnusedSymbols, want)
	}
	for file, ids := range want {
		if !slices.Equal(r.UnusedSymbols[file], ids) {
			t.Errorf("UnusedSymbols[%s] = %v, want %v", file, r.UnusedSymbols[file], ids)
		}
	}
	if wantFiles := []string{"cmd/main_test.go", "old/legacy.go"}; !slices.Equal(r.UnusedFiles, wantFiles) {
		t.Errorf("UnusedFiles = %v, want %v", r.UnusedFiles, wantFiles)
	}
	// fmt.Println has no defining file and is not a candidate.
	if r.Stats.TotalSymbols != 7 {
		t.Errorf("TotalSymbols = %d, want 7", r.Stats.TotalSymbols)
	}
}

func TestDetect_Tests(t *testing.T) {
	r, err := NewAnalyzer(nil).Detect(sample(t), nil, Options{EntryPoints: []string{"main"}, IncludeTests: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.UnusedSymbols["cmd/main_test.go"]; ok {
		t.Errorf("test function reported as unused: %v", r.UnusedSymbols)
	}
}

func TestDetect_AllEntryPoints(t *testing.T) {
	cg := sample(t)
	var all []string
	for _, id := range cg.Nodes() {
		if cg.FileOf(id) != "" {
			all = append(all, id)
		}
	}
	r, err := NewAnalyzer(nil).Detect(cg, nil, Options{EntryPoints: all})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Items) != 0 || len(r.UnusedSymbols) != 0 || len(r.UnusedFiles) != 0 {
		t.Errorf("Detect(all entry points) = %+v, want nothing unused", r)
	}
}

func TestDetect_UnknownEntryPoint(t *testing.T) {
	_, err := NewAnalyzer(nil).Detect(sample(t), nil, Options{EntryPoints: []string{"nope"}})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Detect(unknown entry) error = %v, want NOT_FOUND", err)
	}
}

func TestDetect_Exported(t *testing.T) {
	cg := callGraph(t,
		[]fn{
			{id: "api.Handler", file: "api/api.go", exported: true},
			{id: "api.validate", file: "api/api.go"},
			{id: "api.unused", file: "api/api.go"},
		},
		[][2]string{{"api.Handler", "api.validate"}})

	r, err := NewAnalyzer(nil).Detect(cg, nil, Options{IncludeExported: true})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(r.UnusedSymbols["api/api.go"], []string{"api.unused"}) {
		t.Errorf("UnusedSymbols = %v", r.UnusedSymbols)
	}
	if len(r.UnusedFiles) != 0 {
		t.Errorf("UnusedFiles = %v, want none", r.UnusedFiles)
	}

	r, _ = NewAnalyzer(nil).Detect(cg, nil, Options{})
	if len(r.Items) != 3 {
		t.Fatalf("without entry points got %d items, want 3", len(r.Items))
	}
	for _, it := range r.Items {
		if it.Symbol == "api.Handler" && it.Confidence != ConfidenceExported {
			t.Errorf("exported item confidence = %v, want %v", it.Confidence, ConfidenceExported)
		}
	}
}

func TestDetect_Usages(t *testing.T) {
	cg := callGraph(t,
		[]fn{{id: "main", file: "main.py"}, {id: "on_event", file: "handlers.py"}},
		nil)
	usage := []Usage{
		{Symbol: "on_event", UsedBy: []string{"main"}},
		{Symbol: "Config", DefinedIn: "config.py", UsedBy: []string{"on_event"}},
		{Symbol: "Stale", DefinedIn: "config.py"},
	}
	r, err := NewAnalyzer(nil).Detect(cg, usage, Options{EntryPoints: []string{"main"}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(r.UnusedSymbols["config.py"], []string{"Stale"}) {
		t.Errorf("UnusedSymbols = %v, want only Stale", r.UnusedSymbols)
	}
	if _, ok := r.UnusedSymbols["handlers.py"]; ok {
		t.Error("symbol reached through a usage edge reported as unused")
	}
}

func TestDetect_Exclusions(t *testing.T) {
	cg := callGraph(t,
		[]fn{
			{id: "main", file: "main.go"},
			{id: "plugins.Register", file: "plugins/registry.go"},
			{id: "gen.Marshal", file: "api/types.pb.go"},
			{id: "server.String", file: "server/server.go", kind: graph.KindMethod},
			{id: "server.dead", file: "server/server.go"},
		},
		nil)

	r, err := NewAnalyzer(nil).Detect(cg, nil, Options{
		EntryPoints:       []string{"main"},
		ExcludePatterns:   []string{"plugins/**"},
		DefaultExclusions: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Items) != 1 || r.Items[0].Symbol != "server.dead" {
		t.Errorf("Items = %+v, want only server.dead", r.Items)
	}
	if r.Stats.Excluded != 3 {
		t.Errorf("Excluded = %d, want 3", r.Stats.Excluded)
	}
	// Excluded symbols keep their file alive.
	if len(r.UnusedFiles) != 0 {
		t.Errorf("UnusedFiles = %v, want none", r.UnusedFiles)
	}
}

func TestDetect_InvalidPattern(t *testing.T) {
	_, err := NewAnalyzer(nil).Detect(sample(t), nil, Options{ExcludePatterns: []string{"[unclosed"}})
	if !errors.Is(err, errors.ErrCodeInvalidPattern) {
		t.Errorf("Detect(bad pattern) error = %v, want INVALID_PATTERN", err)
	}
}

func TestDetect_Confidence(t *testing.T) {
	cg := callGraph(t,
		[]fn{
			{id: "main", file: "main.go"},
			{id: "a", file: "a.go"},
			{id: "b", file: "a.go"},
			{id: "T.m", file: "a.go", kind: graph.KindMethod},
			{id: "rec", file: "a.go"},
		},
		[][2]string{{"a", "b"}, {"rec", "rec"}})

	r, err := NewAnalyzer(nil).Detect(cg, nil, Options{EntryPoints: []string{"main"}})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{
		"a":   ConfidenceNoReferences,
		"b":   ConfidenceDeadCallers,
		"T.m": ConfidenceMethod,
		"rec": ConfidenceNoReferences,
	}
	for _, it := range r.Items {
		if w, ok := want[it.Symbol]; !ok || it.Confidence != w {
			t.Errorf("%s confidence = %v, want %v", it.Symbol, it.Confidence, w)
		}
		if it.Reason == "" {
			t.Errorf("%s has no reason", it.Symbol)
		}
	}
}

func TestShortName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"main", "main"},
		{"pkg/server.Run", "Run"},
		{"app/models.py::User.save", "save"},
		{"mod#fn", "fn"},
		{"trailing.", "trailing."},
	}
	for _, tt := range tests {
		if got := ShortName(tt.in); got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		file string
		want bool
	}{
		{"pkg/a_test.go", true},
		{"tests/test_models.py", true},
		{"src/app.test.ts", true},
		{"src/app.spec.js", true},
		{"src/__tests__/x.js", true},
		{"pkg/a.go", false},
		{"contest/main.py", false},
	}
	for _, tt := range tests {
		if got := IsTestFile(tt.file); got != tt.want {
			t.Errorf("IsTestFile(%q) = %v, want %v", tt.file, got, tt.want)
		}
	}
}
