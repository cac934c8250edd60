package coupling

import (
	"math"
	"testing"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func deps(t *testing.T) *graph.DependencyGraph {
	t.Helper()
	dg := graph.NewDependencyGraph()
	for _, m := range []struct {
		id  string
		abs float64
	}{{"app", 0}, {"core", 0.5}, {"util", 0}, {"api", 1}} {
		if err := dg.AddModule(m.id, graph.ModuleInfo{Abstractness: m.abs}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]string{{"app", "core"}, {"app", "util"}, {"core", "util"}, {"api", "core"}} {
		if err := dg.AddImport(e[0], e[1], graph.ImportStatic); err != nil {
			t.Fatal(err)
		}
	}
	return dg
}

func TestInstability(t *testing.T) {
	tests := []struct {
		ca, ce int
		want   float64
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 2, 1},
		{1, 1, 0.5},
		{1, 3, 0.75},
	}
	for _, tt := range tests {
		if got := Instability(tt.ca, tt.ce); !approx(got, tt.want) {
			t.Errorf("Instability(%d, %d) = %v, want %v", tt.ca, tt.ce, got, tt.want)
		}
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, i, want float64
	}{
		{0, 1, 0},
		{1, 0, 0},
		{0.5, 0.5, 0},
		{0, 0, 1 / math.Sqrt2},
		{1, 1, 1 / math.Sqrt2},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.i); !approx(got, tt.want) {
			t.Errorf("Distance(%v, %v) = %v, want %v", tt.a, tt.i, got, tt.want)
		}
	}
}

func TestAnalyze(t *testing.T) {
	got := Analyzer{}.Analyze(deps(t))

	want := map[string]Metrics{
		"app":  {Afferent: 0, Efferent: 2, Instability: 1, Abstractness: 0, Distance: 0},
		"core": {Afferent: 2, Efferent: 1, Instability: 1.0 / 3, Abstractness: 0.5, Distance: math.Abs(0.5+1.0/3-1) / math.Sqrt2},
		"util": {Afferent: 2, Efferent: 0, Instability: 0, Abstractness: 0, Distance: 1 / math.Sqrt2},
		"api":  {Afferent: 0, Efferent: 1, Instability: 1, Abstractness: 1, Distance: 1 / math.Sqrt2},
	}
	if len(got) != len(want) {
		t.Fatalf("Analyze() returned %d modules, want %d", len(got), len(want))
	}
	for id, w := range want {
		g := got[id]
		if g.Afferent != w.Afferent || g.Efferent != w.Efferent ||
			!approx(g.Instability, w.Instability) || !approx(g.Abstractness, w.Abstractness) ||
			!approx(g.Distance, w.Distance) {
			t.Errorf("Analyze()[%s] = %+v, want %+v", id, g, w)
		}
	}
}

func TestAnalyze_SelfImport(t *testing.T) {
	dg := deps(t)
	if err := dg.AddImport("util", "util", graph.ImportRelative); err != nil {
		t.Fatal(err)
	}
	if err := dg.AddImport("api", "api", graph.ImportStatic); err != nil {
		t.Fatal(err)
	}
	m := Analyzer{}.Analyze(dg)

	tests := []struct {
		id       string
		ca, ce   int
		wantInst float64
	}{
		{"util", 2, 0, 0},
		{"api", 0, 1, 1},
	}
	for _, tt := range tests {
		got := m[tt.id]
		if got.Afferent != tt.ca || got.Efferent != tt.ce {
			t.Errorf("%s: Ca, Ce = %d, %d, want %d, %d", tt.id, got.Afferent, got.Efferent, tt.ca, tt.ce)
		}
		if !approx(got.Instability, tt.wantInst) {
			t.Errorf("%s: Instability = %v, want %v", tt.id, got.Instability, tt.wantInst)
		}
	}
}

func TestAnalyze_AbstractnessOverride(t *testing.T) {
	a := Analyzer{Abstractness: map[string]float64{"util": 1, "app": 3}}
	got := a.Analyze(deps(t))
	if !approx(got["util"].Abstractness, 1) {
		t.Errorf("util abstractness = %v, want override 1", got["util"].Abstractness)
	}
	if !approx(got["app"].Abstractness, 1) {
		t.Errorf("app abstractness = %v, want clamped 1", got["app"].Abstractness)
	}
	if !approx(got["core"].Abstractness, 0.5) {
		t.Errorf("core abstractness = %v, want node value 0.5", got["core"].Abstractness)
	}
}

func TestModule(t *testing.T) {
	dg := deps(t)
	m, err := Analyzer{}.Module(dg, "util")
	if err != nil {
		t.Fatal(err)
	}
	if m.Instability != 0 || m.Afferent != 2 {
		t.Errorf("Module(util) = %+v", m)
	}
	if _, err := (Analyzer{}).Module(dg, "nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Module(unknown) error = %v, want NOT_FOUND", err)
	}
}

func TestSuggestImprovements(t *testing.T) {
	tests := []struct {
		name    string
		m       Metrics
		actions []Action
	}{
		{"balanced", Metrics{Afferent: 1, Efferent: 1, Instability: 0.5, Abstractness: 0.5}, nil},
		{"unstable leaf", Metrics{Efferent: 3, Instability: 1}, nil},
		{"unstable with dependents", Metrics{Afferent: 1, Efferent: 9, Instability: 0.9, Abstractness: 0.1}, []Action{Split}},
		{"zone of pain", Metrics{Afferent: 5, Distance: 0.7}, []Action{Decouple}},
		{"both", Metrics{Afferent: 1, Efferent: 9, Instability: 0.9, Abstractness: 0.9, Distance: 0.56}, []Action{Split, Decouple}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestImprovements("m", tt.m, 0.5)
			if len(got) != len(tt.actions) {
				t.Fatalf("SuggestImprovements() = %+v, want actions %v", got, tt.actions)
			}
			for i, a := range tt.actions {
				if got[i].Action != a {
					t.Errorf("suggestion[%d].Action = %v, want %v", i, got[i].Action, a)
				}
				if got[i].Module != "m" || got[i].Message == "" {
					t.Errorf("suggestion[%d] = %+v", i, got[i])
				}
			}
		})
	}
}

func TestSuggestAll_Deterministic(t *testing.T) {
	metrics := Analyzer{}.Analyze(deps(t))
	first := SuggestAll(metrics, 0.5)
	for i := 0; i < 10; i++ {
		again := SuggestAll(metrics, 0.5)
		if len(again) != len(first) {
			t.Fatalf("SuggestAll() length changed: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("SuggestAll()[%d] = %+v, want %+v", j, again[j], first[j])
			}
		}
	}
	// util (D=0.71) and api (D=0.71) are flagged; app has no dependents.
	if len(first) != 2 || first[0].Module != "api" || first[1].Module != "util" {
		t.Errorf("SuggestAll() = %+v", first)
	}
}
