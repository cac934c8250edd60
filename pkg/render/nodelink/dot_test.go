package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/render"
)

func sampleDiagram() render.Diagram {
	return render.Diagram{
		Title: "deps",
		Nodes: []render.Node{
			{ID: "api", Label: "api", Group: "src/api", Highlight: true},
			{ID: "api.Interface", Label: "api.Interface", Synthetic: true},
			{ID: "store", Label: "store", Group: "src/store", Highlight: true},
			{ID: "util", Label: "util"},
		},
		Edges: []render.Edge{
			{From: "api", To: "store", Highlight: true},
			{From: "store", To: "api", Highlight: true},
			{From: "api", To: "util", Dashed: true},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleDiagram(), Options{})

	want := []string{
		"digraph G {",
		"rankdir=TB;",
		`label="deps";`,
		`"api" [label="api", color="#d62728", penwidth=2];`,
		`"api.Interface" [label="api.Interface", style="rounded,filled,dashed", fillcolor=lightgrey, fontcolor=black];`,
		`"util" [label="util"];`,
		`"api" -> "store" [color="#d62728", penwidth=2];`,
		`"api" -> "util" [style=dashed];`,
	}
	for _, w := range want {
		if !strings.Contains(dot, w) {
			t.Errorf("ToDOT() missing %q\n%s", w, dot)
		}
	}
	if strings.Contains(dot, "subgraph") {
		t.Error("ToDOT() without Cluster should not emit subgraphs")
	}
}

func TestToDOT_Cluster(t *testing.T) {
	dot := ToDOT(sampleDiagram(), Options{Cluster: true})

	if got := strings.Count(dot, "subgraph cluster_"); got != 2 {
		t.Errorf("ToDOT() clusters = %d, want 2\n%s", got, dot)
	}
	if !strings.Contains(dot, `label="src/api";`) {
		t.Errorf("ToDOT() missing cluster label\n%s", dot)
	}
	if !strings.Contains(dot, `    "store" [`) {
		t.Errorf("ToDOT() store should be nested in its cluster\n%s", dot)
	}
	if !strings.Contains(dot, "\n  \"util\" [") {
		t.Errorf("ToDOT() ungrouped util should be top level\n%s", dot)
	}
}

func TestToDOT_FromGraph(t *testing.T) {
	g := graph.New(nil)
	_ = g.AddEdge("app", "database", nil)
	_ = g.AddEdge("app", "auth", nil)

	d, err := render.Build(g, render.Options{})
	if err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(d, Options{})
	if !strings.Contains(dot, `"app" -> "auth";`) || !strings.Contains(dot, `"app" -> "database";`) {
		t.Errorf("ToDOT() missing edges\n%s", dot)
	}
}

func TestFmtLabel(t *testing.T) {
	n := render.Node{ID: "f", Label: "f", Meta: graph.Metadata{"line": 12, "file": "a.go"}}

	if got := fmtLabel(n, false); got != "f" {
		t.Errorf("fmtLabel() = %q, want f", got)
	}
	if got, want := fmtLabel(n, true), "f\nfile: a.go\nline: 12"; got != want {
		t.Errorf("fmtLabel() detailed = %q, want %q", got, want)
	}
	if got := fmtLabel(render.Node{Label: "bare"}, true); got != "bare" {
		t.Errorf("fmtLabel() without meta = %q, want bare", got)
	}
}

func TestFmtEdgeAttrs(t *testing.T) {
	tests := []struct {
		e    render.Edge
		want int
	}{
		{render.Edge{}, 0},
		{render.Edge{Dashed: true}, 1},
		{render.Edge{Highlight: true}, 2},
		{render.Edge{Dashed: true, Highlight: true}, 3},
		{render.Edge{Back: true}, 2},
		{render.Edge{Back: true, Dashed: true}, 2},
	}
	for _, tt := range tests {
		if got := fmtEdgeAttrs(tt.e); len(got) != tt.want {
			t.Errorf("fmtEdgeAttrs(%+v) = %v, want %d attrs", tt.e, got, tt.want)
		}
	}
	if got := fmtEdgeAttrs(render.Edge{Back: true, Dashed: true}); got[0] != "style=dotted" {
		t.Errorf("back edge style = %q, want style=dotted", got[0])
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleDiagram(), Options{Cluster: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	_, err := RenderSVG(context.Background(), `not valid DOT {{{`)
	if err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
