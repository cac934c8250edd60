// Package insights derives project-level summaries from file metrics and the
// dependency graph: size and complexity totals, recognisable architectural
// patterns, and a prioritised list of improvement suggestions.
package insights

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/graphscope/pkg/coupling"
	"github.com/matzehuels/graphscope/pkg/graph"
)

// FileMetrics are the per-file measurements reported by the parser.
type FileMetrics struct {
	LinesOfCode  int     `json:"lines_of_code" yaml:"lines_of_code" toml:"lines_of_code"`
	Complexity   float64 `json:"complexity" yaml:"complexity" toml:"complexity"`
	Abstractness float64 `json:"abstractness,omitempty" yaml:"abstractness,omitempty" toml:"abstractness,omitempty"`
}

// FileComplexity pairs a file with its cyclomatic complexity.
type FileComplexity struct {
	File       string  `json:"file"`
	Complexity float64 `json:"complexity"`
}

// Summary aggregates file metrics.
type Summary struct {
	TotalFiles        int              `json:"total_files"`
	TotalLinesOfCode  int              `json:"total_lines_of_code"`
	AverageComplexity float64          `json:"average_complexity"`
	MostComplex       []FileComplexity `json:"most_complex_files"`
}

// Summarize totals metrics and lists the top most complex files, highest
// first. Files with equal complexity are ordered by name.
func Summarize(metrics map[string]FileMetrics, top int) Summary {
	s := Summary{TotalFiles: len(metrics), MostComplex: []FileComplexity{}}
	var sum float64
	for _, m := range metrics {
		s.TotalLinesOfCode += m.LinesOfCode
		sum += m.Complexity
	}
	if len(metrics) > 0 {
		s.AverageComplexity = sum / float64(len(metrics))
	}
	s.MostComplex = mostComplex(metrics, top)
	return s
}

func mostComplex(metrics map[string]FileMetrics, top int) []FileComplexity {
	out := make([]FileComplexity, 0, len(metrics))
	for _, f := range slices.Sorted(maps.Keys(metrics)) {
		out = append(out, FileComplexity{File: f, Complexity: metrics[f].Complexity})
	}
	slices.SortStableFunc(out, func(a, b FileComplexity) int { return cmp.Compare(b.Complexity, a.Complexity) })
	if top >= 0 && len(out) > top {
		out = out[:top]
	}
	return out
}

// Pattern is an architectural pattern recognised from module names.
type Pattern string

const (
	PatternMVC        Pattern = "Model-View-Controller (MVC)"
	PatternRepository Pattern = "Repository Pattern"
	PatternService    Pattern = "Service Pattern"
)

// DetectPatterns looks for architectural patterns in the node names of a
// dependency graph. The check is a naming heuristic only.
func DetectPatterns(g *graph.Graph) []Pattern {
	var models, views, controllers, repos, services bool
	for _, id := range g.Nodes() {
		n := strings.ToLower(id)
		models = models || strings.Contains(n, "model")
		views = views || strings.Contains(n, "view")
		controllers = controllers || strings.Contains(n, "controller")
		repos = repos || strings.Contains(n, "repository") || strings.Contains(n, "repo")
		services = services || strings.Contains(n, "service")
	}

	patterns := []Pattern{}
	if models && views && controllers {
		patterns = append(patterns, PatternMVC)
	}
	if repos {
		patterns = append(patterns, PatternRepository)
	}
	if services {
		patterns = append(patterns, PatternService)
	}
	return patterns
}

// Priority ranks a suggestion.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Suggestion is one recommended improvement.
type Suggestion struct {
	Type        string   `json:"type"`
	Files       []string `json:"files"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Complexity thresholds for suggestions.
const (
	ComplexityMedium = 10
	ComplexityHigh   = 20
)

// Suggest lists improvements for the project: the three most complex files
// above ComplexityMedium, every pair of modules importing each other, and the
// coupling suggestions for modules past couplingThreshold.
func Suggest(metrics map[string]FileMetrics, dg *graph.DependencyGraph, couplingThreshold float64) []Suggestion {
	out := []Suggestion{}
	for _, fc := range mostComplex(metrics, 3) {
		if fc.Complexity <= ComplexityMedium {
			continue
		}
		p := PriorityMedium
		if fc.Complexity > ComplexityHigh {
			p = PriorityHigh
		}
		out = append(out, Suggestion{
			Type:        "complexity",
			Files:       []string{fc.File},
			Description: fmt.Sprintf("High cyclomatic complexity (%g). Consider refactoring to reduce complexity.", fc.Complexity),
			Priority:    p,
		})
	}

	for _, pair := range CircularPairs(dg.Graph) {
		out = append(out, Suggestion{
			Type:        "circular_dependency",
			Files:       []string{pair[0], pair[1]},
			Description: fmt.Sprintf("Circular dependency between %s and %s. Consider refactoring to break the cycle.", pair[0], pair[1]),
			Priority:    PriorityHigh,
		})
	}

	metricsByModule := coupling.Analyzer{}.Analyze(dg)
	for _, s := range coupling.SuggestAll(metricsByModule, couplingThreshold) {
		out = append(out, Suggestion{
			Type:        "coupling_" + string(s.Action),
			Files:       []string{s.Module},
			Description: s.Message,
			Priority:    PriorityMedium,
		})
	}
	return out
}

// CircularPairs returns each pair of distinct nodes with edges in both
// directions, once, with the smaller id first.
func CircularPairs(g *graph.Graph) [][2]string {
	var pairs [][2]string
	for _, e := range g.Edges() {
		if e.From < e.To && g.HasEdge(e.To, e.From) {
			pairs = append(pairs, [2]string{e.From, e.To})
		}
	}
	return pairs
}
