// Package coupling computes Robert C. Martin's package coupling metrics over
// a [graph.DependencyGraph].
//
//   - Afferent coupling (Ca): other modules depending on the module
//   - Efferent coupling (Ce): other modules the module depends on
//   - Instability (I): Ce / (Ca + Ce), 0 when the module is isolated
//   - Abstractness (A): ratio of abstract symbols, supplied by the parser
//   - Distance (D): |A + I - 1| / sqrt(2), distance from the main sequence
//
// A self-import counts toward neither Ca nor Ce. Metrics are derived on
// demand and never stored on the graph.
package coupling

import (
	"math"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

// Metrics holds the coupling metrics of one module.
type Metrics struct {
	Afferent     int     `json:"afferent"`
	Efferent     int     `json:"efferent"`
	Instability  float64 `json:"instability"`
	Abstractness float64 `json:"abstractness"`
	Distance     float64 `json:"distance"`
}

// Analyzer computes coupling metrics.
type Analyzer struct {
	// Abstractness overrides the abstractness recorded on module nodes.
	Abstractness map[string]float64
}

// Analyze returns the metrics of every module in dg, keyed by module id.
func (a Analyzer) Analyze(dg *graph.DependencyGraph) map[string]Metrics {
	out := make(map[string]Metrics, dg.NodeCount())
	for _, id := range dg.Nodes() {
		out[id] = a.metrics(dg, id)
	}
	return out
}

// Module returns the metrics of a single module.
func (a Analyzer) Module(dg *graph.DependencyGraph, id string) (Metrics, error) {
	if !dg.HasNode(id) {
		return Metrics{}, errors.NotFound(id)
	}
	return a.metrics(dg, id), nil
}

func (a Analyzer) metrics(dg *graph.DependencyGraph, id string) Metrics {
	ca, ce := dg.InDegree(id), dg.OutDegree(id)
	if dg.HasEdge(id, id) {
		ca, ce = ca-1, ce-1
	}
	abs, ok := a.Abstractness[id]
	if !ok {
		abs = dg.Abstractness(id)
	}
	abs = clamp(abs)
	inst := Instability(ca, ce)
	return Metrics{
		Afferent:     ca,
		Efferent:     ce,
		Instability:  inst,
		Abstractness: abs,
		Distance:     Distance(abs, inst),
	}
}

// Instability returns Ce / (Ca + Ce), or 0 when both are 0.
func Instability(afferent, efferent int) float64 {
	if afferent+efferent == 0 {
		return 0
	}
	return float64(efferent) / float64(afferent+efferent)
}

// Distance returns the distance from the main sequence, clamped to [0, 1].
func Distance(abstractness, instability float64) float64 {
	return clamp(math.Abs(abstractness+instability-1) / math.Sqrt2)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
