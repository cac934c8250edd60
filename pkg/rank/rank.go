// Package rank scores the nodes of a graph by centrality to surface hotspots:
// functions or modules that many paths run through and that a change would
// ripple out from.
//
// Scores are computed with gonum's PageRank and betweenness centrality on a
// simple directed graph. Self-loops are dropped since gonum simple graphs do
// not support them; they do not affect either measure.
package rank

import (
	"cmp"
	"slices"
	"sync"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/matzehuels/graphscope/pkg/graph"
)

// PageRank parameters.
const (
	DefaultDamping   = 0.85
	DefaultTolerance = 1e-6
)

// Score is the centrality of one node.
type Score struct {
	ID          string  `json:"id"`
	PageRank    float64 `json:"pagerank"`
	Betweenness float64 `json:"betweenness"`
	InDegree    int     `json:"in_degree"`
	OutDegree   int     `json:"out_degree"`
	// Score combines PageRank and betweenness, each normalised to [0, 1].
	Score float64 `json:"score"`
}

// Options tune [Hotspots].
type Options struct {
	Damping   float64 // PageRank damping factor; 0 means DefaultDamping
	Tolerance float64 // PageRank convergence tolerance; 0 means DefaultTolerance
	Limit     int     // Maximum results; 0 means all nodes
}

type gonumGraph struct {
	g   *simple.DirectedGraph
	ids []string // gonum id -> node id
}

func toGonum(g *graph.Graph) gonumGraph {
	nodes := g.Nodes()
	index := make(map[string]int64, len(nodes))
	out := gonumGraph{g: simple.NewDirectedGraph(), ids: nodes}
	for i, id := range nodes {
		index[id] = int64(i)
		out.g.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges() {
		if e.From == e.To {
			continue
		}
		out.g.SetEdge(simple.Edge{F: simple.Node(index[e.From]), T: simple.Node(index[e.To])})
	}
	return out
}

func (gg gonumGraph) named(scores map[int64]float64) map[string]float64 {
	out := make(map[string]float64, len(gg.ids))
	for i, id := range gg.ids {
		out[id] = scores[int64(i)]
	}
	return out
}

// PageRank returns the PageRank of every node of g.
func PageRank(g *graph.Graph, damping, tolerance float64) map[string]float64 {
	if g.NodeCount() == 0 {
		return map[string]float64{}
	}
	gg := toGonum(g)
	return gg.named(network.PageRank(gg.g, damping, tolerance))
}

// Betweenness returns the betweenness centrality of every node of g.
func Betweenness(g *graph.Graph) map[string]float64 {
	if g.NodeCount() == 0 {
		return map[string]float64{}
	}
	gg := toGonum(g)
	return gg.named(network.Betweenness(gg.g))
}

// Hotspots ranks the nodes of g by combined centrality, highest first. Ties
// are ordered by node id.
func Hotspots(g *graph.Graph, opts Options) []Score {
	if g.NodeCount() == 0 {
		return []Score{}
	}
	if opts.Damping == 0 {
		opts.Damping = DefaultDamping
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = DefaultTolerance
	}

	gg := toGonum(g)
	var pr, bc map[int64]float64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pr = network.PageRank(gg.g, opts.Damping, opts.Tolerance)
	}()
	go func() {
		defer wg.Done()
		bc = network.Betweenness(gg.g)
	}()
	wg.Wait()

	prByID, bcByID := gg.named(pr), gg.named(bc)
	maxPR, maxBC := maxOf(prByID), maxOf(bcByID)

	scores := make([]Score, 0, len(gg.ids))
	for _, id := range gg.ids {
		s := Score{
			ID:          id,
			PageRank:    prByID[id],
			Betweenness: bcByID[id],
			InDegree:    g.InDegree(id),
			OutDegree:   g.OutDegree(id),
		}
		if maxPR > 0 {
			s.Score += s.PageRank / maxPR
		}
		if maxBC > 0 {
			s.Score += s.Betweenness / maxBC
		}
		s.Score /= 2
		scores = append(scores, s)
	}
	slices.SortFunc(scores, func(a, b Score) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if opts.Limit > 0 && len(scores) > opts.Limit {
		scores = scores[:opts.Limit]
	}
	return scores
}

func maxOf(m map[string]float64) float64 {
	var best float64
	for _, v := range m {
		best = max(best, v)
	}
	return best
}
