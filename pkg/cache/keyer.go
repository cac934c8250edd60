package cache

// Keyer derives cache keys. Implementations must be deterministic: equal
// inputs give equal keys.
type Keyer interface {
	// GraphKey identifies the graphs built from a set of fact files.
	GraphKey(factsHash string) string

	// AnalysisKey identifies an analysis report for a graph snapshot.
	AnalysisKey(graphHash string, opts AnalysisKeyOpts) string

	// RenderKey identifies a rendered artifact for a graph snapshot.
	RenderKey(graphHash string, opts RenderKeyOpts) string
}

// AnalysisKeyOpts are the options that change an analysis report.
type AnalysisKeyOpts struct {
	EntryPoints       []string `json:"entry_points,omitempty"`
	ExcludePatterns   []string `json:"exclude_patterns,omitempty"`
	IncludeExported   bool     `json:"include_exported,omitempty"`
	IncludeTests      bool     `json:"include_tests,omitempty"`
	DefaultExclusions bool     `json:"default_exclusions,omitempty"`
	MaxCycles         int      `json:"max_cycles,omitempty"`
	CouplingThreshold float64  `json:"coupling_threshold,omitempty"`
	Strategy          string   `json:"strategy,omitempty"`
	HotspotLimit      int      `json:"hotspot_limit,omitempty"`
	TopComplex        int      `json:"top_complex,omitempty"`
}

// RenderKeyOpts are the options that change a rendered graph.
type RenderKeyOpts struct {
	Kind   string `json:"kind"`
	Format string `json:"format"`
	Reduce bool   `json:"reduce,omitempty"`
	// Highlight marks the detected cycles.
	Highlight bool `json:"highlight,omitempty"`
	Cluster   bool `json:"cluster,omitempty"`
	MaxDepth  int  `json:"max_depth,omitempty"`
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey returns "graph:<hash>".
func (DefaultKeyer) GraphKey(factsHash string) string {
	return hashKey("graph", factsHash)
}

// AnalysisKey returns "analysis:<hash>".
func (DefaultKeyer) AnalysisKey(graphHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", graphHash, opts)
}

// RenderKey returns "render:<hash>".
func (DefaultKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return hashKey("render", graphHash, opts)
}

var _ Keyer = DefaultKeyer{}
