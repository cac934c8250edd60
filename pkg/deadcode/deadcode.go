// Package deadcode finds symbols that cannot be reached from any entry point.
//
// A symbol is live when it is reachable from an entry point by following call
// edges and usage edges (user to used symbol). Entry points are the union of
// explicitly named symbols, exported symbols and test functions. Everything
// else defined in the analysed code is reported, grouped by file, with a
// confidence score and a reason.
//
// Calls made through string-keyed dispatch, reflection or plugin registries
// are invisible to the call graph, so the result always contains some false
// positives. Exclusion patterns and the built-in exclusion rules reduce them;
// methods are reported with lower confidence since they are often reached
// through dynamic dispatch.
package deadcode

import (
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

// Usage records that a symbol is referenced by other symbols outside of
// direct calls: type references, callbacks, decorators and the like.
type Usage struct {
	Symbol    string   `json:"symbol"`
	DefinedIn string   `json:"defined_in,omitempty"`
	UsedBy    []string `json:"used_by"`
}

// Symbol is a defined symbol as seen by the analyzer.
type Symbol struct {
	ID       string
	File     string
	Kind     string
	Line     int
	Exported bool
}

// Options selects the entry points and exclusions.
type Options struct {
	// EntryPoints are symbols that are always live. Each must be defined in
	// the call graph or the usage facts.
	EntryPoints []string
	// ExcludePatterns are glob patterns matched against symbol ids and files.
	ExcludePatterns []string
	// IncludeExported treats every exported symbol as an entry point.
	IncludeExported bool
	// IncludeTests treats test functions as entry points.
	IncludeTests bool
	// DefaultExclusions enables the built-in exclusion rules.
	DefaultExclusions bool
}

// DefaultOptions returns options that treat exported symbols and tests as
// entry points and apply the built-in exclusions.
func DefaultOptions() Options {
	return Options{IncludeExported: true, IncludeTests: true, DefaultExclusions: true}
}

// Item describes one unused symbol.
type Item struct {
	Symbol     string  `json:"symbol"`
	File       string  `json:"file"`
	Kind       string  `json:"kind,omitempty"`
	Line       int     `json:"line,omitempty"`
	Exported   bool    `json:"exported"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Stats summarises a dead code run.
type Stats struct {
	TotalSymbols int `json:"total_symbols"`
	EntryPoints  int `json:"entry_points"`
	LiveSymbols  int `json:"live_symbols"`
	Excluded     int `json:"excluded"`
	Unused       int `json:"unused"`
}

// Report is the result of dead code detection.
type Report struct {
	UnusedSymbols map[string][]string `json:"unused_symbols"`
	UnusedFiles   []string            `json:"unused_files"`
	Items         []Item              `json:"items"`
	Stats         Stats               `json:"stats"`
}

// Confidence levels attached to reported items.
const (
	ConfidenceNoReferences = 0.95
	ConfidenceDeadCallers  = 0.85
	ConfidenceExported     = 0.7
	ConfidenceMethod       = 0.6
)

// Analyzer detects dead code.
type Analyzer struct {
	Logger *log.Logger
}

// NewAnalyzer creates an analyzer. A nil logger uses log.Default().
func NewAnalyzer(logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.Default()
	}
	return &Analyzer{Logger: logger}
}

// Detect runs reachability from the entry points selected by opts and reports
// every defined symbol that was not reached and is not excluded. A file is
// unused when none of its symbols is live; excluded symbols count as live.
//
// Unknown explicit entry points fail with NOT_FOUND and invalid exclusion
// patterns with INVALID_PATTERN.
func (a *Analyzer) Detect(cg *graph.CallGraph, usage []Usage, opts Options) (*Report, error) {
	logger := a.Logger
	if logger == nil {
		logger = log.Default()
	}

	excl, err := NewExclusions(opts.ExcludePatterns, opts.DefaultExclusions)
	if err != nil {
		return nil, err
	}

	symbols := collectSymbols(cg, usage)
	adj, used := usageEdges(usage)

	var roots []string
	for _, ep := range opts.EntryPoints {
		if _, ok := symbols[ep]; !ok && !cg.HasNode(ep) {
			return nil, errors.NotFound(ep)
		}
		roots = append(roots, ep)
	}
	for _, id := range sortedIDs(symbols) {
		s := symbols[id]
		if opts.IncludeExported && s.Exported {
			roots = append(roots, id)
		} else if opts.IncludeTests && isTest(s) {
			roots = append(roots, id)
		}
	}

	live := reach(cg, adj, roots)

	r := &Report{
		UnusedSymbols: make(map[string][]string),
		UnusedFiles:   []string{},
		Items:         []Item{},
	}
	fileLive := make(map[string]bool)
	for _, id := range sortedIDs(symbols) {
		s := symbols[id]
		if _, seen := fileLive[s.File]; !seen {
			fileLive[s.File] = false
		}
		if live[id] {
			fileLive[s.File] = true
			continue
		}
		if reason := excl.Match(s); reason != "" {
			logger.Debug("excluded from dead code", "symbol", id, "reason", reason)
			fileLive[s.File] = true
			r.Stats.Excluded++
			continue
		}
		r.UnusedSymbols[s.File] = append(r.UnusedSymbols[s.File], id)
		r.Items = append(r.Items, item(s, cg, used))
	}
	for _, f := range slices.Sorted(maps.Keys(fileLive)) {
		if f != "" && !fileLive[f] {
			r.UnusedFiles = append(r.UnusedFiles, f)
		}
	}

	r.Stats.TotalSymbols = len(symbols)
	r.Stats.EntryPoints = len(roots)
	for id := range symbols {
		if live[id] {
			r.Stats.LiveSymbols++
		}
	}
	r.Stats.Unused = len(r.Items)

	logger.Debug("dead code analysis complete",
		"symbols", r.Stats.TotalSymbols, "live", r.Stats.LiveSymbols,
		"unused", r.Stats.Unused, "unused_files", len(r.UnusedFiles))
	return r, nil
}

// collectSymbols gathers every defined symbol: call graph nodes that carry a
// defining file, plus usage symbols with a known definition site.
func collectSymbols(cg *graph.CallGraph, usage []Usage) map[string]Symbol {
	out := make(map[string]Symbol)
	for _, id := range cg.Nodes() {
		file := cg.FileOf(id)
		if file == "" {
			continue
		}
		out[id] = Symbol{ID: id, File: file, Kind: cg.KindOf(id), Line: cg.LineOf(id), Exported: cg.IsExported(id)}
	}
	for _, u := range usage {
		if _, ok := out[u.Symbol]; ok || u.DefinedIn == "" {
			continue
		}
		out[u.Symbol] = Symbol{ID: u.Symbol, File: u.DefinedIn}
	}
	return out
}

// usageEdges maps each user to the symbols it uses, and marks the symbols
// used by something other than themselves.
func usageEdges(usage []Usage) (adj map[string][]string, used map[string]bool) {
	adj = make(map[string][]string)
	used = make(map[string]bool)
	for _, u := range usage {
		for _, by := range u.UsedBy {
			adj[by] = append(adj[by], u.Symbol)
			if by != u.Symbol {
				used[u.Symbol] = true
			}
		}
	}
	return adj, used
}

func reach(cg *graph.CallGraph, adj map[string][]string, roots []string) map[string]bool {
	live := make(map[string]bool, len(roots))
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		if !live[r] {
			live[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range cg.Out(v) {
			if !live[w] {
				live[w] = true
				queue = append(queue, w)
			}
		}
		for _, w := range adj[v] {
			if !live[w] {
				live[w] = true
				queue = append(queue, w)
			}
		}
	}
	return live
}

func item(s Symbol, cg *graph.CallGraph, used map[string]bool) Item {
	it := Item{
		Symbol:     s.ID,
		File:       s.File,
		Kind:       s.Kind,
		Line:       s.Line,
		Exported:   s.Exported,
		Confidence: ConfidenceNoReferences,
		Reason:     "no callers or usages",
	}
	if used[s.ID] || calledByOthers(cg, s.ID) {
		it.Confidence = ConfidenceDeadCallers
		it.Reason = "only referenced from unreachable code"
	}
	if s.Exported && it.Confidence > ConfidenceExported {
		it.Confidence = ConfidenceExported
		it.Reason += "; exported, may be used outside the analysed code"
	}
	if s.Kind == graph.KindMethod && it.Confidence > ConfidenceMethod {
		it.Confidence = ConfidenceMethod
		it.Reason += "; methods may be reached through dynamic dispatch"
	}
	return it
}

func calledByOthers(cg *graph.CallGraph, id string) bool {
	for _, p := range cg.In(id) {
		if p != id {
			return true
		}
	}
	return false
}

func isTest(s Symbol) bool {
	return s.Kind == graph.KindTest || (IsTestFile(s.File) && isTestName(ShortName(s.ID)))
}

func isTestName(name string) bool {
	for _, p := range []string{"Test", "test_", "test", "Benchmark", "Example", "Fuzz"} {
		if len(name) >= len(p) && name[:len(p)] == p {
			return true
		}
	}
	return false
}

func sortedIDs(m map[string]Symbol) []string {
	return slices.Sorted(maps.Keys(m))
}
