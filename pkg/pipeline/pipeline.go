// Package pipeline runs the graphscope analyses with caching.
//
// This package implements the build → analyze → render pipeline used by the
// CLI and the HTTP API, so both entry points share defaults, caching and
// instrumentation.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: decode fact files and construct the frozen call and dependency
//     graphs (cached by the content of the fact files)
//  2. Analyze: run cycles, coupling, dead code, call chain, hotspots and
//     insights concurrently against one session snapshot (cached by graph
//     hash and options)
//  3. Render: turn a session graph into DOT, SVG, JSON or a terminal tree
//     (cached by graph hash, kind and format)
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	defer runner.Close()
//
//	sess, report, err := runner.Execute(ctx, []string{"./facts"}, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.CallChain.MaxChainLength)
//
// Run individual stages:
//
//	res, err := runner.Build(ctx, paths, opts)
//	report, err := runner.Analyze(ctx, session.New(res, 0), opts)
//	svg, err := runner.Render(ctx, sess, pipeline.RenderOptions{Kind: session.KindDeps, Format: render.FormatSVG})
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphscope/pkg/cache"
	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMaxCycles bounds cycle enumeration per graph.
	DefaultMaxCycles = 1000

	// DefaultCouplingThreshold flags modules whose instability or distance
	// from the main sequence exceeds it.
	DefaultCouplingThreshold = 0.7

	// DefaultHotspotLimit is the number of hotspots reported per graph.
	DefaultHotspotLimit = 10

	// DefaultTopComplex is the number of most complex files in the summary.
	DefaultTopComplex = 5
)

// DefaultStrategy is the cycle resolution strategy used for suggestions.
const DefaultStrategy = cycles.ExtractInterface

// =============================================================================
// Options - Analysis Configuration
// =============================================================================

// Options contains all configuration for an analysis run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Dead code options
	EntryPoints           []string `json:"entry_points,omitempty"`
	ExcludePatterns       []string `json:"exclude_patterns,omitempty"`
	IncludeExported       bool     `json:"include_exported,omitempty"`
	IncludeTests          bool     `json:"include_tests,omitempty"`
	SkipDefaultExclusions bool     `json:"skip_default_exclusions,omitempty"` // Disable built-in exclusions (default: false = apply)

	// Cycle options
	MaxCycles int             `json:"max_cycles,omitempty"`
	Strategy  cycles.Strategy `json:"strategy,omitempty"`

	// Coupling and insight options
	CouplingThreshold float64 `json:"coupling_threshold,omitempty"`
	HotspotLimit      int     `json:"hotspot_limit,omitempty"`
	TopComplex        int     `json:"top_complex,omitempty"`

	// Refresh bypasses cached graphs and reports.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	// Progress is told which stage runs, e.g. "Building graphs" or
	// "Analyzing (2/6)". It is called from several goroutines.
	Progress func(stage string) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks option values and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.MaxCycles < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_cycles must not be negative, got %d", o.MaxCycles)
	}
	if o.CouplingThreshold < 0 || o.CouplingThreshold > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "coupling_threshold must be within [0, 1], got %v", o.CouplingThreshold)
	}
	if o.HotspotLimit < 0 || o.TopComplex < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "hotspot_limit and top_complex must not be negative")
	}
	for _, p := range o.ExcludePatterns {
		if err := errors.ValidatePattern(p); err != nil {
			return err
		}
	}
	for _, id := range o.EntryPoints {
		if err := errors.ValidateNodeID(id); err != nil {
			return err
		}
	}
	if o.Strategy == 0 {
		o.Strategy = DefaultStrategy
	}
	if !slices.Contains(cycles.Strategies(), o.Strategy) {
		return errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %v", o.Strategy)
	}

	if o.MaxCycles == 0 {
		o.MaxCycles = DefaultMaxCycles
	}
	if o.CouplingThreshold == 0 {
		o.CouplingThreshold = DefaultCouplingThreshold
	}
	if o.HotspotLimit == 0 {
		o.HotspotLimit = DefaultHotspotLimit
	}
	if o.TopComplex == 0 {
		o.TopComplex = DefaultTopComplex
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func (o *Options) progress(format string, args ...any) {
	if o.Progress != nil {
		o.Progress(fmt.Sprintf(format, args...))
	}
}

// AnalysisKeyOpts returns cache key options for the analysis report.
func (o *Options) AnalysisKeyOpts() cache.AnalysisKeyOpts {
	return cache.AnalysisKeyOpts{
		EntryPoints:       o.EntryPoints,
		ExcludePatterns:   o.ExcludePatterns,
		IncludeExported:   o.IncludeExported,
		IncludeTests:      o.IncludeTests,
		DefaultExclusions: !o.SkipDefaultExclusions,
		MaxCycles:         o.MaxCycles,
		CouplingThreshold: o.CouplingThreshold,
		Strategy:          o.Strategy.String(),
		HotspotLimit:      o.HotspotLimit,
		TopComplex:        o.TopComplex,
	}
}

// =============================================================================
// Result Types
// =============================================================================

// Stats contains graph sizes and stage timings.
type Stats struct {
	Files        int           `json:"files"`
	Skipped      int           `json:"skipped"`
	Functions    int           `json:"functions"`
	Calls        int           `json:"calls"`
	Modules      int           `json:"modules"`
	Imports      int           `json:"imports"`
	BuildTime    time.Duration `json:"build_time_ns"`
	AnalysisTime time.Duration `json:"analysis_time_ns"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit    bool `json:"build_hit"`    // Whether the graphs came from cache
	AnalysisHit bool `json:"analysis_hit"` // Whether the report came from cache
}
