package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/config"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/session"
)

// analysisFlags holds the analysis options a command exposes. Flags the user
// did not set fall back to the [analysis] section of the config.
type analysisFlags struct {
	entry               []string
	exclude             []string
	includeExported     bool
	includeTests        bool
	noDefaultExclusions bool
	maxCycles           int
	strategy            string
	threshold           float64
	hotspots            int
	top                 int
}

func (f *analysisFlags) bindDeadcode(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.entry, "entry", nil, "entry point symbols (comma-separated)")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "glob patterns of files to exclude (comma-separated)")
	cmd.Flags().BoolVar(&f.includeExported, "include-exported", true, "treat exported symbols as entry points")
	cmd.Flags().BoolVar(&f.includeTests, "include-tests", true, "treat test functions as entry points")
	cmd.Flags().BoolVar(&f.noDefaultExclusions, "no-default-exclusions", false, "do not skip framework hooks and generated files")
}

func (f *analysisFlags) bindCycles(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxCycles, "max-cycles", pipeline.DefaultMaxCycles, "maximum cycles enumerated per graph")
	cmd.Flags().StringVar(&f.strategy, "strategy", pipeline.DefaultStrategy.String(),
		"resolution strategy: extract_interface, invert_edge, extract_shared_module")
	_ = cmd.RegisterFlagCompletionFunc("strategy", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, s := range cycles.Strategies() {
			names = append(names, s.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

func (f *analysisFlags) bindCoupling(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.threshold, "threshold", pipeline.DefaultCouplingThreshold, "flag modules above this instability or distance")
}

func (f *analysisFlags) bindHotspots(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.hotspots, "limit", pipeline.DefaultHotspotLimit, "number of hotspots per graph")
	cmd.Flags().IntVar(&f.top, "top", pipeline.DefaultTopComplex, "number of most complex files in the summary")
}

func (f *analysisFlags) bindAll(cmd *cobra.Command) {
	f.bindDeadcode(cmd)
	f.bindCycles(cmd)
	f.bindCoupling(cmd)
	f.bindHotspots(cmd)
}

// options merges the changed flags over the configured defaults.
func (f *analysisFlags) options(cmd *cobra.Command, cfg config.Config) (pipeline.Options, error) {
	opts := cfg.PipelineOptions()
	changed := cmd.Flags().Changed

	if changed("entry") {
		opts.EntryPoints = f.entry
	}
	if changed("exclude") {
		opts.ExcludePatterns = f.exclude
	}
	if changed("include-exported") {
		opts.IncludeExported = f.includeExported
	}
	if changed("include-tests") {
		opts.IncludeTests = f.includeTests
	}
	if changed("no-default-exclusions") {
		opts.SkipDefaultExclusions = f.noDefaultExclusions
	}
	if changed("max-cycles") {
		opts.MaxCycles = f.maxCycles
	}
	if changed("strategy") {
		s, err := cycles.ParseStrategy(f.strategy)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Strategy = s
	}
	if changed("threshold") {
		opts.CouplingThreshold = f.threshold
	}
	if changed("limit") {
		opts.HotspotLimit = f.hotspots
	}
	if changed("top") {
		opts.TopComplex = f.top
	}
	return opts, nil
}

// kindFlag binds --kind with the given default.
func kindFlag(cmd *cobra.Command, kind *string, def session.Kind) {
	*kind = string(def)
	cmd.Flags().StringVar(kind, "kind", string(def), "graph: calls or deps")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(session.KindCalls), string(session.KindDeps)}, cobra.ShellCompDirectiveNoFileComp
	})
}
