package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/session"
)

const kindAll = "all"

// cyclesCommand creates the cycles command, which lists cycles with their
// suggested resolutions and optionally applies them.
func (c *CLI) cyclesCommand() *cobra.Command {
	var (
		src         sourceFlags
		af          analysisFlags
		kind        string
		apply       bool
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "cycles [facts...]",
		Short: "Detect cycles and suggest how to break them",
		Long: `Cycles lists every elementary cycle of the call and dependency graphs
together with a suggested resolution.

With --apply each suggestion is applied to the session graph. Combine it with
--session or --save to keep the resolved graph. With --interactive the cycles
are shown in a browser where the ones to resolve can be picked.`,
		Example: `  graphscope cycles ./facts --kind deps
  graphscope cycles ./facts --strategy invert_edge --apply --save
  graphscope cycles --session 3f0c... --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(kind)
			if err != nil {
				return err
			}
			opts, err := af.options(cmd, c.Config)
			if err != nil {
				return err
			}
			ws, err := c.load(cmd.Context(), src, opts, args)
			if err != nil {
				return err
			}
			defer ws.Close()

			entries := cycleEntries(ws.report, kinds)
			if interactive {
				m, err := tea.NewProgram(NewCycleListModel(entries)).Run()
				if err != nil {
					return err
				}
				fm, ok := m.(CycleListModel)
				if !ok || !fm.Apply {
					printDetail("No cycles resolved")
					return nil
				}
				entries, apply = fm.Chosen(), true
			}

			out := cmd.OutOrStdout()
			if !apply {
				if asJSON {
					return writeJSON(out, cycleAnalyses(ws.report, kinds))
				}
				printCycles(out, ws.report, kinds)
				return nil
			}

			applied, err := c.applyResolutions(ws.sess, entries, opts.Strategy)
			if err != nil {
				return err
			}
			if ws.persist {
				if err := ws.save(cmd.Context(), c); err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(out, applied)
			}
			for _, sug := range applied {
				fmt.Fprintf(out, "%s %s\n    %s\n", styleIconSuccess.Render(iconSuccess), formatCycle(sug.Cycle), StyleDim.Render(sug.Reason))
			}
			return c.printRemaining(cmd.Context(), ws, kinds, opts)
		},
	}

	src.bind(cmd)
	af.bindCycles(cmd)
	cmd.Flags().StringVar(&kind, "kind", kindAll, "graph: calls, deps or all")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(session.KindCalls), string(session.KindDeps), kindAll}, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.Flags().BoolVar(&apply, "apply", false, "apply every suggested resolution")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick the cycles to resolve in a browser")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func parseKinds(s string) ([]session.Kind, error) {
	if s == kindAll || s == "" {
		return []session.Kind{session.KindCalls, session.KindDeps}, nil
	}
	k, err := session.ParseKind(s)
	if err != nil {
		return nil, err
	}
	return []session.Kind{k}, nil
}

func cycleAnalysis(rep *pipeline.Report, k session.Kind) cycles.Analysis {
	if k == session.KindDeps {
		return rep.Cycles.Deps
	}
	return rep.Cycles.Calls
}

func cycleAnalyses(rep *pipeline.Report, kinds []session.Kind) map[session.Kind]cycles.Analysis {
	out := make(map[session.Kind]cycles.Analysis, len(kinds))
	for _, k := range kinds {
		out[k] = cycleAnalysis(rep, k)
	}
	return out
}

func cycleEntries(rep *pipeline.Report, kinds []session.Kind) []CycleEntry {
	var out []CycleEntry
	for _, k := range kinds {
		for _, sug := range cycleAnalysis(rep, k).Suggestions {
			out = append(out, CycleEntry{Kind: k, Suggestion: sug})
		}
	}
	return out
}

// applyResolutions applies the suggestion of every entry in order. Cycles
// already broken by an earlier resolution are skipped, and a resolution that
// leaves its cycle intact is reported but does not stop the others.
func (c *CLI) applyResolutions(sess *session.Session, entries []CycleEntry, strategy cycles.Strategy) ([]cycles.Suggestion, error) {
	applied := []cycles.Suggestion{}
	for _, e := range entries {
		g, err := sess.Graph(e.Kind)
		if err != nil {
			return nil, err
		}
		if !cycles.Exists(g, e.Suggestion.Cycle) {
			c.Logger.Debug("cycle already broken", "cycle", e.Suggestion.Cycle)
			continue
		}
		s := e.Suggestion.Strategy
		if s == 0 {
			s = strategy
		}
		sug, err := sess.ApplyResolution(e.Kind, e.Suggestion.Cycle, s)
		if errors.Is(err, errors.ErrCodeResolutionIneffective) {
			printWarning("%s", errors.UserMessage(err))
			continue
		}
		if err != nil {
			return nil, err
		}
		applied = append(applied, sug)
	}
	return applied, nil
}

// printRemaining re-analyzes the resolved session and reports the cycles
// left in each graph.
func (c *CLI) printRemaining(ctx context.Context, ws *workspace, kinds []session.Kind, opts pipeline.Options) error {
	rep, err := ws.runner.Analyze(ctx, ws.sess, opts)
	if err != nil {
		return err
	}
	for _, k := range kinds {
		printDetail("%s: %d cycles remaining", k, len(cycleAnalysis(rep, k).Cycles))
	}
	return nil
}

func printCycles(w io.Writer, rep *pipeline.Report, kinds []session.Kind) {
	for _, k := range kinds {
		a := cycleAnalysis(rep, k)
		heading(w, fmt.Sprintf("%s cycles (%d)", k, len(a.Cycles)))
		if len(a.Cycles) == 0 {
			fmt.Fprintln(w, "  none")
		}
		for _, sug := range a.Suggestions {
			fmt.Fprintf(w, "  %s\n", formatCycle(sug.Cycle))
			fmt.Fprintf(w, "    %s %s\n", StyleHighlight.Render(sug.Strategy.String()), StyleDim.Render(sug.Reason))
		}
		if a.Truncated {
			printWarning("%s: stopped after %d cycles (--max-cycles)", k, len(a.Cycles))
		}
		fmt.Fprintln(w)
	}
}
