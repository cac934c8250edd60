package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/insights"
	"github.com/matzehuels/graphscope/pkg/pipeline"
)

// analyzeCommand creates the analyze command, which runs every analysis and
// prints a summary or the full report.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		src    sourceFlags
		af     analysisFlags
		output string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [facts...]",
		Short: "Run every analysis over fact files",
		Long: `Analyze builds the call and dependency graphs from fact files (.json, .yaml,
.toml) and reports cycles, coupling, dead code, the longest call chain,
hotspots and improvement suggestions.

Directories are searched recursively. Without arguments the current
directory is used.`,
		Example: `  graphscope analyze ./facts
  graphscope analyze ./facts --json > report.json
  graphscope analyze ./facts -o report.json --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := af.options(cmd, c.Config)
			if err != nil {
				return err
			}
			ws, err := c.load(cmd.Context(), src, opts, args)
			if err != nil {
				return err
			}
			defer ws.Close()

			if output != "" {
				if err := pipeline.WriteReportFile(ws.report, output); err != nil {
					return err
				}
				printSuccess("Report written")
				printFile(output)
			}
			if asJSON {
				return pipeline.WriteReport(ws.report, cmd.OutOrStdout())
			}
			printStats(ws.report.Stats, ws.report.CacheInfo)
			printReport(cmd.OutOrStdout(), ws.report)
			if src.save {
				printNextStep("Explore the session", fmt.Sprintf("graphscope cycles --session %s --interactive", ws.sess.ID))
			}
			return nil
		},
	}

	src.bind(cmd)
	af.bindAll(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON report to a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON report")
	return cmd
}

// showCommand creates the show command, which prints a report written by
// analyze --output.
func (c *CLI) showCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [report]",
		Short: "Print a saved analysis report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := pipeline.ReadReportFile(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return pipeline.WriteReport(rep, cmd.OutOrStdout())
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON report")
	return cmd
}

// printReport writes a human-readable summary of rep.
func printReport(w io.Writer, rep *pipeline.Report) {
	s := rep.Stats
	heading(w, "Graphs")
	fmt.Fprintf(w, "  %s files · %s functions · %s calls · %s modules · %s imports\n",
		StyleNumber.Render(strconv.Itoa(s.Files)),
		StyleNumber.Render(strconv.Itoa(s.Functions)),
		StyleNumber.Render(strconv.Itoa(s.Calls)),
		StyleNumber.Render(strconv.Itoa(s.Modules)),
		StyleNumber.Render(strconv.Itoa(s.Imports)))
	if s.Skipped > 0 {
		fmt.Fprintf(w, "  %s\n", StyleWarning.Render(fmt.Sprintf("%d fact files skipped", s.Skipped)))
	}
	if rep.Summary.TotalFiles > 0 {
		fmt.Fprintf(w, "  %d lines of code · average complexity %s\n",
			rep.Summary.TotalLinesOfCode, fmtFloat(rep.Summary.AverageComplexity))
	}
	fmt.Fprintln(w)

	heading(w, "Cycles")
	fmt.Fprintf(w, "  calls: %d  deps: %d\n", len(rep.Cycles.Calls.Cycles), len(rep.Cycles.Deps.Cycles))
	for _, sug := range append(rep.Cycles.Deps.Suggestions, rep.Cycles.Calls.Suggestions...) {
		fmt.Fprintf(w, "  %s\n    %s\n", formatCycle(sug.Cycle), StyleDim.Render(sug.Reason))
	}
	fmt.Fprintln(w)

	heading(w, "Call chain")
	if rep.CallChain.MaxChainLength > 0 {
		fmt.Fprintf(w, "  %d: %s\n", rep.CallChain.MaxChainLength, formatChain(rep.CallChain.MaxChain))
	} else {
		fmt.Fprintln(w, "  none")
	}
	fmt.Fprintln(w)

	if rep.DeadCode != nil {
		heading(w, "Dead code")
		fmt.Fprintf(w, "  %d unused symbols in %d files · %d unused files\n",
			rep.DeadCode.Stats.Unused, len(rep.DeadCode.UnusedSymbols), len(rep.DeadCode.UnusedFiles))
		fmt.Fprintln(w)
	}

	if len(rep.Hotspots.Functions) > 0 || len(rep.Hotspots.Modules) > 0 {
		heading(w, "Hotspots")
		for _, sc := range rep.Hotspots.Functions {
			fmt.Fprintf(w, "  %s %s\n", StyleHighlight.Render(fmtFloat(sc.Score)), sc.ID)
		}
		for _, sc := range rep.Hotspots.Modules {
			fmt.Fprintf(w, "  %s %s\n", StyleHighlight.Render(fmtFloat(sc.Score)), sc.ID)
		}
		fmt.Fprintln(w)
	}

	if len(rep.Patterns) > 0 {
		heading(w, "Patterns")
		for _, p := range rep.Patterns {
			fmt.Fprintf(w, "  %s\n", p)
		}
		fmt.Fprintln(w)
	}

	if len(rep.Suggestions) > 0 {
		heading(w, "Suggestions")
		for _, sug := range rep.Suggestions {
			style := StyleDim
			if sug.Priority == insights.PriorityHigh {
				style = StyleWarning
			}
			fmt.Fprintf(w, "  %s %s\n", style.Render("["+string(sug.Priority)+"]"), sug.Description)
		}
	}
}
