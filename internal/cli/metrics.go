package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/coupling"
	"github.com/matzehuels/graphscope/pkg/deadcode"
	"github.com/matzehuels/graphscope/pkg/rank"
)

// couplingCommand creates the coupling command.
func (c *CLI) couplingCommand() *cobra.Command {
	var (
		src    sourceFlags
		af     analysisFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "coupling [facts...]",
		Short: "Show coupling metrics per module",
		Long: `Coupling prints afferent and efferent coupling, instability, abstractness
and distance from the main sequence for every module of the dependency graph.
Modules past --threshold are highlighted and listed with a suggestion.`,
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

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, ws.report.Coupling)
			}
			printCoupling(out, ws.report.Coupling.Modules, ws.report.Coupling.Suggestions)
			return nil
		},
	}

	src.bind(cmd)
	af.bindCoupling(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printCoupling(w io.Writer, modules map[string]coupling.Metrics, sugs []coupling.Suggestion) {
	if len(modules) == 0 {
		fmt.Fprintln(w, "No modules.")
		return
	}
	flagged := make(map[string]bool, len(sugs))
	for _, s := range sugs {
		flagged[s.Module] = true
	}
	ids := make([]string, 0, len(modules))
	for id := range modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		m := modules[id]
		rows = append(rows, []string{id, strconv.Itoa(m.Afferent), strconv.Itoa(m.Efferent),
			fmtFloat(m.Instability), fmtFloat(m.Abstractness), fmtFloat(m.Distance)})
	}
	t := newTable(func(row int) bool { return flagged[ids[row]] }, "Module", "Ca", "Ce", "I", "A", "D").Rows(rows...)
	fmt.Fprintln(w, t.Render())

	for _, s := range sugs {
		fmt.Fprintf(w, "%s %s\n", styleIconWarning.Render(iconWarning), s.Message)
	}
}

// deadcodeCommand creates the deadcode command.
func (c *CLI) deadcodeCommand() *cobra.Command {
	var (
		src           sourceFlags
		af            analysisFlags
		minConfidence float64
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "deadcode [facts...]",
		Short: "Find symbols unreachable from any entry point",
		Long: `Deadcode reports the symbols that no entry point reaches through calls or
usages. Entry points are the symbols named with --entry, exported symbols and
test functions. Framework hooks and generated files are excluded unless
--no-default-exclusions is given.`,
		Example: `  graphscope deadcode ./facts --entry main.main --include-exported=false
  graphscope deadcode ./facts --exclude 'vendor/**' --min-confidence 0.9`,
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

			rep := ws.report.DeadCode
			if rep == nil {
				rep = &deadcode.Report{}
			}
			items := make([]deadcode.Item, 0, len(rep.Items))
			for _, it := range rep.Items {
				if it.Confidence >= minConfidence {
					items = append(items, it)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				filtered := *rep
				filtered.Items = items
				return writeJSON(out, filtered)
			}
			printDeadcode(out, rep, items)
			return nil
		},
	}

	src.bind(cmd)
	af.bindDeadcode(cmd)
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "hide items below this confidence")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printDeadcode(w io.Writer, rep *deadcode.Report, items []deadcode.Item) {
	s := rep.Stats
	fmt.Fprintf(w, "%d symbols · %d entry points · %d live · %d excluded · %d unused\n\n",
		s.TotalSymbols, s.EntryPoints, s.LiveSymbols, s.Excluded, s.Unused)
	if len(items) == 0 {
		fmt.Fprintln(w, "No dead code found.")
		return
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		loc := it.File
		if it.Line > 0 {
			loc = fmt.Sprintf("%s:%d", it.File, it.Line)
		}
		rows = append(rows, []string{it.Symbol, loc, fmtFloat(it.Confidence), it.Reason})
	}
	high := func(row int) bool { return items[row].Confidence >= deadcode.ConfidenceNoReferences }
	fmt.Fprintln(w, newTable(high, "Symbol", "Location", "Confidence", "Reason").Rows(rows...).Render())

	if len(rep.UnusedFiles) > 0 {
		fmt.Fprintln(w)
		heading(w, "Unused files")
		for _, f := range rep.UnusedFiles {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
}

// chainCommand creates the chain command.
func (c *CLI) chainCommand() *cobra.Command {
	var (
		src    sourceFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "chain [facts...]",
		Short: "Show the longest call chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.load(cmd.Context(), src, c.Config.PipelineOptions(), args)
			if err != nil {
				return err
			}
			defer ws.Close()

			res := ws.report.CallChain
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			if res.MaxChainLength == 0 {
				fmt.Fprintln(out, "No calls.")
				return nil
			}
			fmt.Fprintf(out, "%s calls\n", StyleNumber.Render(strconv.Itoa(res.MaxChainLength)))
			for i, id := range res.MaxChain {
				fmt.Fprintf(out, "%3d  %s\n", i, id)
			}
			if res.Approximate {
				printDetail("recursive calls were ignored; the chain may not be the longest")
			}
			return nil
		},
	}

	src.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// hotspotsCommand creates the hotspots command.
func (c *CLI) hotspotsCommand() *cobra.Command {
	var (
		src    sourceFlags
		af     analysisFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "hotspots [facts...]",
		Short: "Rank functions and modules by centrality",
		Long: `Hotspots ranks the nodes of both graphs by a combination of PageRank and
betweenness centrality. High scores mark code that many paths run through.`,
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

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, ws.report.Hotspots)
			}
			heading(out, "Functions")
			printScores(out, ws.report.Hotspots.Functions)
			heading(out, "Modules")
			printScores(out, ws.report.Hotspots.Modules)
			return nil
		},
	}

	src.bind(cmd)
	af.bindHotspots(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printScores(w io.Writer, scores []rank.Score) {
	if len(scores) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	rows := make([][]string, 0, len(scores))
	for _, s := range scores {
		rows = append(rows, []string{s.ID, fmtFloat(s.Score), fmt.Sprintf("%.4f", s.PageRank),
			fmtFloat(s.Betweenness), strconv.Itoa(s.InDegree), strconv.Itoa(s.OutDegree)})
	}
	fmt.Fprintln(w, newTable(nil, "Node", "Score", "PageRank", "Betweenness", "In", "Out").Rows(rows...).Render())
}
