package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph/traverse"
	"github.com/matzehuels/graphscope/pkg/session"
)

// traverseCommand creates the traverse command.
func (c *CLI) traverseCommand() *cobra.Command {
	var (
		src      sourceFlags
		kind     string
		start    string
		mode     string
		maxDepth int
		reverse  bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "traverse [facts...]",
		Short: "List the nodes reachable from a start node",
		Example: `  graphscope traverse ./facts --start main.main --max-depth 2
  graphscope traverse ./facts --kind deps --start db --reverse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := session.ParseKind(kind)
			if err != nil {
				return err
			}
			m, err := traverse.ParseMode(mode)
			if err != nil {
				return err
			}
			if start == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--start is required")
			}
			dir := traverse.Forward
			if reverse {
				dir = traverse.Backward
			}

			ws, err := c.load(cmd.Context(), src, c.Config.PipelineOptions(), args)
			if err != nil {
				return err
			}
			defer ws.Close()

			g, err := ws.sess.Graph(k)
			if err != nil {
				return err
			}
			visits, err := traverse.Traverse(g, start, m, traverse.WithMaxDepth(maxDepth), traverse.WithDirection(dir))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, visits)
			}
			for _, v := range visits {
				fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", v.Depth), v.ID)
			}
			return nil
		},
	}

	src.bind(cmd)
	kindFlag(cmd, &kind, session.KindCalls)
	cmd.Flags().StringVar(&start, "start", "", "node to start from")
	cmd.Flags().StringVar(&mode, "mode", "bfs", "visit order: bfs or dfs")
	cmd.Flags().IntVar(&maxDepth, "max-depth", traverse.Unbounded, "maximum depth (-1 for unlimited)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "follow edges backwards (callers, importers)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print visits as JSON")
	return cmd
}

// pathsCommand creates the paths command.
func (c *CLI) pathsCommand() *cobra.Command {
	var (
		src       sourceFlags
		kind      string
		from, to  string
		all       bool
		maxPaths  int
		maxLength int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "paths [facts...]",
		Short: "Find paths between two nodes",
		Long: `Paths prints the shortest path from --from to --to. With --all it
enumerates every simple path instead, up to --max-paths (0 for no limit).`,
		Example: `  graphscope paths ./facts --from main.main --to db.Query
  graphscope paths ./facts --from main.main --to db.Query --all --max-length 6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := session.ParseKind(kind)
			if err != nil {
				return err
			}
			if from == "" || to == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--from and --to are required")
			}

			ws, err := c.load(cmd.Context(), src, c.Config.PipelineOptions(), args)
			if err != nil {
				return err
			}
			defer ws.Close()

			g, err := ws.sess.Graph(k)
			if err != nil {
				return err
			}

			var paths [][]string
			if all {
				paths, err = traverse.FindAllPaths(g, from, to,
					traverse.WithMaxPaths(maxPaths),
					traverse.WithMaxLength(maxLength),
					traverse.WithAdvisory(func(err error) {
						printWarning("%s", errors.UserMessage(err))
					}))
			} else {
				var path []string
				path, err = traverse.ShortestPath(g, from, to)
				if path != nil {
					paths = [][]string{path}
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if paths == nil {
					paths = [][]string{}
				}
				return writeJSON(out, paths)
			}
			if len(paths) == 0 {
				printInfo("No path from %s to %s", from, to)
				return nil
			}
			for _, p := range paths {
				fmt.Fprintln(out, formatChain(p))
			}
			if all && maxPaths > 0 && len(paths) == maxPaths {
				printDetail("stopped at %d paths (--max-paths)", maxPaths)
			}
			return nil
		},
	}

	src.bind(cmd)
	kindFlag(cmd, &kind, session.KindCalls)
	cmd.Flags().StringVar(&from, "from", "", "source node")
	cmd.Flags().StringVar(&to, "to", "", "target node")
	cmd.Flags().BoolVar(&all, "all", false, "enumerate every simple path")
	cmd.Flags().IntVar(&maxPaths, "max-paths", 100, "stop after this many paths (0 for no limit)")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "skip paths with more edges (0 for no limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print paths as JSON")
	return cmd
}

// impactCommand creates the impact command, which reports the blast radius
// of a change.
func (c *CLI) impactCommand() *cobra.Command {
	var (
		src    sourceFlags
		kind   string
		nodes  []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "impact [facts...]",
		Short: "List everything affected by changing the given nodes",
		Long: `Impact walks the graph backwards from each changed node and prints every
caller (or importer, with --kind deps) that can reach it.`,
		Example: `  graphscope impact ./facts --node db.Query
  graphscope impact ./facts --kind deps --node db,cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := session.ParseKind(kind)
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "at least one --node is required")
			}

			ws, err := c.load(cmd.Context(), src, c.Config.PipelineOptions(), args)
			if err != nil {
				return err
			}
			defer ws.Close()

			g, err := ws.sess.Graph(k)
			if err != nil {
				return err
			}
			affected, err := traverse.BlastRadius(g, nodes...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, affected)
			}
			for _, id := range affected {
				fmt.Fprintln(out, id)
			}
			printDetail("%d affected", len(affected))
			return nil
		},
	}

	src.bind(cmd)
	kindFlag(cmd, &kind, session.KindCalls)
	cmd.Flags().StringSliceVar(&nodes, "node", nil, "changed nodes (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print affected nodes as JSON")
	return cmd
}
