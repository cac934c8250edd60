package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/render"
	"github.com/matzehuels/graphscope/pkg/render/tree"
	"github.com/matzehuels/graphscope/pkg/session"
)

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	kind      string
	format    string   // json, dot, svg or tree; guessed from --output when unset
	output    string   // output file path; stdout when empty
	reduce    bool     // transitive reduction; cycles drawn as back edges
	highlight bool     // mark nodes and edges on cycles
	cluster   bool     // group nodes by file or module path
	maxDepth  int      // tree depth limit
	roots     []string // tree roots
}

// renderCommand creates the render command, which draws a graph as JSON,
// Graphviz DOT, SVG or a terminal tree.
//
// Default settings:
//   - kind: deps
//   - format: tree on stdout, otherwise guessed from the output extension
func (c *CLI) renderCommand() *cobra.Command {
	var (
		src sourceFlags
		rf  renderFlags
	)

	cmd := &cobra.Command{
		Use:   "render [facts...]",
		Short: "Render a graph as JSON, DOT, SVG or a tree",
		Example: `  graphscope render ./facts --kind deps --highlight
  graphscope render ./facts --kind calls -o calls.svg --cluster
  graphscope render ./facts --format dot --reduce > deps.dot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.RenderOptions{
				Kind:      session.Kind(rf.kind),
				Format:    rf.resolveFormat(),
				Reduce:    rf.reduce,
				Highlight: rf.highlight,
				Cluster:   rf.cluster,
				MaxDepth:  rf.maxDepth,
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			ws, err := c.load(cmd.Context(), src, c.Config.PipelineOptions(), args)
			if err != nil {
				return err
			}
			defer ws.Close()

			if opts.Format == render.FormatTree && rf.output == "" {
				return c.renderTree(cmd, ws.sess, opts, rf.roots)
			}

			data, hit, err := ws.runner.RenderWithCacheInfo(cmd.Context(), ws.sess, opts)
			if err != nil {
				return err
			}
			c.Logger.Debug("rendered", "kind", opts.Kind, "format", opts.Format, "cached", hit)

			if rf.output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(rf.output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", rf.output, err)
			}
			printSuccess("Rendered %s graph", opts.Kind)
			printFile(rf.output)
			return nil
		},
	}

	src.bind(cmd)
	kindFlag(cmd, &rf.kind, session.KindDeps)
	cmd.Flags().StringVarP(&rf.format, "format", "f", "", "output format: json, dot, svg, tree")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return render.Formats, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.Flags().StringVarP(&rf.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&rf.reduce, "reduce", false, "apply transitive reduction (cycles are drawn dotted)")
	cmd.Flags().BoolVar(&rf.highlight, "highlight", false, "highlight cycles")
	cmd.Flags().BoolVar(&rf.cluster, "cluster", false, "group nodes by file or module path (dot, svg)")
	cmd.Flags().IntVar(&rf.maxDepth, "max-depth", 0, "tree depth limit (0 for unlimited)")
	cmd.Flags().StringSliceVar(&rf.roots, "root", nil, "tree roots (default: nodes without callers)")
	return cmd
}

// resolveFormat returns the explicit format, or guesses it from the output
// file extension. Tree is the default for stdout.
func (rf renderFlags) resolveFormat() string {
	if rf.format != "" {
		return rf.format
	}
	if rf.output == "" {
		return render.FormatTree
	}
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(rf.output)), "."); ext {
	case "gv":
		return render.FormatDOT
	case render.FormatDOT, render.FormatSVG, render.FormatJSON:
		return ext
	}
	return render.FormatJSON
}

// renderTree draws a colored tree on stdout. It bypasses the render cache,
// which only holds uncolored output.
func (c *CLI) renderTree(cmd *cobra.Command, sess *session.Session, opts pipeline.RenderOptions, roots []string) error {
	g, err := sess.Graph(opts.Kind)
	if err != nil {
		return err
	}
	ropts := render.Options{Title: string(opts.Kind), Reduce: opts.Reduce}
	if opts.Highlight {
		found, _, err := sess.Cycles(opts.Kind, pipeline.DefaultMaxCycles)
		if err != nil {
			return err
		}
		ropts.Highlight = found
	}
	d, err := render.Build(g, ropts)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), tree.Render(d, tree.Options{Roots: roots, MaxDepth: opts.MaxDepth, Color: true}))
	return nil
}
