// Package cli implements the graphscope command-line interface.
//
// Commands read fact files (or a stored session), build the call and
// dependency graphs through the pipeline and print one analysis each. The
// CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - analyze, show: run every analysis and print or save the report
//   - traverse, paths, impact: query a graph
//   - cycles, coupling, deadcode, chain, hotspots: one analysis each
//   - render: draw a graph as JSON, DOT, SVG or a tree
//   - serve: run the HTTP API
//   - cache: manage the cache
//
// # Configuration
//
// Defaults come from graphscope.toml (see --config) and GRAPHSCOPE_*
// environment variables. Flags given on the command line win.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/matzehuels/graphscope/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphscope/pkg/config"
)

// newLogger returns the CLI logger: timestamps as "15:04:05.00", writing
// to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// logLevel resolves the effective level: --verbose forces debug, otherwise
// [log] level from graphscope.toml or GRAPHSCOPE_LOG_LEVEL applies.
func logLevel(cfg config.Config, verbose bool) (log.Level, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return level, err
	}
	if verbose && level > log.DebugLevel {
		return log.DebugLevel, nil
	}
	return level, nil
}

// logDone logs msg at info level with the time elapsed since start.
func logDone(l *log.Logger, start time.Time, msg string) {
	l.Infof("%s (%s)", msg, time.Since(start).Round(time.Millisecond))
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger stored by withLogger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
