package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/session"
)

// sourceFlags selects where a command takes its graphs from: fact files
// named on the command line, or a stored session.
type sourceFlags struct {
	session string // id of a stored session
	save    bool   // persist the session after the command
	noCache bool
	refresh bool
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.session, "session", "", "use a stored session instead of fact files")
	cmd.Flags().BoolVar(&f.save, "save", false, "store the session and print its id")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "rebuild graphs and reports even if cached")
}

// factPaths returns the command arguments, or the current directory.
func factPaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// workspace is the state of one command run: the runner, the session and its
// analysis report.
type workspace struct {
	runner  *pipeline.Runner
	store   session.Store
	sess    *session.Session
	report  *pipeline.Report
	persist bool
}

// load builds or fetches the session and analyzes it.
func (c *CLI) load(ctx context.Context, src sourceFlags, opts pipeline.Options, args []string) (ws *workspace, err error) {
	start := time.Now()
	st := c.startStatus(ctx, "Loading facts")
	defer func() {
		st.Stop()
		if err != nil && st.Interrupted() {
			c.Logger.Warn("interrupted", "stage", st.Stage())
		}
	}()

	opts.Logger = c.Logger
	opts.Refresh = src.refresh
	opts.Progress = st.Set
	ws = &workspace{runner: c.newRunner(ctx, src.noCache), persist: src.save || src.session != ""}

	if src.session != "" {
		if len(args) > 0 {
			ws.Close()
			return nil, errors.New(errors.ErrCodeInvalidInput, "fact paths and --session are mutually exclusive")
		}
		store, err := c.Config.OpenStore(ctx)
		if err != nil {
			ws.Close()
			return nil, err
		}
		ws.store = store
		st.Set("Loading session")
		sess, err := store.Get(ctx, src.session)
		if err != nil {
			ws.Close()
			return nil, err
		}
		report, err := ws.runner.Analyze(ctx, sess, opts)
		if err != nil {
			ws.Close()
			return nil, err
		}
		ws.sess, ws.report = sess, report
	} else {
		sess, report, err := ws.runner.Execute(ctx, factPaths(args), opts)
		if err != nil {
			ws.Close()
			return nil, err
		}
		ws.sess, ws.report = sess, report
	}

	st.Stop()
	logDone(c.Logger, start, fmt.Sprintf("Analyzed %d files", ws.report.Stats.Files))
	for _, s := range ws.report.Skipped {
		c.Logger.Warn("skipped fact file", "path", s.Path, "err", s.Error)
	}
	if src.save {
		if err := ws.save(ctx, c); err != nil {
			ws.Close()
			return nil, err
		}
	}
	return ws, nil
}

// save stores the session, opening the configured store on first use.
func (ws *workspace) save(ctx context.Context, c *CLI) error {
	if ws.store == nil {
		store, err := c.Config.OpenStore(ctx)
		if err != nil {
			return err
		}
		ws.store = store
	}
	if err := ws.store.Set(ctx, ws.sess); err != nil {
		return err
	}
	c.Logger.Info("session saved", "id", ws.sess.ID, "expires", ws.sess.ExpiresAt.Format("2006-01-02 15:04"))
	return nil
}

// Close releases the runner and the store.
func (ws *workspace) Close() {
	_ = ws.runner.Close()
	if ws.store != nil {
		_ = ws.store.Close()
	}
}
