package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/graphscope/internal/api"
	"github.com/matzehuels/graphscope/pkg/observability/prom"
	"github.com/matzehuels/graphscope/pkg/session"
)

// sessionCleanupInterval is how often the server purges expired sessions.
const sessionCleanupInterval = 10 * time.Minute

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes analysis over HTTP. Clients post fact files to /v1/analyze and
query the resulting session under /v1/sessions/{id}. Sessions are kept in the
configured store ([store] in graphscope.toml) and expire after its TTL.

Prometheus metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			store, err := c.Config.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := c.newRunner(ctx, noCache)
			defer runner.Close()

			opts := api.Options{Defaults: c.Config.PipelineOptions(), MaxBodyBytes: cfg.MaxBodyBytes}
			if !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				m := prom.New(reg)
				m.Register()
				opts.Metrics = m.Handler()
			}
			srv := api.New(runner, store, c.Logger, opts)

			c.Logger.Info("serving", "addr", cfg.Addr, "store", c.Config.Store.Backend, "cache", c.Config.Cache.Backend)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return api.ListenAndServe(ctx, cfg.Addr, srv, cfg.ReadTimeout, cfg.WriteTimeout, c.Logger)
			})
			g.Go(func() error {
				cleanupSessions(ctx, store, sessionCleanupInterval)
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")
	return cmd
}

// cleanupSessions purges expired sessions every interval until ctx is done.
func cleanupSessions(ctx context.Context, store session.Store, interval time.Duration) {
	logger := loggerFromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx); err != nil {
				logger.Warn("session cleanup failed", "err", err)
			}
		}
	}
}
