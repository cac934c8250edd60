package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/graphscope/pkg/buildinfo"
	"github.com/matzehuels/graphscope/pkg/cache"
	"github.com/matzehuels/graphscope/pkg/chain"
	"github.com/matzehuels/graphscope/pkg/coupling"
	"github.com/matzehuels/graphscope/pkg/deadcode"
	"github.com/matzehuels/graphscope/pkg/facts"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/insights"
	"github.com/matzehuels/graphscope/pkg/observability"
	"github.com/matzehuels/graphscope/pkg/portable"
	"github.com/matzehuels/graphscope/pkg/rank"
	"github.com/matzehuels/graphscope/pkg/session"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, builder and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Builder *facts.Builder
	// SessionTTL is the lifetime of sessions created by Execute.
	SessionTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:      c,
		Keyer:      keyer,
		Logger:     logger,
		Builder:    facts.NewBuilder(logger),
		SessionTTL: session.DefaultTTL,
	}
}

// Execute builds graphs from the fact files under paths, opens a session over
// them and runs every analysis.
func (r *Runner) Execute(ctx context.Context, paths []string, opts Options) (*session.Session, *Report, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	res, hit, err := r.BuildWithCacheInfo(ctx, paths, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("build: %w", err)
	}
	return r.finish(ctx, res, hit, time.Since(start), opts)
}

// ExecuteDocs is like Execute for already decoded fact documents.
func (r *Runner) ExecuteDocs(ctx context.Context, docs []facts.File, opts Options) (*session.Session, *Report, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	res, hit, err := r.BuildDocsWithCacheInfo(ctx, docs, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("build: %w", err)
	}
	return r.finish(ctx, res, hit, time.Since(start), opts)
}

func (r *Runner) finish(ctx context.Context, res *facts.Result, buildHit bool, buildTime time.Duration, opts Options) (*session.Session, *Report, error) {
	r.Logger.Info("built graphs",
		"files", len(res.Files),
		"skipped", len(res.Skipped),
		"functions", res.Calls.NodeCount(),
		"modules", res.Deps.NodeCount(),
		"cached", buildHit,
		"duration", buildTime)

	sess := session.New(res, r.SessionTTL)
	rep, hit, err := r.AnalyzeWithCacheInfo(ctx, sess, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("analyze: %w", err)
	}
	rep.Stats.Files = len(res.Files)
	rep.Stats.Skipped = len(res.Skipped)
	rep.Stats.BuildTime = buildTime
	rep.Skipped = res.Skipped
	rep.CacheInfo = CacheInfo{BuildHit: buildHit, AnalysisHit: hit}
	return sess, rep, nil
}

// =============================================================================
// Build
// =============================================================================

// cachedBuild is the cached form of a [facts.Result].
type cachedBuild struct {
	Calls   portable.Graph                  `json:"calls"`
	Deps    portable.Graph                  `json:"deps"`
	Usages  []deadcode.Usage                `json:"usages,omitempty"`
	Metrics map[string]insights.FileMetrics `json:"metrics,omitempty"`
	Files   []string                        `json:"files"`
	Skipped []facts.Skipped                 `json:"skipped,omitempty"`
}

// BuildWithCacheInfo builds graphs from the fact files under paths with
// caching and returns cache hit info. Directories are searched with
// [facts.Discover]. The cache key covers the path and content of every file.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, paths []string, opts Options) (*facts.Result, bool, error) {
	r.applyLogger(&opts)

	var files []string
	for _, p := range paths {
		found, err := facts.Discover(p)
		if err != nil {
			return nil, false, err
		}
		files = append(files, found...)
	}

	factsHash := hashFiles(files)
	start := time.Now()
	res, hit, err := r.buildCached(ctx, factsHash, opts, func() (*facts.Result, error) {
		return r.builder(opts).BuildFiles(ctx, files)
	})
	if !hit {
		skipped := 0
		if res != nil {
			skipped = len(res.Skipped)
		}
		observability.Pipeline().OnBuildComplete(ctx, len(files), skipped, time.Since(start), err)
	}
	return res, hit, err
}

// Build is a convenience wrapper that calls BuildWithCacheInfo and discards the cache hit info.
func (r *Runner) Build(ctx context.Context, paths []string, opts Options) (*facts.Result, error) {
	res, _, err := r.BuildWithCacheInfo(ctx, paths, opts)
	return res, err
}

// BuildDocsWithCacheInfo builds graphs from decoded documents with caching.
func (r *Runner) BuildDocsWithCacheInfo(ctx context.Context, docs []facts.File, opts Options) (*facts.Result, bool, error) {
	r.applyLogger(&opts)

	data, err := json.Marshal(docs)
	if err != nil {
		return nil, false, fmt.Errorf("hash fact documents: %w", err)
	}
	start := time.Now()
	res, hit, err := r.buildCached(ctx, cache.Hash(data), opts, func() (*facts.Result, error) {
		return r.builder(opts).Build(ctx, docs)
	})
	if !hit {
		observability.Pipeline().OnBuildComplete(ctx, len(docs), 0, time.Since(start), err)
	}
	return res, hit, err
}

func (r *Runner) buildCached(ctx context.Context, factsHash string, opts Options, build func() (*facts.Result, error)) (*facts.Result, bool, error) {
	cacheKey := r.Keyer.GraphKey(factsHash)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, ok := r.lookup(ctx, "graph", cacheKey); ok {
			if res, err := decodeBuild(data); err == nil {
				return res, true, nil // Cache hit
			}
		}
	}

	opts.progress("Building graphs")
	res, err := build()
	if err != nil {
		return nil, false, err
	}

	if data, err := encodeBuild(res); err == nil {
		r.store(ctx, "graph", cacheKey, data, cache.TTLGraph)
	}
	return res, false, nil // Cache miss
}

func (r *Runner) builder(opts Options) *facts.Builder {
	if r.Builder == nil {
		return facts.NewBuilder(opts.Logger)
	}
	return r.Builder
}

// hashFiles hashes the path and content of every file. Unreadable files are
// hashed by path only; the builder skips them.
func hashFiles(files []string) string {
	type entry struct {
		Path string `json:"path"`
		Hash string `json:"hash"`
	}
	entries := make([]entry, 0, len(files))
	for _, path := range files {
		e := entry{Path: path}
		if f, err := os.Open(path); err == nil {
			e.Hash, _ = cache.HashReader(f)
			f.Close()
		}
		entries = append(entries, e)
	}
	data, _ := json.Marshal(entries)
	return cache.Hash(data)
}

func encodeBuild(res *facts.Result) ([]byte, error) {
	return json.Marshal(cachedBuild{
		Calls:   portable.From(res.Calls.Graph),
		Deps:    portable.From(res.Deps.Graph),
		Usages:  res.Usages,
		Metrics: res.Metrics,
		Files:   res.Files,
		Skipped: res.Skipped,
	})
}

func decodeBuild(data []byte) (*facts.Result, error) {
	var cb cachedBuild
	if err := json.Unmarshal(data, &cb); err != nil {
		return nil, err
	}
	calls, err := portable.ToCallGraph(cb.Calls)
	if err != nil {
		return nil, err
	}
	deps, err := portable.ToDependencyGraph(cb.Deps)
	if err != nil {
		return nil, err
	}
	calls.Freeze()
	deps.Freeze()
	if cb.Usages == nil {
		cb.Usages = []deadcode.Usage{}
	}
	if cb.Metrics == nil {
		cb.Metrics = map[string]insights.FileMetrics{}
	}
	return &facts.Result{
		Calls:   calls,
		Deps:    deps,
		Usages:  cb.Usages,
		Metrics: cb.Metrics,
		Files:   cb.Files,
		Skipped: cb.Skipped,
	}, nil
}

// =============================================================================
// Analyze
// =============================================================================

// GraphHash returns the content hash of everything the analyses read from
// sess: both graphs, the usage facts and the file metrics.
func GraphHash(sess *session.Session) (string, error) {
	state := struct {
		Calls   portable.Graph                  `json:"calls"`
		Deps    portable.Graph                  `json:"deps"`
		Usages  []deadcode.Usage                `json:"usages,omitempty"`
		Metrics map[string]insights.FileMetrics `json:"metrics,omitempty"`
	}{
		Calls:   portable.From(sess.Calls().Graph),
		Deps:    portable.From(sess.Deps().Graph),
		Usages:  sess.Usages(),
		Metrics: sess.Metrics(),
	}
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("hash session graphs: %w", err)
	}
	return cache.Hash(data), nil
}

// AnalyzeWithCacheInfo runs every analysis over sess with caching and returns
// cache hit info. The analyses run concurrently against the frozen session
// graphs; the first failure cancels the rest.
func (r *Runner) AnalyzeWithCacheInfo(ctx context.Context, sess *session.Session, opts Options) (*Report, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	graphHash, err := GraphHash(sess)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.AnalysisKey(graphHash, opts.AnalysisKeyOpts())

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, "analysis", cacheKey); ok {
			var rep Report
			if err := json.Unmarshal(data, &rep); err == nil && rep.Version == ReportVersion {
				rep.SessionID = sess.ID
				return &rep, true, nil // Cache hit
			}
		}
	}

	start := time.Now()
	rep, err := r.analyze(ctx, sess, opts)
	if err != nil {
		return nil, false, err
	}
	rep.GraphHash = graphHash
	rep.Stats.AnalysisTime = time.Since(start)

	r.Logger.Info("analyzed graphs",
		"call_cycles", len(rep.Cycles.Calls.Cycles),
		"dependency_cycles", len(rep.Cycles.Deps.Cycles),
		"unused", rep.DeadCode.Stats.Unused,
		"max_chain", rep.CallChain.MaxChainLength,
		"duration", rep.Stats.AnalysisTime)

	if data, err := json.Marshal(rep); err == nil {
		r.store(ctx, "analysis", cacheKey, data, cache.TTLAnalysis)
	}
	return rep, false, nil // Cache miss
}

// Analyze is a convenience wrapper that calls AnalyzeWithCacheInfo and discards the cache hit info.
func (r *Runner) Analyze(ctx context.Context, sess *session.Session, opts Options) (*Report, error) {
	rep, _, err := r.AnalyzeWithCacheInfo(ctx, sess, opts)
	return rep, err
}

func (r *Runner) analyze(ctx context.Context, sess *session.Session, opts Options) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	calls, deps := sess.Calls(), sess.Deps()
	rep := &Report{
		Version:     ReportVersion,
		ToolVersion: buildinfo.Version,
		SessionID:   sess.ID,
		GeneratedAt: time.Now().UTC(),
		Stats: Stats{
			Functions: calls.NodeCount(),
			Calls:     calls.EdgeCount(),
			Modules:   deps.NodeCount(),
			Imports:   deps.EdgeCount(),
		},
	}

	type task struct {
		name string
		fn   func() error
	}
	var tasks []task
	run := func(name string, fn func() error) {
		tasks = append(tasks, task{name, fn})
	}

	run("cycles", func() error {
		var err error
		if rep.Cycles.Calls, err = analyzeCycles(sess, session.KindCalls, opts); err != nil {
			return err
		}
		rep.Cycles.Deps, err = analyzeCycles(sess, session.KindDeps, opts)
		return err
	})
	run("coupling", func() error {
		metrics := sess.Coupling()
		rep.Coupling = CouplingReport{
			Threshold:   opts.CouplingThreshold,
			Modules:     metrics,
			Suggestions: coupling.SuggestAll(metrics, opts.CouplingThreshold),
		}
		return nil
	})
	run("deadcode", func() error {
		dc, err := deadcode.NewAnalyzer(opts.Logger).Detect(calls, sess.Usages(), deadcode.Options{
			EntryPoints:       opts.EntryPoints,
			ExcludePatterns:   opts.ExcludePatterns,
			IncludeExported:   opts.IncludeExported,
			IncludeTests:      opts.IncludeTests,
			DefaultExclusions: !opts.SkipDefaultExclusions,
		})
		rep.DeadCode = dc
		return err
	})
	run("chain", func() error {
		rep.CallChain = chain.Analyze(calls)
		return nil
	})
	run("hotspots", func() error {
		rep.Hotspots = HotspotReport{
			Functions: rank.Hotspots(calls.Graph, rank.Options{Limit: opts.HotspotLimit}),
			Modules:   rank.Hotspots(deps.Graph, rank.Options{Limit: opts.HotspotLimit}),
		}
		return nil
	})
	run("insights", func() error {
		metrics := sess.Metrics()
		rep.Summary = insights.Summarize(metrics, opts.TopComplex)
		rep.Patterns = insights.DetectPatterns(deps.Graph)
		rep.Suggestions = insights.Suggest(metrics, deps, opts.CouplingThreshold)
		return nil
	})

	opts.progress("Analyzing (0/%d)", len(tasks))
	var finished atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			err := t.fn()
			d := time.Since(start)
			observability.Pipeline().OnAnalysisComplete(gctx, t.name, d, err)
			opts.Logger.Debug("analysis complete", "analysis", t.name, "duration", d, "err", err)
			if err == nil {
				opts.progress("Analyzing (%d/%d)", finished.Add(1), len(tasks))
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}

func analyzeCycles(sess *session.Session, kind session.Kind, opts Options) (cycles.Analysis, error) {
	found, truncated, err := sess.Cycles(kind, opts.MaxCycles)
	if err != nil {
		return cycles.Analysis{}, err
	}
	g, err := sess.Graph(kind)
	if err != nil {
		return cycles.Analysis{}, err
	}
	a := cycles.Analysis{
		Cycles:      found,
		Suggestions: make([]cycles.Suggestion, 0, len(found)),
		Truncated:   truncated,
	}
	if a.Cycles == nil {
		a.Cycles = [][]string{}
	}
	for _, c := range found {
		s, err := cycles.Suggest(g, c, opts.Strategy)
		if err != nil {
			return cycles.Analysis{}, fmt.Errorf("suggest resolution for %v: %w", c, err)
		}
		a.Suggestions = append(a.Suggestions, s)
	}
	return a, nil
}

// =============================================================================
// Shared
// =============================================================================

// lookup reads key and reports the hit or miss to the cache hooks. Backend
// errors count as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache lookup failed", "key_type", keyType, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key_type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
