package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/graphscope/pkg/cache"
	"github.com/matzehuels/graphscope/pkg/portable"
	"github.com/matzehuels/graphscope/pkg/render"
	"github.com/matzehuels/graphscope/pkg/render/nodelink"
	"github.com/matzehuels/graphscope/pkg/render/tree"
	"github.com/matzehuels/graphscope/pkg/session"
)

// RenderOptions selects the graph and output of [Runner.Render].
type RenderOptions struct {
	Kind   session.Kind `json:"kind"`
	Format string       `json:"format"`
	// Reduce applies transitive reduction; cycles are kept as back edges.
	Reduce bool `json:"reduce,omitempty"`
	// Highlight marks the detected cycles, up to DefaultMaxCycles.
	Highlight bool `json:"highlight,omitempty"`
	// Cluster groups nodes by file or module path (dot, svg).
	Cluster bool `json:"cluster,omitempty"`
	// MaxDepth limits tree output; zero means unlimited.
	MaxDepth int `json:"max_depth,omitempty"`
}

// ValidateAndSetDefaults checks the kind and format. The format defaults to
// JSON.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	if o.Kind == "" {
		o.Kind = session.KindDeps
	}
	if _, err := session.ParseKind(string(o.Kind)); err != nil {
		return err
	}
	if o.Format == "" {
		o.Format = render.FormatJSON
	}
	return render.ValidateFormat(o.Format)
}

// RenderKeyOpts returns cache key options for the rendered artifact.
func (o *RenderOptions) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Kind:      string(o.Kind),
		Format:    o.Format,
		Reduce:    o.Reduce,
		Highlight: o.Highlight,
		Cluster:   o.Cluster,
		MaxDepth:  o.MaxDepth,
	}
}

// RenderWithCacheInfo renders a session graph with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, sess *session.Session, opts RenderOptions) ([]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	g, err := sess.Graph(opts.Kind)
	if err != nil {
		return nil, false, err
	}

	graphData, err := portable.Marshal(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	cacheKey := r.Keyer.RenderKey(cache.Hash(graphData), opts.RenderKeyOpts())

	if data, ok := r.lookup(ctx, "render", cacheKey); ok {
		return data, true, nil // Cache hit
	}

	ropts := render.Options{Title: string(opts.Kind), Reduce: opts.Reduce}
	if opts.Highlight {
		found, _, err := sess.Cycles(opts.Kind, DefaultMaxCycles)
		if err != nil {
			return nil, false, err
		}
		ropts.Highlight = found
	}
	d, err := render.Build(g, ropts)
	if err != nil {
		return nil, false, err
	}

	data, err := RenderDiagram(ctx, d, opts)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, "render", cacheKey, data, cache.TTLRender)
	return data, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, sess *session.Session, opts RenderOptions) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, sess, opts)
	return data, err
}

// RenderDiagram encodes d in opts.Format.
func RenderDiagram(ctx context.Context, d render.Diagram, opts RenderOptions) ([]byte, error) {
	switch opts.Format {
	case render.FormatJSON:
		return render.Marshal(d)
	case render.FormatDOT:
		return []byte(nodelink.ToDOT(d, nodelink.Options{Cluster: opts.Cluster})), nil
	case render.FormatSVG:
		data, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(d, nodelink.Options{Cluster: opts.Cluster}))
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		return data, nil
	case render.FormatTree:
		return []byte(tree.Render(d, tree.Options{MaxDepth: opts.MaxDepth})), nil
	}
	return nil, render.ValidateFormat(opts.Format)
}
