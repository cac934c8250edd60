package facts

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/graphscope/pkg/deadcode"
	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/insights"
)

// Result holds the frozen graphs and side data built from a set of facts.
type Result struct {
	Calls   *graph.CallGraph
	Deps    *graph.DependencyGraph
	Usages  []deadcode.Usage
	Metrics map[string]insights.FileMetrics
	Files   []string
	Skipped []Skipped
}

// Skipped records a fact file that could not be read or decoded.
type Skipped struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Builder turns fact files into graphs. Files are read and decoded on a
// bounded worker pool; a single collector applies them to the graphs in input
// order, so the result does not depend on scheduling.
type Builder struct {
	// Workers bounds concurrent decoding. Zero means GOMAXPROCS.
	Workers int
	// Logger receives skip warnings and progress. Nil means log.Default().
	Logger *log.Logger
}

// NewBuilder creates a builder with default settings.
func NewBuilder(logger *log.Logger) *Builder {
	return &Builder{Logger: logger}
}

func (b *Builder) logger() *log.Logger {
	if b.Logger == nil {
		return log.Default()
	}
	return b.Logger
}

func (b *Builder) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.GOMAXPROCS(0)
}

type decoded struct {
	index int
	doc   *File
	err   error
}

// BuildFiles reads, decodes and applies the fact files at paths. A file that
// cannot be read or decoded is skipped with a warning. A decoded document
// with malformed data aborts the whole build, so no partial graph is ever
// returned.
func (b *Builder) BuildFiles(ctx context.Context, paths []string) (*Result, error) {
	logger := b.logger()
	docs := make([]*File, len(paths))
	var skipped []Skipped

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	results := make(chan decoded)

	var waitErr error
	go func() {
		for i, p := range paths {
			g.Go(func() error {
				doc, err := readFile(p)
				select {
				case results <- decoded{index: i, doc: doc, err: err}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		waitErr = g.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			logger.Warn("skipping fact file", "path", paths[r.index], "err", r.err)
			skipped = append(skipped, Skipped{Path: paths[r.index], Error: errors.UserMessage(r.err)})
			continue
		}
		docs[r.index] = r.doc
	}
	if waitErr != nil {
		return nil, waitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := b.apply(docs)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(skipped, func(a, b Skipped) int { return strings.Compare(a.Path, b.Path) })
	res.Skipped = skipped
	logger.Debug("built graphs from fact files", "files", len(res.Files), "skipped", len(skipped),
		"functions", res.Calls.NodeCount(), "calls", res.Calls.EdgeCount(),
		"modules", res.Deps.NodeCount(), "imports", res.Deps.EdgeCount())
	return res, nil
}

// Build applies already decoded documents, as received by the HTTP API.
func (b *Builder) Build(ctx context.Context, docs []File) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ptrs := make([]*File, len(docs))
	for i := range docs {
		ptrs[i] = &docs[i]
	}
	return b.apply(ptrs)
}

func readFile(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, format)
}

// apply validates every document, then writes them to fresh graphs. Nil
// entries are skipped files.
func (b *Builder) apply(docs []*File) (*Result, error) {
	for _, d := range docs {
		if d == nil {
			continue
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Calls:   graph.NewCallGraph(),
		Deps:    graph.NewDependencyGraph(),
		Usages:  []deadcode.Usage{},
		Metrics: make(map[string]insights.FileMetrics),
		Files:   []string{},
	}
	definedIn := make(map[string]string)

	for _, d := range docs {
		if d == nil {
			continue
		}
		res.Files = append(res.Files, d.File)
		mod := d.ModuleID()

		info := graph.ModuleInfo{Path: d.File}
		if d.Metrics != nil {
			res.Metrics[d.File] = *d.Metrics
			info.Abstractness = d.Metrics.Abstractness
		}
		if err := res.Deps.AddModule(mod, info); err != nil {
			return nil, err
		}

		for _, s := range d.Symbols {
			kind := s.Kind
			if kind == "" {
				kind = graph.KindFunction
			}
			err := res.Calls.AddFunction(s.ID, graph.FunctionInfo{File: d.File, Kind: kind, Line: s.Line, Exported: s.Exported})
			if err != nil {
				return nil, err
			}
			definedIn[s.ID] = d.File
		}
		for _, c := range d.Calls {
			if err := res.Calls.AddCall(c.Caller, c.Callee, graph.CallSite{File: d.File, Line: c.Line, Conditional: c.Conditional}); err != nil {
				return nil, err
			}
		}
		for _, imp := range d.Imports {
			from := imp.From
			if from == "" {
				from = mod
			}
			kind, err := graph.ParseImportKind(imp.Kind)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeMalformedData, err, "%s: import %s", d.File, imp.To)
			}
			if err := res.Deps.AddImport(from, imp.To, kind); err != nil {
				return nil, err
			}
		}
		for _, u := range d.Usages {
			res.Usages = append(res.Usages, deadcode.Usage{Symbol: u.Symbol, DefinedIn: u.DefinedIn, UsedBy: u.UsedBy})
		}
	}

	for i, u := range res.Usages {
		if u.DefinedIn == "" {
			res.Usages[i].DefinedIn = definedIn[u.Symbol]
		}
	}

	res.Calls.Freeze()
	res.Deps.Freeze()
	return res, nil
}

// Discover lists the fact files under root, sorted. Hidden directories are
// not entered.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "facts path %s", root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ferr := FormatOf(path); ferr == nil {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(out)
	return out, nil
}
