// Package session holds one analysis run: the frozen graphs built from a set
// of fact files, the derived results computed from them, and the resolutions
// applied so far.
//
// Sessions are created from a [facts.Result] and persisted as a [Snapshot]
// through a [Store]:
//   - [MemoryStore]: in-process, for tests and a single API instance
//   - [FileStore]: JSON files, for the CLI
//   - [MongoStore]: MongoDB, for API deployments
//
// Graphs held by a session are always frozen. [Session.ApplyResolution]
// clones the affected graph, applies the change to the clone, freezes it and
// swaps it in, so readers holding the previous graph are never disturbed.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/graphscope/pkg/coupling"
	"github.com/matzehuels/graphscope/pkg/deadcode"
	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/facts"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/insights"
)

// DefaultTTL is how long a stored session stays retrievable.
const DefaultTTL = 24 * time.Hour

// Kind selects one of the session graphs.
type Kind string

const (
	KindCalls Kind = "calls"
	KindDeps  Kind = "deps"
)

// ParseKind validates a graph kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCalls, KindDeps:
		return k, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown graph kind %q (want calls or deps)", s)
}

type cycleKey struct {
	kind Kind
	max  int
}

type cycleResult struct {
	cycles    [][]string
	truncated bool
}

// Session is safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu          sync.Mutex
	calls       *graph.CallGraph
	deps        *graph.DependencyGraph
	usages      []deadcode.Usage
	metrics     map[string]insights.FileMetrics
	resolutions []cycles.Suggestion

	cycles   map[cycleKey]cycleResult
	coupling map[string]coupling.Metrics
}

// New creates a session over a build result. Unfrozen graphs are frozen.
func New(res *facts.Result, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		calls:     res.Calls,
		deps:      res.Deps,
		usages:    res.Usages,
		metrics:   res.Metrics,
	}
	if s.calls == nil {
		s.calls = graph.NewCallGraph()
	}
	if s.deps == nil {
		s.deps = graph.NewDependencyGraph()
	}
	if s.metrics == nil {
		s.metrics = map[string]insights.FileMetrics{}
	}
	s.calls.Freeze()
	s.deps.Freeze()
	return s
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Calls returns the current call graph.
func (s *Session) Calls() *graph.CallGraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Deps returns the current dependency graph.
func (s *Session) Deps() *graph.DependencyGraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deps
}

// Graph returns the graph of the given kind.
func (s *Session) Graph(kind Kind) (*graph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphLocked(kind)
}

func (s *Session) graphLocked(kind Kind) (*graph.Graph, error) {
	switch kind {
	case KindCalls:
		return s.calls.Graph, nil
	case KindDeps:
		return s.deps.Graph, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown graph kind %q", kind)
}

// Usages returns the non-call usage facts.
func (s *Session) Usages() []deadcode.Usage { return s.usages }

// Metrics returns the per-file metrics.
func (s *Session) Metrics() map[string]insights.FileMetrics { return s.metrics }

// Resolutions returns the resolutions applied so far, oldest first.
func (s *Session) Resolutions() []cycles.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cycles.Suggestion(nil), s.resolutions...)
}

// Cycles returns the cycles of the graph of kind, computed once per kind and
// limit until the graph changes.
func (s *Session) Cycles(kind Kind, maxCycles int) ([][]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graphLocked(kind)
	if err != nil {
		return nil, false, err
	}
	key := cycleKey{kind, maxCycles}
	if r, ok := s.cycles[key]; ok {
		return r.cycles, r.truncated, nil
	}
	found, truncated := cycles.Detector{MaxCycles: maxCycles}.Detect(g)
	if s.cycles == nil {
		s.cycles = make(map[cycleKey]cycleResult)
	}
	s.cycles[key] = cycleResult{found, truncated}
	return found, truncated, nil
}

// Coupling returns the coupling metrics of every module, computed once until
// the dependency graph changes.
func (s *Session) Coupling() map[string]coupling.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupling == nil {
		s.coupling = coupling.Analyzer{}.Analyze(s.deps)
	}
	return s.coupling
}

// ApplyResolution applies strategy to cycle on a copy of the graph of kind.
// On success the copy replaces the session graph and derived results are
// invalidated. On failure the session is unchanged.
func (s *Session) ApplyResolution(kind Kind, cycle []string, strategy cycles.Strategy) (cycles.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.graphLocked(kind)
	if err != nil {
		return cycles.Suggestion{}, err
	}
	clone := g.Clone()
	sug, err := cycles.Apply(clone, cycle, strategy)
	if err != nil {
		return sug, err
	}
	clone.Freeze()

	switch kind {
	case KindCalls:
		s.calls = &graph.CallGraph{Graph: clone}
	case KindDeps:
		s.deps = &graph.DependencyGraph{Graph: clone}
		s.coupling = nil
	}
	for k := range s.cycles {
		if k.kind == kind {
			delete(s.cycles, k)
		}
	}
	s.resolutions = append(s.resolutions, sug)
	return sug, nil
}
