// Package pkg provides the core libraries for graphscope code intelligence.
//
// # Overview
//
// Graphscope turns facts extracted from source code (symbols, calls, imports
// and usages, one document per source file) into a call graph and a module
// dependency graph, then analyzes them: cycles and how to break them,
// coupling, dead code, call chains and hotspots. The pkg directory is
// organized into four main areas:
//
//  1. Graphs - [graph] and its subpackages, [facts] and [portable]
//  2. Analyses - [coupling], [deadcode], [chain], [rank] and [insights]
//  3. Infrastructure - [cache], [session], [config] and [observability]
//  4. Orchestration and output - [pipeline] and [render]
//
// # Architecture
//
// The typical data flow:
//
//	Fact files (.json, .yaml, .toml)
//	         ↓
//	    [facts] package (decode, validate, build)
//	         ↓
//	    [session] package (frozen CallGraph + DependencyGraph)
//	         ↓
//	    [pipeline] package (every analysis, cached)
//	         ↓
//	    Report (JSON) or [render] output (JSON, DOT, SVG, tree)
//
// # Quick Start
//
// Build the graphs and analyze them:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/graphscope/pkg/cache"
//	    "github.com/matzehuels/graphscope/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	sess, report, err := runner.Execute(context.Background(), []string{"./facts"}, pipeline.Options{})
//
// Query a graph directly:
//
//	g, _ := sess.Graph(session.KindCalls)
//	path, _ := traverse.ShortestPath(g, "main.main", "db.Query")
//	affected, _ := traverse.BlastRadius(g, "db.Query")
//
// Break a cycle:
//
//	found, _, _ := sess.Cycles(session.KindDeps, 100)
//	sug, err := sess.ApplyResolution(session.KindDeps, found[0], cycles.InvertEdge)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                     # All tests
//	go test ./pkg/graph/...               # Specific package
//	GRAPHSCOPE_TEST_REDIS=localhost:6379 go test ./pkg/cache/...
//	GRAPHSCOPE_TEST_MONGO=mongodb://localhost:27017 go test ./pkg/session/...
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/graph
// [facts]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/facts
// [portable]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/portable
// [coupling]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/coupling
// [deadcode]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/deadcode
// [chain]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/chain
// [rank]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/rank
// [insights]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/insights
// [cache]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/session
// [config]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/graphscope/pkg/render
package pkg
