// Package facts decodes the per-file facts produced by a source parser and
// builds the call and dependency graphs from them.
//
// # Fact Files
//
// Each document describes one source file:
//
//	{
//	  "file": "app/service.py",
//	  "module": "app.service",
//	  "symbols": [{"id": "app.service.run", "kind": "function", "line": 3, "exported": true}],
//	  "calls": [{"caller": "app.service.run", "callee": "app.db.query", "line": 5}],
//	  "imports": [{"to": "app.db", "kind": "static"}],
//	  "usages": [{"symbol": "app.db.Row", "used_by": ["app.service.run"]}],
//	  "metrics": {"lines_of_code": 120, "complexity": 7, "abstractness": 0.1}
//	}
//
// The same structure is accepted as YAML (.yaml, .yml) and TOML (.toml).
//
// # Building
//
// [Builder.BuildFiles] decodes files concurrently and applies them to the
// graphs from a single goroutine. A file that cannot be read or parsed is
// skipped and reported in [Result.Skipped]. A document that parses but holds
// invalid data, such as an empty callee, aborts the build with
// MALFORMED_DATA. The graphs of a successful build are frozen.
package facts
