package facts

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/insights"
)

const serviceJSON = `{
  "file": "app/service.py",
  "module": "app.service",
  "symbols": [
    {"id": "app.service.run", "kind": "function", "line": 3, "exported": true},
    {"id": "app.service.helper", "line": 9}
  ],
  "calls": [
    {"caller": "app.service.run", "callee": "app.service.helper", "line": 4},
    {"caller": "app.service.run", "callee": "app.db.query", "line": 5, "conditional": true}
  ],
  "imports": [{"to": "app.db"}],
  "usages": [{"symbol": "app.db.Row", "used_by": ["app.service.run"]}],
  "metrics": {"lines_of_code": 120, "complexity": 7, "abstractness": 0.25}
}`

const dbYAML = `file: app/db.py
module: app.db
symbols:
  - id: app.db.query
    kind: function
    line: 1
  - id: app.db.Row
    kind: class
    line: 20
imports:
  - to: app.service
    kind: type_only
metrics:
  lines_of_code: 80
  complexity: 3
`

const utilTOML = `file = "app/util.py"
module = "app.util"

[[symbols]]
id = "app.util.slugify"
line = 2

[metrics]
lines_of_code = 15
complexity = 1
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name, data string
		format     Format
		file       string
		symbols    int
	}{
		{"json", serviceJSON, FormatJSON, "app/service.py", 2},
		{"yaml", dbYAML, FormatYAML, "app/db.py", 2},
		{"toml", utilTOML, FormatTOML, "app/util.py", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if f.File != tt.file || len(f.Symbols) != tt.symbols {
				t.Errorf("Decode() = file %q, %d symbols", f.File, len(f.Symbols))
			}
			if f.Metrics == nil || f.Metrics.LinesOfCode == 0 {
				t.Errorf("metrics not decoded: %+v", f.Metrics)
			}
			if err := f.Validate(); err != nil {
				t.Errorf("Validate() error: %v", err)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode([]byte(`{"file": `), FormatJSON); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Decode(bad json) error = %v, want INVALID_FORMAT", err)
	}
	if _, err := Decode([]byte("file = "), FormatTOML); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Decode(bad toml) error = %v, want INVALID_FORMAT", err)
	}
	if _, err := FormatOf("facts.xml"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("FormatOf(.xml) error = %v, want UNSUPPORTED", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		f    File
	}{
		{"empty file", File{}},
		{"traversal", File{File: "../etc/passwd"}},
		{"empty symbol", File{File: "a.go", Symbols: []Symbol{{ID: ""}}}},
		{"empty callee", File{File: "a.go", Calls: []Call{{Caller: "a"}}}},
		{"bad import kind", File{File: "a.go", Imports: []Import{{To: "b", Kind: "magic"}}}},
		{"empty user", File{File: "a.go", Usages: []Usage{{Symbol: "x", UsedBy: []string{""}}}}},
		{"abstractness", File{File: "a.go", Metrics: &insights.FileMetrics{Abstractness: 1.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.f.Validate(); !errors.Is(err, errors.ErrCodeMalformedData) {
				t.Errorf("Validate() error = %v, want MALFORMED_DATA", err)
			}
		})
	}
}

func TestBuild_BadImportKind(t *testing.T) {
	docs := []File{{File: "a.go", Module: "a", Imports: []Import{{To: "b", Kind: "magic"}}}}
	res, err := NewBuilder(nil).Build(context.Background(), docs)
	if !errors.Is(err, errors.ErrCodeMalformedData) {
		t.Fatalf("Build() error = %v, want MALFORMED_DATA", err)
	}
	if res != nil {
		t.Error("Build() returned a partial result")
	}
	if !strings.Contains(err.Error(), "magic") {
		t.Errorf("Build() error = %v, want the bad kind named", err)
	}
}

func TestBuildFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"service.json":  serviceJSON,
		"db.yaml":       dbYAML,
		"util.toml":     utilTOML,
		"broken.json":   `{"file": "x.py", "symbols": [`,
		"notes.txt":     "ignored",
		".cache/x.json": serviceJSON,
	})
	paths, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 4 {
		t.Fatalf("Discover() = %v, want 4 fact files", paths)
	}

	res, err := (&Builder{Workers: 2}).BuildFiles(context.Background(), paths)
	if err != nil {
		t.Fatalf("BuildFiles() error: %v", err)
	}

	if len(res.Skipped) != 1 || filepath.Base(res.Skipped[0].Path) != "broken.json" {
		t.Errorf("Skipped = %+v, want broken.json", res.Skipped)
	}
	if !res.Calls.Frozen() || !res.Deps.Frozen() {
		t.Error("graphs should be frozen")
	}

	callees, _ := res.Calls.Callees("app.service.run")
	if !slices.Equal(callees, []string{"app.db.query", "app.service.helper"}) {
		t.Errorf("Callees(run) = %v", callees)
	}
	if res.Calls.FileOf("app.db.query") != "app/db.py" {
		t.Errorf("FileOf(query) = %q, want app/db.py", res.Calls.FileOf("app.db.query"))
	}
	if m, _ := res.Calls.EdgeMeta("app.service.run", "app.db.query"); m[graph.MetaConditional] != true {
		t.Errorf("call metadata = %v", m)
	}

	deps, _ := res.Deps.Dependencies("app.service")
	if !slices.Equal(deps, []string{"app.db"}) {
		t.Errorf("Dependencies(app.service) = %v", deps)
	}
	if m, _ := res.Deps.EdgeMeta("app.db", "app.service"); m[graph.MetaImportKind] != "type_only" {
		t.Errorf("import kind = %v", m)
	}
	if got := res.Deps.Abstractness("app.service"); got != 0.25 {
		t.Errorf("Abstractness(app.service) = %v, want 0.25", got)
	}
	if res.Deps.NodeCount() != 3 {
		t.Errorf("modules = %v", res.Deps.Nodes())
	}

	if len(res.Usages) != 1 || res.Usages[0].DefinedIn != "app/db.py" {
		t.Errorf("Usages = %+v, want Row defined in app/db.py", res.Usages)
	}
	if len(res.Metrics) != 3 || res.Metrics["app/util.py"].LinesOfCode != 15 {
		t.Errorf("Metrics = %+v", res.Metrics)
	}
}

func TestBuildFiles_Malformed(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"good.json": serviceJSON,
		"bad.json":  `{"file": "bad.py", "calls": [{"caller": "a", "callee": ""}]}`,
	})
	paths, _ := Discover(dir)
	_, err := NewBuilder(nil).BuildFiles(context.Background(), paths)
	if !errors.Is(err, errors.ErrCodeMalformedData) {
		t.Errorf("BuildFiles() error = %v, want MALFORMED_DATA", err)
	}
}

func TestBuildFiles_Deterministic(t *testing.T) {
	// Two documents define the same symbol; the later path wins.
	dir := writeFiles(t, map[string]string{
		"a.json": `{"file": "a.py", "symbols": [{"id": "shared", "line": 1}]}`,
		"b.json": `{"file": "b.py", "symbols": [{"id": "shared", "line": 2}]}`,
	})
	paths, _ := Discover(dir)
	for i := 0; i < 20; i++ {
		res, err := (&Builder{Workers: 4}).BuildFiles(context.Background(), paths)
		if err != nil {
			t.Fatal(err)
		}
		if got := res.Calls.FileOf("shared"); got != "b.py" {
			t.Fatalf("run %d: FileOf(shared) = %q, want b.py", i, got)
		}
	}
}

func TestBuildFiles_Cancelled(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.json": serviceJSON})
	paths, _ := Discover(dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewBuilder(nil).BuildFiles(ctx, paths); err == nil {
		t.Error("BuildFiles() with cancelled context should fail")
	}
}

func TestBuild(t *testing.T) {
	docs := []File{
		{File: "main.go", Symbols: []Symbol{{ID: "main"}}, Calls: []Call{{Caller: "main", Callee: "run"}}},
		{File: "run.go", Symbols: []Symbol{{ID: "run", Kind: graph.KindMethod}}},
	}
	res, err := NewBuilder(nil).Build(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if res.Calls.KindOf("main") != graph.KindFunction || res.Calls.KindOf("run") != graph.KindMethod {
		t.Errorf("kinds = %q, %q", res.Calls.KindOf("main"), res.Calls.KindOf("run"))
	}
	if !slices.Equal(res.Deps.Nodes(), []string{"main.go", "run.go"}) {
		t.Errorf("modules default to files: %v", res.Deps.Nodes())
	}
}

func TestDiscover_Missing(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Discover(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}
