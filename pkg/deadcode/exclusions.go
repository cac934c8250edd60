package deadcode

import (
	"path"
	"strings"

	"github.com/gobwas/glob"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
)

// Exclusions decides which symbols are never reported as dead.
type Exclusions struct {
	patterns []pattern
	defaults bool
}

type pattern struct {
	raw string
	g   glob.Glob
}

// NewExclusions compiles glob patterns. Patterns use '/' as separator, so '*'
// stays within one path segment and '**' spans several. When defaults is true
// the built-in rules for entry functions, common interface methods and
// generated files apply as well. An invalid pattern fails with
// INVALID_PATTERN.
func NewExclusions(patterns []string, defaults bool) (*Exclusions, error) {
	e := &Exclusions{defaults: defaults}
	for _, p := range patterns {
		if err := errors.ValidatePattern(p); err != nil {
			return nil, err
		}
		e.patterns = append(e.patterns, pattern{raw: p, g: glob.MustCompile(p, '/')})
	}
	return e, nil
}

// Match returns why sym is excluded, or "" if it is not.
// Patterns are matched against both the symbol id and its defining file.
func (e *Exclusions) Match(sym Symbol) string {
	if e == nil {
		return ""
	}
	for _, p := range e.patterns {
		if p.g.Match(sym.ID) || (sym.File != "" && p.g.Match(sym.File)) {
			return "matches exclusion pattern " + p.raw
		}
	}
	if !e.defaults {
		return ""
	}

	name := ShortName(sym.ID)
	switch {
	case name == "main" || name == "init" || name == "__init__" || name == "__main__":
		return "entry point function"
	case strings.HasPrefix(name, "Example") || strings.HasPrefix(name, "Benchmark") || strings.HasPrefix(name, "Fuzz"):
		return "example, benchmark or fuzz function"
	case sym.Kind == graph.KindMethod && commonMethods[name]:
		return "common interface implementation"
	case isGeneratedFile(sym.File):
		return "generated file"
	}
	return ""
}

// ShortName returns the last segment of a qualified symbol id, so that
// "pkg/server.(*Server).Run" and "app/models.py::User.save" yield "Run" and
// "save".
func ShortName(id string) string {
	if i := strings.LastIndexAny(id, ".:/#"); i >= 0 && i < len(id)-1 {
		return id[i+1:]
	}
	return id
}

// Methods called implicitly by the runtime or the standard library.
var commonMethods = map[string]bool{
	"String": true, "Error": true, "Unwrap": true,
	"Read": true, "Write": true, "Close": true, "Seek": true,
	"Len": true, "Less": true, "Swap": true,
	"MarshalText": true, "UnmarshalText": true,
	"MarshalJSON": true, "UnmarshalJSON": true,
	"MarshalYAML": true, "UnmarshalYAML": true,
	"MarshalBinary": true, "UnmarshalBinary": true,
	"Scan": true, "Value": true, "ServeHTTP": true,
	"__init__": true, "__str__": true, "__repr__": true, "__eq__": true, "__hash__": true,
	"__enter__": true, "__exit__": true, "__call__": true, "__iter__": true, "__next__": true,
	"constructor": true, "toString": true, "render": true,
}

var generatedMarkers = []string{
	"_generated.", "_gen.go", ".pb.go", ".pb.gw.go", "_string.go",
	"zz_generated", "mock_", "mocks/", "generated/", "wire_gen.go",
	"_pb2.py", ".d.ts",
}

func isGeneratedFile(file string) bool {
	if file == "" {
		return false
	}
	lower := strings.ToLower(file)
	for _, m := range generatedMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// IsTestFile reports whether file looks like a test file.
func IsTestFile(file string) bool {
	base := path.Base(file)
	switch {
	case strings.HasSuffix(file, "_test.go"),
		strings.HasSuffix(file, "_test.py"),
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."):
		return true
	}
	return strings.Contains(file, "/tests/") || strings.Contains(file, "/__tests__/") ||
		strings.HasPrefix(file, "tests/")
}
