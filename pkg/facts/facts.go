package facts

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/insights"
)

// File holds the facts extracted from one source file.
type File struct {
	File    string                `json:"file" yaml:"file" toml:"file"`
	Module  string                `json:"module,omitempty" yaml:"module,omitempty" toml:"module,omitempty"`
	Symbols []Symbol              `json:"symbols,omitempty" yaml:"symbols,omitempty" toml:"symbols,omitempty"`
	Calls   []Call                `json:"calls,omitempty" yaml:"calls,omitempty" toml:"calls,omitempty"`
	Imports []Import              `json:"imports,omitempty" yaml:"imports,omitempty" toml:"imports,omitempty"`
	Usages  []Usage               `json:"usages,omitempty" yaml:"usages,omitempty" toml:"usages,omitempty"`
	Metrics *insights.FileMetrics `json:"metrics,omitempty" yaml:"metrics,omitempty" toml:"metrics,omitempty"`
}

// Symbol is a defined function, method, class or test.
type Symbol struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty" toml:"line,omitempty"`
	Exported bool   `json:"exported,omitempty" yaml:"exported,omitempty" toml:"exported,omitempty"`
}

// Call is a call site.
type Call struct {
	Caller      string `json:"caller" yaml:"caller" toml:"caller"`
	Callee      string `json:"callee" yaml:"callee" toml:"callee"`
	Line        int    `json:"line,omitempty" yaml:"line,omitempty" toml:"line,omitempty"`
	Conditional bool   `json:"conditional,omitempty" yaml:"conditional,omitempty" toml:"conditional,omitempty"`
}

// Import is a module dependency. An empty From means the file's module.
type Import struct {
	From string `json:"from,omitempty" yaml:"from,omitempty" toml:"from,omitempty"`
	To   string `json:"to" yaml:"to" toml:"to"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
}

// Usage is a non-call reference to a symbol.
type Usage struct {
	Symbol    string   `json:"symbol" yaml:"symbol" toml:"symbol"`
	DefinedIn string   `json:"defined_in,omitempty" yaml:"defined_in,omitempty" toml:"defined_in,omitempty"`
	UsedBy    []string `json:"used_by" yaml:"used_by" toml:"used_by"`
}

// ModuleID returns the module the file belongs to, defaulting to the file.
func (f *File) ModuleID() string {
	if f.Module != "" {
		return f.Module
	}
	return f.File
}

// Format is a fact file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported fact file extension %q", filepath.Ext(path))
}

// Decode parses one fact document. Syntax errors fail with INVALID_FORMAT;
// the document is not validated.
func Decode(data []byte, format Format) (*File, error) {
	var f File
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &f)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&f)
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported fact format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s facts", format)
	}
	return &f, nil
}

// Validate checks a decoded document for data the graphs cannot hold.
// Violations fail with MALFORMED_DATA.
func (f *File) Validate() error {
	if err := errors.ValidatePath(f.File); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedData, err, "fact file path")
	}
	for i, s := range f.Symbols {
		if err := errors.ValidateNodeID(s.ID); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedData, err, "%s: symbol %d", f.File, i)
		}
	}
	for i, c := range f.Calls {
		if err := errors.ValidateNodeID(c.Caller); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedData, err, "%s: call %d caller", f.File, i)
		}
		if err := errors.ValidateNodeID(c.Callee); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedData, err, "%s: call %d callee", f.File, i)
		}
	}
	for i, imp := range f.Imports {
		if err := errors.ValidateNodeID(imp.To); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedData, err, "%s: import %d", f.File, i)
		}
		if _, err := graph.ParseImportKind(imp.Kind); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedData, err, "%s: import %d", f.File, i)
		}
	}
	for i, u := range f.Usages {
		if err := errors.ValidateNodeID(u.Symbol); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedData, err, "%s: usage %d", f.File, i)
		}
		for _, by := range u.UsedBy {
			if err := errors.ValidateNodeID(by); err != nil {
				return errors.Wrap(errors.ErrCodeMalformedData, err, "%s: usage %d user", f.File, i)
			}
		}
	}
	if m := f.Metrics; m != nil && (m.LinesOfCode < 0 || m.Complexity < 0 || m.Abstractness < 0 || m.Abstractness > 1) {
		return errors.Malformed("%s: metrics out of range", f.File)
	}
	return nil
}
