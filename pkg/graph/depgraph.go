package graph

import "fmt"

// ImportKind classifies an import edge.
type ImportKind string

// Import kinds.
const (
	ImportStatic   ImportKind = "static"
	ImportRelative ImportKind = "relative"
	ImportDynamic  ImportKind = "dynamic"
	ImportTypeOnly ImportKind = "type_only"
)

// ParseImportKind converts a parser-supplied string to an ImportKind.
// An empty string maps to [ImportStatic].
func ParseImportKind(s string) (ImportKind, error) {
	switch k := ImportKind(s); k {
	case "":
		return ImportStatic, nil
	case ImportStatic, ImportRelative, ImportDynamic, ImportTypeOnly:
		return k, nil
	default:
		return "", fmt.Errorf("unknown import kind %q", s)
	}
}

// ModuleInfo describes a module or file node. Abstractness is the ratio of
// abstract or interface symbols to all symbols, as computed by the parser.
type ModuleInfo struct {
	Path         string
	Abstractness float64
}

// DependencyGraph is a [Graph] where an edge means "module depends on module".
type DependencyGraph struct {
	*Graph
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{Graph: New(Metadata{"graph": "dependencies"})}
}

// AddModule adds or updates a module node.
func (d *DependencyGraph) AddModule(id string, info ModuleInfo) error {
	meta := Metadata{MetaAbstractness: info.Abstractness}
	if info.Path != "" {
		meta[MetaPath] = info.Path
	}
	return d.AddNode(id, meta)
}

// AddImport records that from depends on to.
func (d *DependencyGraph) AddImport(from, to string, kind ImportKind) error {
	if kind == "" {
		kind = ImportStatic
	}
	return d.AddEdge(from, to, Metadata{MetaImportKind: string(kind)})
}

// Dependencies returns the modules id depends on.
func (d *DependencyGraph) Dependencies(id string) ([]string, error) { return d.Successors(id) }

// Dependents returns the modules depending on id.
func (d *DependencyGraph) Dependents(id string) ([]string, error) { return d.Predecessors(id) }

// Abstractness returns the abstractness recorded for a module, or 0.
// Values decoded from JSON arrive as float64; integer values are accepted too.
func (d *DependencyGraph) Abstractness(id string) float64 {
	m, _ := d.Node(id)
	switch v := m[MetaAbstractness].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
