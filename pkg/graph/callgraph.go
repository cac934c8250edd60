package graph

// Metadata keys used by [CallGraph] and [DependencyGraph].
const (
	MetaFile         = "file"
	MetaKind         = "kind"
	MetaLine         = "line"
	MetaExported     = "exported"
	MetaConditional  = "conditional"
	MetaImportKind   = "import_kind"
	MetaPath         = "path"
	MetaAbstractness = "abstractness"
)

// Symbol kinds reported by the parser.
const (
	KindFunction = "function"
	KindMethod   = "method"
	KindTest     = "test"
	KindClass    = "class"
)

// FunctionInfo describes a defined function or method.
type FunctionInfo struct {
	File     string
	Kind     string
	Line     int
	Exported bool
}

// CallSite describes where a call happens. Conditional marks calls guarded by
// a branch, which may not execute at runtime.
type CallSite struct {
	File        string
	Line        int
	Conditional bool
}

// CallGraph is a [Graph] where an edge means "caller calls callee".
type CallGraph struct {
	*Graph
}

// NewCallGraph creates an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{Graph: New(Metadata{"graph": "calls"})}
}

// AddFunction adds or updates a function node.
func (c *CallGraph) AddFunction(id string, info FunctionInfo) error {
	meta := Metadata{MetaExported: info.Exported}
	if info.File != "" {
		meta[MetaFile] = info.File
	}
	if info.Kind != "" {
		meta[MetaKind] = info.Kind
	}
	if info.Line > 0 {
		meta[MetaLine] = info.Line
	}
	return c.AddNode(id, meta)
}

// AddCall records that caller calls callee at site.
func (c *CallGraph) AddCall(caller, callee string, site CallSite) error {
	meta := Metadata{MetaConditional: site.Conditional}
	if site.File != "" {
		meta[MetaFile] = site.File
	}
	if site.Line > 0 {
		meta[MetaLine] = site.Line
	}
	return c.AddEdge(caller, callee, meta)
}

// Callees returns the functions called by id.
func (c *CallGraph) Callees(id string) ([]string, error) { return c.Successors(id) }

// Callers returns the functions calling id.
func (c *CallGraph) Callers(id string) ([]string, error) { return c.Predecessors(id) }

// FileOf returns the defining file of a function, or "" if unknown.
func (c *CallGraph) FileOf(id string) string {
	m, _ := c.Node(id)
	s, _ := m[MetaFile].(string)
	return s
}

// KindOf returns the symbol kind of a function, or "" if unknown.
func (c *CallGraph) KindOf(id string) string {
	m, _ := c.Node(id)
	s, _ := m[MetaKind].(string)
	return s
}

// LineOf returns the definition line of a function, or 0 if unknown. Lines
// decoded from JSON arrive as float64 and are accepted too.
func (c *CallGraph) LineOf(id string) int {
	m, _ := c.Node(id)
	switch v := m[MetaLine].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// IsExported reports whether the function is marked exported.
func (c *CallGraph) IsExported(id string) bool {
	m, _ := c.Node(id)
	b, _ := m[MetaExported].(bool)
	return b
}
