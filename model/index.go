package model

// Index is one index definition over a vertex or edge: a set of field
// names plus uniqueness/sparsity/dedup flags and an open-ended "kind" tag
// (e.g. "vector" for the reference Postgres sink's pgvector indexes).
type Index struct {
	// Name, when set, names a joined vertex type rather than listing raw
	// field names directly — see resolveNamedIndex below.
	Name                string   `yaml:"name,omitempty"`
	Fields              []string `yaml:"fields,omitempty"`
	Unique              bool     `yaml:"unique,omitempty"`
	Sparse              bool     `yaml:"sparse,omitempty"`
	Dedup               bool     `yaml:"dedup,omitempty"`
	Kind                string   `yaml:"kind,omitempty"`
	ExcludeEdgeEndpoints bool    `yaml:"exclude_edge_endpoints,omitempty"`
}

// vertexIndexer is satisfied by VertexConfig; kept narrow to avoid an
// import cycle between index.go and vertex.go within the same package
// (both live in model, so this is purely documentation of intent).
type vertexIndexer interface {
	Index(vertexName string) (Index, error)
}

// resolveNamedIndex expands an index that names a joined vertex type
// ("{name}@{field}") into its fully-qualified field list, completing
// SPEC_FULL.md's "vertex index field auto-completion, symmetrically for
// edges" supplement. When idx.Fields already carry the "{name}@" prefix,
// or idx.Name is empty, the index is returned unchanged.
func resolveNamedIndex(idx Index, vc vertexIndexer) (Index, error) {
	if idx.Name == "" {
		return idx, nil
	}

	prefix := idx.Name + "@"
	rawFields := idx.Fields
	alreadyMapped := len(rawFields) > 0
	for _, f := range rawFields {
		if len(f) < len(prefix) || f[:len(prefix)] != prefix {
			alreadyMapped = false
			break
		}
	}
	if alreadyMapped {
		return idx, nil
	}

	fields := rawFields
	if len(fields) == 0 {
		named, err := vc.Index(idx.Name)
		if err != nil {
			return Index{}, err
		}
		fields = named.Fields
	}

	mapped := make([]string, len(fields))
	for i, f := range fields {
		mapped[i] = prefix + f
	}
	idx.Fields = mapped
	return idx, nil
}
