package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DBFlavor names the target backend family. It is decoded from the schema
// file and carried on VertexConfig; no default or code path in this module
// reads it, and it drives no query-language generation.
type DBFlavor string

const (
	DBFlavorGeneric    DBFlavor = ""
	DBFlavorArango     DBFlavor = "ARANGO"
	DBFlavorNeo4j      DBFlavor = "NEO4J"
	DBFlavorTigerGraph DBFlavor = "TIGERGRAPH"
	DBFlavorPostgres   DBFlavor = "POSTGRES"
)

// Vertex is one vertex type: name, storage name, fields, indexes, and
// filters. A vertex with no intrinsic identity (Blank, set on the owning
// VertexConfig's BlankVertices list) has its identity assigned by the
// writer rather than carried in the record.
type Vertex struct {
	Name    string           `yaml:"name"`
	DBName  string           `yaml:"dbname,omitempty"`
	Fields  []Field          `yaml:"fields,omitempty"`
	Indexes []Index          `yaml:"indexes,omitempty"`
	Filters []FilterExpr     `yaml:"filters,omitempty"`
}

// UnmarshalYAML decodes Vertex while silently ignoring unrecognized keys,
// the Go analogue of the original's `model_config = ConfigDict(extra=
// "ignore")` on its vertex type (SPEC_FULL.md §1.3). Every other config
// type in the schema is decoded with the caller's
// `yaml.Decoder.KnownFields(true)` and so fails on an unknown key; Vertex
// and VertexConfig are the two deliberate exceptions, so they decode
// through an intermediate raw map instead of relying on struct tags.
func (v *Vertex) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return decodeKnownOnly(raw, map[string]interface{}{
		"name":    &v.Name,
		"dbname":  &v.DBName,
		"fields":  &v.Fields,
		"indexes": &v.Indexes,
		"filters": &v.Filters,
	})
}

// decodeKnownOnly decodes only the keys of raw named in targets, by
// re-marshaling each recognized value and unmarshaling it into its
// destination's real Go type, ignoring every other key in raw.
func decodeKnownOnly(raw map[string]interface{}, targets map[string]interface{}) error {
	for key, dst := range targets {
		val, ok := raw[key]
		if !ok {
			continue
		}
		b, err := yaml.Marshal(val)
		if err != nil {
			return fmt.Errorf("re-marshal %q: %w", key, err)
		}
		if err := yaml.Unmarshal(b, dst); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
	}
	return nil
}

// finishInit applies the §3 invariants: default storage name, a
// synthesized default index when none is declared, and auto-completion of
// any field named by an index but missing from the field list.
func (v *Vertex) finishInit() {
	if v.DBName == "" {
		v.DBName = v.Name
	}

	if len(v.Indexes) == 0 {
		v.Indexes = []Index{{Fields: FieldNames(v.Fields)}}
		return
	}

	seen := make(map[string]bool, len(v.Fields))
	for _, f := range v.Fields {
		seen[f.Name] = true
	}
	for _, idx := range v.Indexes {
		for _, name := range idx.Fields {
			if !seen[name] {
				v.Fields = append(v.Fields, Field{Name: name})
				seen[name] = true
			}
		}
	}
}

// FieldNamesSet returns the vertex's declared field names (plus any
// auxiliary fields injected at runtime are validated separately), used by
// the actor tree to enforce "no VertexRep field outside its declared
// fields" (§8 invariant).
func (v *Vertex) FieldNamesSet() map[string]bool {
	set := make(map[string]bool, len(v.Fields))
	for _, f := range v.Fields {
		set[f.Name] = true
	}
	return set
}

// VertexConfig is the full collection of vertex types in a schema, plus
// which of them are blank (identity assigned by the writer) and any
// force_types overrides used for inference.
type VertexConfig struct {
	Vertices     []Vertex            `yaml:"vertices"`
	BlankVertices []string           `yaml:"blank_vertices,omitempty"`
	ForceTypes   map[string][]string `yaml:"force_types,omitempty"`
	DBFlavor     DBFlavor            `yaml:"db_flavor,omitempty"`

	byName map[string]*Vertex
	byDB   map[string]*Vertex
	blank  map[string]bool
}

// UnmarshalYAML decodes VertexConfig while silently ignoring unrecognized
// keys, for the same reason as Vertex.UnmarshalYAML above.
func (vc *VertexConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return decodeKnownOnly(raw, map[string]interface{}{
		"vertices":       &vc.Vertices,
		"blank_vertices": &vc.BlankVertices,
		"force_types":    &vc.ForceTypes,
		"db_flavor":      &vc.DBFlavor,
	})
}

// FinishInit freezes the vertex config: builds lookup maps, validates that
// every blank vertex name is a declared vertex, and applies per-vertex
// defaulting (storage name, default index synthesis, index/field
// completion).
func (vc *VertexConfig) FinishInit() error {
	vc.byName = make(map[string]*Vertex, len(vc.Vertices))
	vc.byDB = make(map[string]*Vertex, len(vc.Vertices))
	for i := range vc.Vertices {
		vc.Vertices[i].finishInit()
		vc.byName[vc.Vertices[i].Name] = &vc.Vertices[i]
		vc.byDB[vc.Vertices[i].DBName] = &vc.Vertices[i]
	}

	vc.blank = make(map[string]bool, len(vc.BlankVertices))
	for _, name := range vc.BlankVertices {
		if _, ok := vc.byName[name]; !ok {
			return fmt.Errorf("blank vertex %q is not defined as a vertex", name)
		}
		vc.blank[name] = true
	}

	for i := range vc.Vertices {
		v := &vc.Vertices[i]
		for j, idx := range v.Indexes {
			resolved, err := resolveNamedIndex(idx, vc)
			if err != nil {
				return err
			}
			v.Indexes[j] = resolved
		}
	}
	return nil
}

// byNameOrDB resolves a vertex by its logical name or its storage name,
// mirroring _get_vertex_by_name_or_dbname.
func (vc *VertexConfig) byNameOrDB(identifier string) (*Vertex, error) {
	if v, ok := vc.byName[identifier]; ok {
		return v, nil
	}
	if v, ok := vc.byDB[identifier]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("vertex %q not found by name or dbname", identifier)
}

// VertexByName resolves a vertex type by name or storage name.
func (vc *VertexConfig) VertexByName(name string) (*Vertex, error) {
	return vc.byNameOrDB(name)
}

// DBName resolves the storage name of a vertex.
func (vc *VertexConfig) DBName(name string) (string, error) {
	v, err := vc.byNameOrDB(name)
	if err != nil {
		return "", err
	}
	return v.DBName, nil
}

// Index returns a vertex's primary (first-declared) index, used when
// another index names this vertex type for field expansion.
func (vc *VertexConfig) Index(name string) (Index, error) {
	v, err := vc.byNameOrDB(name)
	if err != nil {
		return Index{}, err
	}
	if len(v.Indexes) == 0 {
		return Index{}, fmt.Errorf("vertex %q has no indexes", name)
	}
	return v.Indexes[0], nil
}

// Indexes returns all of a vertex's declared indexes.
func (vc *VertexConfig) Indexes(name string) ([]Index, error) {
	v, err := vc.byNameOrDB(name)
	if err != nil {
		return nil, err
	}
	return v.Indexes, nil
}

// IsBlank reports whether a vertex type carries no intrinsic identity.
func (vc *VertexConfig) IsBlank(name string) bool {
	return vc.blank[name]
}

// IdentityFields returns the field names the writer treats as a vertex's
// natural identity: the fields of its first declared index (after
// default-index synthesis in finishInit, every vertex has at least one).
// A blank vertex's identity fields are empty until the writer assigns one.
func (vc *VertexConfig) IdentityFields(name string) []string {
	if vc.IsBlank(name) {
		return nil
	}
	v, err := vc.byNameOrDB(name)
	if err != nil || len(v.Indexes) == 0 {
		return nil
	}
	return v.Indexes[0].Fields
}

// RemoveVertices removes the named vertex types (and prunes them from
// BlankVertices), a SPEC_FULL.md supplement used by schema-composition
// tooling that edits a VertexConfig before FinishInit is called.
func (vc *VertexConfig) RemoveVertices(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := vc.Vertices[:0]
	for _, v := range vc.Vertices {
		if !drop[v.Name] {
			kept = append(kept, v)
		}
	}
	vc.Vertices = kept

	keptBlank := vc.BlankVertices[:0]
	for _, b := range vc.BlankVertices {
		if !drop[b] {
			keptBlank = append(keptBlank, b)
		}
	}
	vc.BlankVertices = keptBlank
}
