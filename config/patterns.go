package config

import (
	"fmt"

	"github.com/growgraph/graflo/internal/errs"
)

// Patterns is the parsed patterns file: a mapping from resource name to one
// or more concrete source descriptors, used by the orchestrator to
// enumerate data sources for each resource (spec.md §6 "Patterns object").
type Patterns struct {
	Resources map[string]ResourcePattern `yaml:"resources"`
}

// FinishInit validates that every declared resource names exactly one kind
// of source descriptor.
func (p *Patterns) FinishInit() error {
	for name, rp := range p.Resources {
		if err := rp.validate(); err != nil {
			return errs.Validation(fmt.Sprintf("patterns resource %q", name), err)
		}
	}
	return nil
}

// FilePattern matches files within a sub-path by regex (spec.md §6: "file
// patterns (regex on filename within a sub-path plus encoding)").
type FilePattern struct {
	SubPath  string `yaml:"sub_path,omitempty"`
	Regex    string `yaml:"regex"`
	Encoding string `yaml:"encoding,omitempty"`
}

// SparqlPattern names a class to fetch, either from a remote SPARQL
// endpoint or a local RDF file, and an optional named graph to scope the
// query to (spec.md §6: "SPARQL patterns (class URI, endpoint or local
// file, optional graph URI)").
type SparqlPattern struct {
	ClassURI  string `yaml:"class_uri"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	LocalFile string `yaml:"local_file,omitempty"`
	GraphURI  string `yaml:"graph_uri,omitempty"`
}

// TablePattern names a relational table and an optional date-based filter
// over it (spec.md §6: "table patterns (table, schema, date field,
// optional date filter WHERE fragment)").
type TablePattern struct {
	Table      string `yaml:"table"`
	Schema     string `yaml:"schema,omitempty"`
	DateField  string `yaml:"date_field,omitempty"`
	DateFilter string `yaml:"date_filter,omitempty"`
}

// ResourcePattern is one resource's source descriptor: either a bare path
// (the spec's "plain resource mappings (resource name -> path)") or
// exactly one of File, Sparql, Table.
type ResourcePattern struct {
	Path   string         `yaml:"path,omitempty"`
	File   *FilePattern   `yaml:"file,omitempty"`
	Sparql *SparqlPattern `yaml:"sparql,omitempty"`
	Table  *TablePattern  `yaml:"table,omitempty"`
}

// UnmarshalYAML accepts either a bare scalar path string or a mapping
// selecting one descriptor kind, mirroring model.Field's bare-string/
// mapping duality.
func (rp *ResourcePattern) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var asString string
	if err := unmarshal(&asString); err == nil {
		rp.Path = asString
		return nil
	}

	type plain ResourcePattern
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*rp = ResourcePattern(p)
	return nil
}

// validate enforces that a resource names exactly one source descriptor.
func (rp *ResourcePattern) validate() error {
	kinds := 0
	if rp.Path != "" {
		kinds++
	}
	if rp.File != nil {
		kinds++
	}
	if rp.Sparql != nil {
		kinds++
	}
	if rp.Table != nil {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("must declare exactly one of path, file, sparql, table; got %d", kinds)
	}
	return nil
}
