// Package schema assembles a vertex config, an edge config, a transform
// library, and a set of Resources into one frozen object a Caster can
// drive (spec.md §3 "Schema", §6 "Schema file format"). It is the layer
// that turns the declarative config types in model/ into a ready-to-run
// actor tree per resource.
package schema

import (
	"fmt"

	"github.com/growgraph/graflo/actor"
	"github.com/growgraph/graflo/internal/errs"
	"github.com/growgraph/graflo/model"
)

// General carries the schema file's top-level name/version pair
// (spec.md §6 "top-level keys general").
type General struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
}

// Schema is the fully assembled, read-only-after-FinishInit configuration
// for one ingestion run: vertex/edge definitions, the named transform
// library resources reference by name, and the resources themselves.
type Schema struct {
	General      General                   `yaml:"general"`
	VertexConfig model.VertexConfig        `yaml:"vertex_config"`
	EdgeConfig   model.EdgeConfig          `yaml:"edge_config"`
	Transforms   map[string]*model.Transform `yaml:"transforms,omitempty"`
	Resources    []*actor.Resource         `yaml:"resources"`

	byResourceName map[string]*actor.Resource
}

// FinishInit freezes the schema: resolves vertex and edge configs, then
// binds every resource's actor tree to them and to the named transform
// library, rejecting duplicate resource names (spec §7 "Validation —
// duplicate resource names").
func (s *Schema) FinishInit() error {
	if err := s.VertexConfig.FinishInit(); err != nil {
		return errs.Validation("schema vertex_config", err)
	}
	if err := s.EdgeConfig.FinishInit(&s.VertexConfig); err != nil {
		return errs.Validation("schema edge_config", err)
	}

	for _, t := range s.Transforms {
		if err := t.FinishInit(); err != nil {
			return errs.TransformLoad("schema transforms", err)
		}
	}

	s.byResourceName = make(map[string]*actor.Resource, len(s.Resources))
	for _, r := range s.Resources {
		if _, dup := s.byResourceName[r.Name]; dup {
			return errs.Validation("schema resources", fmt.Errorf("duplicate resource name %q", r.Name))
		}
		if err := r.FinishInit(&s.VertexConfig, &s.EdgeConfig, s.Transforms); err != nil {
			return err
		}
		s.byResourceName[r.Name] = r
	}
	return nil
}

// ResourceByName resolves a resource by its declared name.
func (s *Schema) ResourceByName(name string) (*actor.Resource, bool) {
	r, ok := s.byResourceName[name]
	return r, ok
}

// ResourceNames returns every resource's name, in declaration order.
func (s *Schema) ResourceNames() []string {
	out := make([]string, len(s.Resources))
	for i, r := range s.Resources {
		out[i] = r.Name
	}
	return out
}
