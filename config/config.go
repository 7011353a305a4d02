// Package config loads a schema file and a patterns file from disk
// (spec.md §6 "External Interfaces"). Every config type decodes through
// yaml.Decoder.KnownFields(true) — the Go analogue of the original's
// ConfigBaseModel extra="forbid" — except model.Vertex and
// model.VertexConfig, which implement their own UnmarshalYAML to relax
// that rule (SPEC_FULL.md §1.3).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/growgraph/graflo/internal/errs"
	"github.com/growgraph/graflo/schema"
)

// LoadSchema reads and validates a schema file, returning a fully
// initialized schema.Schema (vertex/edge configs resolved, resources bound
// to their actor trees).
func LoadSchema(path string) (*schema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Validation("config.LoadSchema open", err)
	}
	defer f.Close()

	var s schema.Schema
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errs.Validation(fmt.Sprintf("config.LoadSchema decode %s", path), err)
	}

	if err := s.FinishInit(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadPatterns reads and validates a patterns file, returning the parsed
// mapping from resource name to its concrete source descriptors.
func LoadPatterns(path string) (*Patterns, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Validation("config.LoadPatterns open", err)
	}
	defer f.Close()

	var p Patterns
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, errs.Validation(fmt.Sprintf("config.LoadPatterns decode %s", path), err)
	}

	if err := p.FinishInit(); err != nil {
		return nil, err
	}
	return &p, nil
}
