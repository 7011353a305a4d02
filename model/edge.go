package model

import "fmt"

// EdgeType classifies how an edge is realized. DIRECT and INDIRECT are
// named in spec.md §3; AUX marks scaffolding-only edges excluded from the
// default edge listing (SPEC_FULL.md §3 supplement 1).
type EdgeType string

const (
	EdgeTypeDirect   EdgeType = "DIRECT"
	EdgeTypeIndirect EdgeType = "INDIRECT"
	EdgeTypeAux      EdgeType = "AUX"
)

// EdgeID is an edge's identity: the (source, target, purpose) triple.
type EdgeID struct {
	Source  string
	Target  string
	Purpose string
}

// Weight is one indirect weight source: Name is the vertex type to join
// against, Fields are the fields to project from it.
type Weight struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
}

// CField is the composite "entity@field" name used when an indirect
// weight's projected field is injected into an edge record, disambiguating
// two vertex types that share a field name.
func (w Weight) CField(field string) string {
	return w.Name + "@" + field
}

// WeightConfig separates an edge's weight sources into Direct (fields read
// straight from the emitting record) and Vertices (indirect, joined from
// another vertex type's current store state at write time — §4.4 phase 3).
type WeightConfig struct {
	Direct   []Field  `yaml:"direct,omitempty"`
	Vertices []Weight `yaml:"vertices,omitempty"`
}

// DirectNames projects WeightConfig.Direct to field names.
func (w WeightConfig) DirectNames() []string {
	return FieldNames(w.Direct)
}

// Edge is one edge type: source/target vertex-type names, optional purpose
// (disambiguating parallel edges), relation labeling, match/exclude
// discriminants, weights, indexes, and its EdgeType.
type Edge struct {
	Source  string `yaml:"source"`
	Target  string `yaml:"target"`
	Purpose string `yaml:"purpose,omitempty"`

	Relation        string `yaml:"relation,omitempty"`
	RelationField   string `yaml:"relation_field,omitempty"`
	RelationFromKey bool   `yaml:"relation_from_key,omitempty"`

	MatchSource string `yaml:"match_source,omitempty"`
	MatchTarget string `yaml:"match_target,omitempty"`

	ExcludeSource interface{} `yaml:"exclude_source,omitempty"`
	ExcludeTarget interface{} `yaml:"exclude_target,omitempty"`

	Weights *WeightConfig `yaml:"weights,omitempty"`
	Indexes []Index       `yaml:"indexes,omitempty"`

	Type EdgeType `yaml:"type,omitempty"`
	Aux  bool     `yaml:"aux,omitempty"`

	// By names the grouping field for an INDIRECT edge (the field whose
	// value all co-members share). It is carried as declared; finishInit
	// does not resolve or rewrite it.
	By string `yaml:"by,omitempty"`

	sourceDB string
	targetDB string
}

// EdgeID returns the edge's identity triple.
func (e *Edge) EdgeID() EdgeID {
	return EdgeID{Source: e.Source, Target: e.Target, Purpose: e.Purpose}
}

// SourceDBName / TargetDBName return the source/target vertex's storage
// name, resolved during FinishInit.
func (e *Edge) SourceDBName() string { return e.sourceDB }
func (e *Edge) TargetDBName() string { return e.targetDB }

// finishInit resolves edge storage names against the vertex config,
// defaults its Type, and completes its indexes. db_flavor-specific
// scaffolding (TigerGraph's mandatory relation field, ArangoDB's
// graph/collection naming) is explicitly out of scope for the Go core —
// the spec's Non-goals put backend-specific physical naming beyond the
// sink interface — so only the flavor-agnostic defaulting survives here.
func (e *Edge) finishInit(vc *VertexConfig) error {
	if e.Type == "" {
		e.Type = EdgeTypeDirect
	}

	sdb, err := vc.DBName(e.Source)
	if err != nil {
		return fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
	}
	tdb, err := vc.DBName(e.Target)
	if err != nil {
		return fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
	}
	e.sourceDB = sdb
	e.targetDB = tdb

	for i, idx := range e.Indexes {
		resolved, err := resolveNamedIndex(idx, vc)
		if err != nil {
			return err
		}
		e.Indexes[i] = resolved
	}
	return nil
}

// Merge performs the in-place merge behavior of the original's generic
// ConfigBaseModel.update(): list fields concatenate, map fields are
// shallow-merged with other's keys winning, and other's zero values never
// overwrite an existing value. SPEC_FULL.md §3 supplement 3.
func (e *Edge) Merge(other Edge) {
	if other.Relation != "" {
		e.Relation = other.Relation
	}
	if other.RelationField != "" {
		e.RelationField = other.RelationField
	}
	if other.MatchSource != "" {
		e.MatchSource = other.MatchSource
	}
	if other.MatchTarget != "" {
		e.MatchTarget = other.MatchTarget
	}
	if other.Type != "" {
		e.Type = other.Type
	}
	e.Indexes = append(e.Indexes, other.Indexes...)
	if other.Weights != nil {
		if e.Weights == nil {
			e.Weights = other.Weights
		} else {
			e.Weights.Direct = append(e.Weights.Direct, other.Weights.Direct...)
			e.Weights.Vertices = append(e.Weights.Vertices, other.Weights.Vertices...)
		}
	}
}

// EdgeConfig is the schema's full collection of edge types.
type EdgeConfig struct {
	Edges []Edge `yaml:"edges"`

	byID map[EdgeID]*Edge
}

// FinishInit resolves every edge against the vertex config and builds the
// edge-id lookup map.
func (ec *EdgeConfig) FinishInit(vc *VertexConfig) error {
	ec.byID = make(map[EdgeID]*Edge, len(ec.Edges))
	for i := range ec.Edges {
		if err := ec.Edges[i].finishInit(vc); err != nil {
			return err
		}
		ec.byID[ec.Edges[i].EdgeID()] = &ec.Edges[i]
	}
	return nil
}

// EdgesList returns declared edges, excluding AUX edges unless includeAux
// is set (SPEC_FULL.md §3 supplement 1).
func (ec *EdgeConfig) EdgesList(includeAux bool) []*Edge {
	out := make([]*Edge, 0, len(ec.Edges))
	for i := range ec.Edges {
		if includeAux || !ec.Edges[i].Aux {
			out = append(out, &ec.Edges[i])
		}
	}
	return out
}

// Lookup resolves an edge definition by its identity triple.
func (ec *EdgeConfig) Lookup(id EdgeID) (*Edge, bool) {
	e, ok := ec.byID[id]
	return e, ok
}

// Contains reports whether id names a declared edge.
func (ec *EdgeConfig) Contains(id EdgeID) bool {
	_, ok := ec.byID[id]
	return ok
}

// UpdateEdge merges edge into the existing definition sharing its
// EdgeID, or appends it as new, then re-resolves it against vc — the
// Go analogue of the original's update_edges. SPEC_FULL.md §3 supplement 3.
func (ec *EdgeConfig) UpdateEdge(edge Edge, vc *VertexConfig) error {
	id := edge.EdgeID()
	if existing, ok := ec.byID[id]; ok {
		existing.Merge(edge)
		return existing.finishInit(vc)
	}
	ec.Edges = append(ec.Edges, edge)
	added := &ec.Edges[len(ec.Edges)-1]
	if err := added.finishInit(vc); err != nil {
		return err
	}
	if ec.byID == nil {
		ec.byID = make(map[EdgeID]*Edge)
	}
	ec.byID[id] = added
	return nil
}

// Vertices returns the set of vertex type names referenced by any edge.
func (ec *EdgeConfig) Vertices() map[string]bool {
	set := make(map[string]bool)
	for _, e := range ec.Edges {
		set[e.Source] = true
		set[e.Target] = true
	}
	return set
}
