// Package actorctx implements ActionContext, VertexRep, and the
// per-record accumulator the actor tree emits into and the GraphContainer
// is later built from (spec.md §3 "ActionContext", §4.6).
package actorctx

import (
	"reflect"

	"github.com/growgraph/graflo/location"
)

// VertexRep pairs the emerging vertex dict with the ambient context dict
// that produced it, so a cross-level edge join can see both the vertex's
// own fields and the record-scope fields around it (e.g. for
// relation-from-key or match-source/target discriminants).
type VertexRep struct {
	Vertex map[string]interface{}
	Ctx    map[string]interface{}
	// Loc is the location-index the rep was emitted at. Edge joins that
	// label a pair by the key a target was found under (relation-from-key)
	// read this directly off the target rep rather than off the edge
	// actor's own firing location, since one edge firing can pair an
	// ancestor against targets found under several different keys.
	Loc location.Index
}

// EdgeKey is the (source, target, purpose) triple identifying an edge
// type, mirrored from model.EdgeID to keep this package free of a
// dependency on the schema model.
type EdgeKey struct {
	Source, Target, Purpose string
}

// EdgeRecord is one emitted edge: source and target vertex dicts plus an
// assembled weight dict.
type EdgeRecord struct {
	Source map[string]interface{}
	Target map[string]interface{}
	Weight map[string]interface{}
}

type vertexBucket struct {
	Loc  location.Index
	Reps []VertexRep
}

// ActionContext is per-record scratch state accumulated during one
// traversal of the actor tree: a vertex accumulator keyed by
// (vertex-type, location-index), a global edge accumulator keyed by
// edge-id, staging buffers used mid-traversal, and the set of vertex types
// explicitly routed to at the current scope.
type ActionContext struct {
	accVertex map[string][]*vertexBucket
	accGlobal map[EdgeKey][]EdgeRecord

	bufferVertex     []VertexRep
	bufferTransforms map[string]interface{}

	targetVertices map[string]bool
}

// New builds a fresh, empty ActionContext — built once per record, per
// Resource.Apply's contract.
func New() *ActionContext {
	return &ActionContext{
		accVertex:        make(map[string][]*vertexBucket),
		accGlobal:        make(map[EdgeKey][]EdgeRecord),
		bufferTransforms: make(map[string]interface{}),
		targetVertices:   make(map[string]bool),
	}
}

// AddVertex records a VertexRep of the given type at loc. Buckets for a
// given (type, location) are kept in insertion order, satisfying the
// accumulator's "accesses keyed by LocationIndex are insertion-ordered"
// guarantee (§4.6b).
func (c *ActionContext) AddVertex(vertexType string, loc location.Index, rep VertexRep) {
	buckets := c.accVertex[vertexType]
	for _, b := range buckets {
		if b.Loc.Equal(loc) {
			b.Reps = append(b.Reps, rep)
			return
		}
	}
	c.accVertex[vertexType] = append(buckets, &vertexBucket{Loc: loc, Reps: []VertexRep{rep}})
}

// HasVertexType reports whether any VertexRep of vertexType has been
// recorded anywhere in this context, at any location.
func (c *ActionContext) HasVertexType(vertexType string) bool {
	return len(c.accVertex[vertexType]) > 0
}

// RepsAtOrBelow returns every VertexRep of vertexType whose location is
// loc or a descendant of loc, preserving insertion order. Used by a
// non-greedy EdgeActor to find the targets emitted at or under its own
// location.
func (c *ActionContext) RepsAtOrBelow(vertexType string, loc location.Index) []VertexRep {
	var out []VertexRep
	for _, b := range c.accVertex[vertexType] {
		if loc.Filter(b.Loc) {
			out = append(out, b.Reps...)
		}
	}
	return out
}

// MaxCongruenceReps implements the core of the ancestor-scoped edge join
// (spec §4.1 rule 1): among every VertexRep of vertexType, find the
// maximum congruence-measure with loc, and return all reps achieving that
// maximum plus the measure itself.
//
// A raw congruence count alone ties a true ancestor of loc together with an
// unrelated, deeper bucket that merely happens to share as many leading
// segments as loc itself has (e.g. when loc is shallow, every bucket ties
// at measure 0). Among buckets tied on the raw measure, this breaks the tie
// toward the bucket(s) whose own depth is closest to loc's — the true
// ancestor-or-self candidates — rather than deeper, merely-coincident ones.
// Per the spec's Open Question decision (DESIGN.md), ties that remain after
// that depth narrowing (same depth, same measure) resolve as a full
// cross-product — no smallest-location-first narrowing within one depth.
func (c *ActionContext) MaxCongruenceReps(vertexType string, loc location.Index) ([]VertexRep, int) {
	best := -1
	bestDepthDiff := -1
	var reps []VertexRep

	for _, b := range c.accVertex[vertexType] {
		m := loc.CongruenceMeasure(b.Loc)
		diff := b.Loc.Depth() - loc.Depth()
		if diff < 0 {
			diff = -diff
		}
		switch {
		case m > best:
			best = m
			bestDepthDiff = diff
			reps = append([]VertexRep(nil), b.Reps...)
		case m == best && diff < bestDepthDiff:
			bestDepthDiff = diff
			reps = append([]VertexRep(nil), b.Reps...)
		case m == best && diff == bestDepthDiff:
			reps = append(reps, b.Reps...)
		}
	}
	return reps, best
}

// AddGlobalEdge appends rec to the edge-id's accumulated list.
func (c *ActionContext) AddGlobalEdge(key EdgeKey, rec EdgeRecord) {
	c.accGlobal[key] = append(c.accGlobal[key], rec)
}

// SetTarget marks vertexType as explicitly routed to (§3 target_vertices).
// The mark lasts for the rest of the record and is read back only through
// IsTarget; edge emission does not consult it.
func (c *ActionContext) SetTarget(vertexType string) {
	c.targetVertices[vertexType] = true
}

// IsTarget reports whether vertexType was explicitly routed to.
func (c *ActionContext) IsTarget(vertexType string) bool {
	return c.targetVertices[vertexType]
}

// BufferVertex / SetBufferVertex stage the in-flight vertex dict during
// actor traversal (e.g. while a Transform step rewrites fields before a
// Vertex step commits them).
func (c *ActionContext) BufferVertex() []VertexRep { return c.bufferVertex }
func (c *ActionContext) PushBufferVertex(rep VertexRep) {
	c.bufferVertex = append(c.bufferVertex, rep)
}

// BufferTransforms exposes the scoped transform-result staging map.
func (c *ActionContext) BufferTransforms() map[string]interface{} { return c.bufferTransforms }

// PerRecordAccumulator is the result of a full actor-tree traversal over
// one record: vertex dicts flattened per type, and the edge records
// accumulated under each edge-id. The GraphContainer is built by merging
// many of these (§4.2, §4.3).
type PerRecordAccumulator struct {
	Vertices map[string][]map[string]interface{}
	Edges    map[EdgeKey][]EdgeRecord
}

// NormalizeCtx flattens acc_vertex into per-vertex-type lists, de-
// duplicating identical vertex dicts within the same (type, location)
// bucket, and copies acc_global across as the accumulator's edge map
// (§4.1 "Normalisation of context").
func (c *ActionContext) NormalizeCtx() *PerRecordAccumulator {
	out := &PerRecordAccumulator{
		Vertices: make(map[string][]map[string]interface{}, len(c.accVertex)),
		Edges:    make(map[EdgeKey][]EdgeRecord, len(c.accGlobal)),
	}

	for vtype, buckets := range c.accVertex {
		var list []map[string]interface{}
		for _, b := range buckets {
			var seen []map[string]interface{}
			for _, rep := range b.Reps {
				if containsDeepEqual(seen, rep.Vertex) {
					continue
				}
				seen = append(seen, rep.Vertex)
				list = append(list, rep.Vertex)
			}
		}
		out.Vertices[vtype] = list
	}

	for key, recs := range c.accGlobal {
		cp := make([]EdgeRecord, len(recs))
		copy(cp, recs)
		out.Edges[key] = cp
	}

	return out
}

func containsDeepEqual(list []map[string]interface{}, v map[string]interface{}) bool {
	for _, existing := range list {
		if reflect.DeepEqual(existing, v) {
			return true
		}
	}
	return false
}
