package actor

import (
	"fmt"
	"reflect"

	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/internal/errs"
	"github.com/growgraph/graflo/location"
	"github.com/growgraph/graflo/model"
)

// RelationWeightKey is the weight-dict key an Edge actor uses to carry an
// explicit, per-record relation label (set via relation_from_key). DBWriter
// prefers this over the edge's configured relation (spec.md §4.4 phase 4).
const RelationWeightKey = "_relation"

// EdgeActor emits edges between two vertex types at the current location,
// following the ancestor-scoped join described in spec.md §4.1. The edge's
// full definition (weights, match/exclude discriminants, relation config)
// lives in the schema's EdgeConfig; this actor only names the endpoints and
// resolves the definition once at finish_init.
type EdgeActor struct {
	Source  string
	Target  string
	Purpose string

	// MatchSourceHint/MatchTargetHint let a step override the edge
	// definition's match fields; empty defers to the definition.
	MatchSourceHint string
	MatchTargetHint string

	edge    *model.Edge
	greedy  bool
}

func (a *EdgeActor) count() int { return 1 }

func (a *EdgeActor) finishInit(vc *model.VertexConfig, ec *model.EdgeConfig, transforms map[string]*model.Transform, edgeGreedy bool) error {
	id := model.EdgeID{Source: a.Source, Target: a.Target, Purpose: a.Purpose}
	e, ok := ec.Lookup(id)
	if !ok {
		return errs.Validation("edge actor", fmt.Errorf("edge (%s, %s, %s) is not declared in edge_config", a.Source, a.Target, a.Purpose))
	}
	a.edge = e
	a.greedy = edgeGreedy
	return nil
}

// Execute implements the ancestor-scoped join: select the maximum-
// congruence VertexReps of the source type, the eligible reps of the
// target type (full congruence search when greedy, otherwise only reps
// emitted at-or-below this location), and emit one edge record per
// surviving (source, target) pair after match/exclude filtering.
func (a *EdgeActor) Execute(ctx *actorctx.ActionContext, doc map[string]interface{}, loc location.Index) error {
	sReps, _ := ctx.MaxCongruenceReps(a.Source, loc)
	if len(sReps) == 0 {
		return nil
	}

	var tReps []actorctx.VertexRep
	if a.greedy {
		tReps, _ = ctx.MaxCongruenceReps(a.Target, loc)
	} else {
		tReps = ctx.RepsAtOrBelow(a.Target, loc)
	}
	// When source and target share a vertex type, the same rep can
	// legitimately qualify for both roles (e.g. an ancestor located
	// exactly at loc). Drop it from the target side so the join never
	// pairs a rep with itself.
	tReps = excludeReps(tReps, sReps)
	if len(tReps) == 0 {
		return nil
	}

	matchSource := a.MatchSourceHint
	if matchSource == "" {
		matchSource = a.edge.MatchSource
	}
	matchTarget := a.MatchTargetHint
	if matchTarget == "" {
		matchTarget = a.edge.MatchTarget
	}
	if matchTarget == "" {
		matchTarget = matchSource
	}

	for _, s := range sReps {
		if excluded(s.Vertex, a.edge.ExcludeSource) {
			continue
		}
		for _, t := range tReps {
			if excluded(t.Vertex, a.edge.ExcludeTarget) {
				continue
			}
			if matchSource != "" && !valuesEqual(s.Vertex[matchSource], t.Vertex[matchTarget]) {
				continue
			}

			weight := directWeight(a.edge, doc)
			if a.edge.RelationFromKey {
				// One edge firing can pair a shallow ancestor against
				// targets found under several different keys (e.g. a
				// "depends" list next to a "suggests" list); the label
				// comes from each target's own location, not the edge
				// actor's firing location.
				if key, ok := t.Loc.NearestKeySegment(); ok {
					weight[RelationWeightKey] = key
				}
			}

			ctx.AddGlobalEdge(actorctx.EdgeKey{Source: a.Source, Target: a.Target, Purpose: a.Purpose}, actorctx.EdgeRecord{
				Source: s.Vertex,
				Target: t.Vertex,
				Weight: weight,
			})
		}
	}
	return nil
}

func directWeight(e *model.Edge, doc map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	if e.Weights == nil {
		return out
	}
	for _, name := range e.Weights.DirectNames() {
		if v, ok := doc[name]; ok {
			out[name] = v
		}
	}
	return out
}

// excluded reports whether vertex carries the exclusion marker named by
// marker, a single-entry {field: value} map naming the field and the value
// that excludes a pair from edge emission.
func excluded(vertex map[string]interface{}, marker interface{}) bool {
	m, ok := marker.(map[string]interface{})
	if !ok {
		return false
	}
	for field, want := range m {
		if valuesEqual(vertex[field], want) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func excludeReps(candidates, exclude []actorctx.VertexRep) []actorctx.VertexRep {
	if len(exclude) == 0 {
		return candidates
	}
	out := make([]actorctx.VertexRep, 0, len(candidates))
	for _, c := range candidates {
		if !containsSameVertex(exclude, c) {
			out = append(out, c)
		}
	}
	return out
}

func containsSameVertex(reps []actorctx.VertexRep, target actorctx.VertexRep) bool {
	for _, r := range reps {
		if reflect.ValueOf(r.Vertex).Pointer() == reflect.ValueOf(target.Vertex).Pointer() {
			return true
		}
	}
	return false
}
