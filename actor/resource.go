package actor

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/internal/errs"
	"github.com/growgraph/graflo/location"
	"github.com/growgraph/graflo/model"
)

// Resource owns one actor tree plus a per-field type-casting table, an
// encoding tag, a greedy-edge flag, and an optional extra-weights list
// (spec.md §3 "Resource", §4.2). It is immutable after FinishInit.
type Resource struct {
	Name         string
	Pipeline     []interface{}
	Encoding     string
	Casting      map[string]string
	EdgeGreedy   bool
	ExtraWeights []string

	Log *slog.Logger

	root         Wrapper
	vertexConfig *model.VertexConfig
	edgeConfig   *model.EdgeConfig
	casters      map[string]model.CastFunc
}

// FinishInit builds the actor tree from Pipeline, binds it to the schema's
// live vertex/edge config and transform library, and resolves the casting
// table against the closed cast-function registry (spec.md §9 "Type-caster
// strings").
func (r *Resource) FinishInit(vc *model.VertexConfig, ec *model.EdgeConfig, transforms map[string]*model.Transform) error {
	root, err := Build(r.Pipeline)
	if err != nil {
		return errs.Validation("resource "+r.Name, err)
	}
	if err := root.finishInit(vc, ec, transforms, r.EdgeGreedy); err != nil {
		return err
	}

	r.root = root
	r.vertexConfig = vc
	r.edgeConfig = ec

	r.casters = make(map[string]model.CastFunc, len(r.Casting))
	for field, expr := range r.Casting {
		fn, ok := model.ResolveCast(expr)
		if !ok {
			r.logger().Warn("type-caster expression outside the allow-list; field will be dropped at apply time", "field", field, "expr", expr)
			r.casters[field] = nil
			continue
		}
		r.casters[field] = fn
	}
	return nil
}

func (r *Resource) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Count returns the number of actors in the resource's tree, for
// diagnostics (spec.md §4.2).
func (r *Resource) Count() int {
	if r.root == nil {
		return 0
	}
	return r.root.count()
}

// VertexConfig / EdgeConfig expose the resource's bound schema pieces so the
// writer can resolve identity fields without re-threading the schema.
func (r *Resource) VertexConfig() *model.VertexConfig { return r.vertexConfig }
func (r *Resource) EdgeConfig() *model.EdgeConfig     { return r.edgeConfig }

// Apply casts record's fields per the casting table, runs the actor tree
// against it, and returns the normalized per-record accumulator
// (spec.md §4.2 "apply(record) → PerRecordAccumulator"). A RecordTransform
// error isolates this one record; the caller drops it and continues.
func (r *Resource) Apply(_ context.Context, record map[string]interface{}) (*actorctx.PerRecordAccumulator, error) {
	doc := r.castRecord(record)

	ctx := actorctx.New()
	if err := r.root.Execute(ctx, doc, location.Root()); err != nil {
		return nil, err
	}

	acc := ctx.NormalizeCtx()
	r.projectVertices(acc)
	return acc, nil
}

// vertexReplacement pairs an original vertex doc's identity with the fresh,
// field-narrowed map that replaces it.
type vertexReplacement struct {
	id  uintptr
	new map[string]interface{}
}

// mapIdentity returns a stable identity for a map value for the lifetime of
// that map, used to re-point edge records at a freshly projected doc without
// requiring map values to be comparable.
func mapIdentity(m map[string]interface{}) uintptr {
	return reflect.ValueOf(m).Pointer()
}

// projectVertices narrows every accumulated vertex dict down to its vertex
// type's declared fields. This happens once, after the full record has
// traversed the actor tree, so that a Transform step anywhere in a vertex's
// scope — even one authored after the Vertex step in pipeline order — has
// already taken effect (spec.md Scenario 1).
//
// Projection builds a fresh map per (vertex type, doc) pair rather than
// deleting keys in place: two different vertex types emitted from the same
// sub-document share one underlying doc map (actor/vertex.go stores the
// scope's doc directly, uncopied), so narrowing in place for one type would
// delete fields the other type still needs from the very same map. Each
// type gets its own copy, and every edge record referencing the original
// doc (actor/edge.go never copies a VertexRep's doc either) is re-pointed
// at the copy belonging to its own Source/Target vertex type.
func (r *Resource) projectVertices(acc *actorctx.PerRecordAccumulator) {
	replacements := make(map[string][]vertexReplacement, len(acc.Vertices))

	for vtype, docs := range acc.Vertices {
		v, err := r.vertexConfig.VertexByName(vtype)
		if err != nil {
			continue
		}
		declared := v.FieldNamesSet()
		for i, d := range docs {
			projected := make(map[string]interface{}, len(declared))
			for k, val := range d {
				if declared[k] {
					projected[k] = val
				}
			}
			replacements[vtype] = append(replacements[vtype], vertexReplacement{id: mapIdentity(d), new: projected})
			docs[i] = projected
		}
	}

	for key, recs := range acc.Edges {
		sourceReps := replacements[key.Source]
		targetReps := replacements[key.Target]
		for i := range recs {
			if newDoc, ok := findReplacement(sourceReps, recs[i].Source); ok {
				recs[i].Source = newDoc
			}
			if newDoc, ok := findReplacement(targetReps, recs[i].Target); ok {
				recs[i].Target = newDoc
			}
		}
	}
}

// findReplacement looks up d's projected replacement among reps by map
// identity.
func findReplacement(reps []vertexReplacement, d map[string]interface{}) (map[string]interface{}, bool) {
	id := mapIdentity(d)
	for _, rep := range reps {
		if rep.id == id {
			return rep.new, true
		}
	}
	return nil, false
}

func (r *Resource) castRecord(record map[string]interface{}) map[string]interface{} {
	if len(r.casters) == 0 {
		return record
	}
	out := make(map[string]interface{}, len(record))
	for k, v := range record {
		fn, ok := r.casters[k]
		if !ok {
			out[k] = v
			continue
		}
		if fn == nil {
			continue
		}
		cast, err := fn(v)
		if err != nil {
			r.logger().Warn("record field failed to cast; dropping field", "field", k, "error", err)
			continue
		}
		out[k] = cast
	}
	return out
}
