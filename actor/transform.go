package actor

import (
	"fmt"

	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/internal/errs"
	"github.com/growgraph/graflo/location"
	"github.com/growgraph/graflo/model"
)

// TransformActor applies one or more transforms — named references into the
// schema's transform library, or an inline definition — rewriting fields on
// the current sub-document (spec.md §4.1 "Transform"). The rewritten fields
// are always merged into the ambient doc; when TargetVertex is set, the
// actor additionally marks that vertex type as a target in the context
// (ActionContext.SetTarget). The merge is not confined to that vertex
// type's reps.
type TransformActor struct {
	Refs         []string
	Inline       *model.Transform
	TargetVertex string

	resolved []*model.Transform
}

func (a *TransformActor) count() int { return 1 }

func inlineTransformFromRaw(norm raw) *model.Transform {
	t := &model.Transform{
		Name:   stringField(norm, "name"),
		Func:   stringField(norm, "foo"),
		Map:    stringMapField(norm, "map"),
		Input:  stringSliceField(norm, "input"),
		Output: stringSliceField(norm, "output"),
	}
	if params, ok := norm["params"].(map[string]interface{}); ok {
		t.Params = params
	}
	if d, ok := norm["dress"]; ok {
		dm := asMap(d)
		t.Dress = &model.DressConfig{
			Key:   stringField(dm, "key"),
			Value: stringField(dm, "value"),
		}
	}
	return t
}

func (a *TransformActor) finishInit(vc *model.VertexConfig, ec *model.EdgeConfig, transforms map[string]*model.Transform, edgeGreedy bool) error {
	if a.Inline != nil {
		if err := a.Inline.FinishInit(); err != nil {
			return errs.TransformLoad("transform actor", err)
		}
		a.resolved = append(a.resolved, a.Inline)
	}
	for _, name := range a.Refs {
		t, ok := transforms[name]
		if !ok {
			return errs.Validation("transform actor", fmt.Errorf("transform %q is not declared in the schema's transform library", name))
		}
		a.resolved = append(a.resolved, t)
	}
	model.SortTransforms(a.resolved)
	return nil
}

// Execute runs every resolved transform against doc in order, merging each
// one's output fields back into doc (or, for a dress transform with
// multiple input fields, into the record's buffered transform results —
// spec.md §9 "Dress") before the next transform runs.
func (a *TransformActor) Execute(ctx *actorctx.ActionContext, doc map[string]interface{}, loc location.Index) error {
	for _, t := range a.resolved {
		if t.Dress != nil && len(t.Input) > 1 {
			dressed, err := t.DressAll(doc)
			if err != nil {
				return errs.RecordTransform("transform actor", err)
			}
			for _, d := range dressed {
				for k, v := range d {
					doc[k] = v
				}
			}
			continue
		}

		out, err := t.Apply(doc)
		if err != nil {
			return errs.RecordTransform("transform actor", err)
		}
		for k, v := range out {
			doc[k] = v
		}
	}

	if a.TargetVertex != "" {
		ctx.SetTarget(a.TargetVertex)
	}
	return nil
}
