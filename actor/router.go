package actor

import (
	"fmt"
	"strings"

	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/internal/errs"
	"github.com/growgraph/graflo/location"
	"github.com/growgraph/graflo/model"
)

// VertexRouterActor dynamically chooses which vertex type to emit based on
// a runtime type-discriminator field, optionally stripping a prefix and
// applying a rename map (spec.md §4.1 "VertexRouter"). Unlike VertexActor,
// the target type is data-dependent, so a bad runtime value is a
// per-record failure, not a finish_init-time SchemaRefError.
type VertexRouterActor struct {
	TypeField string
	Prefix    string
	FieldMap  map[string]string

	vc *model.VertexConfig
}

func (a *VertexRouterActor) count() int { return 1 }

func (a *VertexRouterActor) finishInit(vc *model.VertexConfig, ec *model.EdgeConfig, transforms map[string]*model.Transform, edgeGreedy bool) error {
	a.vc = vc
	return nil
}

func (a *VertexRouterActor) resolveType(doc map[string]interface{}) (string, bool) {
	raw, ok := doc[a.TypeField].(string)
	if !ok || raw == "" {
		return "", false
	}
	name := raw
	if a.Prefix != "" {
		name = strings.TrimPrefix(name, a.Prefix)
	}
	if mapped, ok := a.FieldMap[name]; ok {
		name = mapped
	}
	return name, true
}

func (a *VertexRouterActor) Execute(ctx *actorctx.ActionContext, doc map[string]interface{}, loc location.Index) error {
	vertexType, ok := a.resolveType(doc)
	if !ok {
		return errs.RecordTransform("vertex router", fmt.Errorf("discriminator field %q missing or non-string", a.TypeField))
	}
	if _, err := a.vc.VertexByName(vertexType); err != nil {
		return errs.RecordTransform("vertex router", err)
	}

	ctx.AddVertex(vertexType, loc, actorctx.VertexRep{Vertex: doc, Ctx: doc, Loc: loc})
	ctx.SetTarget(vertexType)
	return nil
}
