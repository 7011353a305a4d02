package actor

import (
	"fmt"

	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/internal/errs"
	"github.com/growgraph/graflo/location"
	"github.com/growgraph/graflo/model"
)

// VertexActor emits a vertex of a named type at the current location,
// carrying the current sub-document (spec.md §4.1 "Vertex"). The emitted
// VertexRep holds a live reference to the scope's doc, not a snapshot: a
// later Transform step in the same scope can still rewrite fields a
// preceding Vertex step already "emitted" (spec.md Scenario 1's cross
// map). Projection down to the vertex type's declared fields happens once,
// after the whole record finishes traversal (see Resource.Apply).
type VertexActor struct {
	VertexType string

	vertex *model.Vertex
}

func (a *VertexActor) count() int { return 1 }

func (a *VertexActor) finishInit(vc *model.VertexConfig, ec *model.EdgeConfig, transforms map[string]*model.Transform, edgeGreedy bool) error {
	v, err := vc.VertexByName(a.VertexType)
	if err != nil {
		return errs.Validation("vertex actor", fmt.Errorf("%s: %w", a.VertexType, err))
	}
	a.vertex = v
	return nil
}

// Execute records a VertexRep pointing at the live scope doc and marks this
// vertex type as an explicit routing target (ActionContext.SetTarget).
// Non-greedy Edge firing looks at the recorded reps, not at that mark.
func (a *VertexActor) Execute(ctx *actorctx.ActionContext, doc map[string]interface{}, loc location.Index) error {
	ctx.AddVertex(a.VertexType, loc, actorctx.VertexRep{Vertex: doc, Ctx: doc, Loc: loc})
	ctx.SetTarget(a.VertexType)
	return nil
}
