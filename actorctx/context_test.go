package actorctx

import (
	"testing"

	"github.com/growgraph/graflo/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddVertexAndNormalizeDedup(t *testing.T) {
	c := New()
	loc := location.New(location.Idx(0))

	c.AddVertex("person", loc, VertexRep{Vertex: map[string]interface{}{"id": "John"}})
	c.AddVertex("person", loc, VertexRep{Vertex: map[string]interface{}{"id": "John"}})

	acc := c.NormalizeCtx()
	require.Len(t, acc.Vertices["person"], 1, "identical vertex dicts in the same bucket must be deduplicated")
	assert.Equal(t, "John", acc.Vertices["person"][0]["id"])
}

func TestMaxCongruenceRepsPicksDeepestMatches(t *testing.T) {
	c := New()
	root := location.New(location.Idx(0))
	nested := root.Extend(location.Key("referenced_works")).Extend(location.Idx(0))
	unrelated := location.New(location.Idx(1))

	c.AddVertex("work", root, VertexRep{Vertex: map[string]interface{}{"id": "outer"}})
	c.AddVertex("work", unrelated, VertexRep{Vertex: map[string]interface{}{"id": "far"}})

	reps, measure := c.MaxCongruenceReps("work", nested)
	require.Len(t, reps, 1)
	assert.Equal(t, "outer", reps[0].Vertex["id"])
	assert.Equal(t, 1, measure)
}

func TestMaxCongruenceRepsFullCrossProductOnTie(t *testing.T) {
	c := New()
	base := location.New(location.Idx(0))
	a := base.Extend(location.Idx(0))
	b := base.Extend(location.Idx(1))
	query := base.Extend(location.Idx(2))

	c.AddVertex("work", a, VertexRep{Vertex: map[string]interface{}{"id": "a"}})
	c.AddVertex("work", b, VertexRep{Vertex: map[string]interface{}{"id": "b"}})

	reps, measure := c.MaxCongruenceReps("work", query)
	assert.Equal(t, 1, measure)
	assert.Len(t, reps, 2, "equal-congruence reps resolve as a full cross product, not a narrowed pick")
}

func TestTargetVertices(t *testing.T) {
	c := New()
	assert.False(t, c.IsTarget("company"))
	c.SetTarget("company")
	assert.True(t, c.IsTarget("company"))
}

func TestHasVertexType(t *testing.T) {
	c := New()
	assert.False(t, c.HasVertexType("person"))
	c.AddVertex("person", location.Root(), VertexRep{Vertex: map[string]interface{}{}})
	assert.True(t, c.HasVertexType("person"))
}
