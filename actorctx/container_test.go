package actorctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDocsListPreservesLinearOrder(t *testing.T) {
	a := &PerRecordAccumulator{
		Vertices: map[string][]map[string]interface{}{"person": {{"id": "John"}}},
		Edges:    map[EdgeKey][]EdgeRecord{},
	}
	b := &PerRecordAccumulator{
		Vertices: map[string][]map[string]interface{}{"person": {{"id": "Mary"}}},
		Edges:    map[EdgeKey][]EdgeRecord{},
	}

	c := FromDocsList([]*PerRecordAccumulator{a, b})

	require.Len(t, c.Linear, 2)
	assert.Same(t, a, c.Linear[0])
	assert.Same(t, b, c.Linear[1])
	assert.Len(t, c.Vertices["person"], 2)
}

func TestPickUniqueRemovesDuplicateVertices(t *testing.T) {
	c := NewGraphContainer()
	c.Vertices["person"] = []map[string]interface{}{
		{"id": "John"},
		{"id": "John"},
		{"id": "Mary"},
	}

	c.PickUnique()

	assert.Len(t, c.Vertices["person"], 2)
}

func TestPickUniqueRemovesDuplicateEdges(t *testing.T) {
	c := NewGraphContainer()
	key := EdgeKey{Source: "work", Target: "work"}
	rec := EdgeRecord{
		Source: map[string]interface{}{"id": "a"},
		Target: map[string]interface{}{"id": "b"},
	}
	c.Edges[key] = []EdgeRecord{rec, rec}

	c.PickUnique()

	assert.Len(t, c.Edges[key], 1)
}

func TestLoopOverRelationsIgnoresPurpose(t *testing.T) {
	c := NewGraphContainer()
	c.Edges[EdgeKey{Source: "a", Target: "b", Purpose: "p1"}] = nil
	c.Edges[EdgeKey{Source: "a", Target: "b", Purpose: "p2"}] = nil
	c.Edges[EdgeKey{Source: "a", Target: "c"}] = nil

	keys := c.LoopOverRelations("a", "b")
	assert.Len(t, keys, 2)
}

func TestEmptyContainerPickUniqueNoop(t *testing.T) {
	c := NewGraphContainer()
	assert.NotPanics(t, c.PickUnique)
	assert.Empty(t, c.Vertices)
	assert.Empty(t, c.Edges)
}
