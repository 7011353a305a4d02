package actor

import (
	"context"
	"testing"

	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildResource(t *testing.T, pipeline []interface{}, vc *model.VertexConfig, ec *model.EdgeConfig, greedy bool) *Resource {
	t.Helper()
	require.NoError(t, vc.FinishInit())
	if ec == nil {
		ec = &model.EdgeConfig{}
	}
	require.NoError(t, ec.FinishInit(vc))

	r := &Resource{Pipeline: pipeline, EdgeGreedy: greedy}
	require.NoError(t, r.FinishInit(vc, ec, map[string]*model.Transform{}))
	return r
}

// Scenario 1 (spec.md §8): a pure cross-map must see renames that happen
// after the Vertex step that "emitted" the affected field.
func TestScenarioSimpleCrossMap(t *testing.T) {
	vc := &model.VertexConfig{
		Vertices: []model.Vertex{
			{Name: "person", Fields: []model.Field{{Name: "id"}}},
			{Name: "company", Fields: []model.Field{{Name: "name"}}},
		},
	}
	pipeline := []interface{}{
		map[string]interface{}{"vertex": "person"},
		map[string]interface{}{"vertex": "company"},
		map[string]interface{}{"map": map[string]interface{}{"name": "id", "id": "name"}},
	}
	r := buildResource(t, pipeline, vc, nil, false)

	acc, err := r.Apply(context.Background(), map[string]interface{}{"name": "John", "id": "Apple"})
	require.NoError(t, err)

	require.Len(t, acc.Vertices["person"], 1)
	assert.Equal(t, "John", acc.Vertices["person"][0]["id"])
	require.Len(t, acc.Vertices["company"], 1)
	assert.Equal(t, "Apple", acc.Vertices["company"][0]["name"])
}

// Scenario 2 (spec.md §8): an ancestor-scoped edge joins one outer vertex
// to every descendant vertex emitted under it.
func TestScenarioAncestorEdge(t *testing.T) {
	vc := &model.VertexConfig{
		Vertices: []model.Vertex{
			{Name: "work", Fields: []model.Field{{Name: "id"}}},
		},
	}
	ec := &model.EdgeConfig{
		Edges: []model.Edge{{Source: "work", Target: "work"}},
	}
	pipeline := []interface{}{
		map[string]interface{}{"vertex": "work"},
		map[string]interface{}{
			"descend": map[string]interface{}{
				"into": "referenced_works",
				"pipeline": []interface{}{
					map[string]interface{}{"vertex": "work"},
				},
			},
		},
		map[string]interface{}{"edge": map[string]interface{}{"source": "work", "target": "work"}},
	}
	r := buildResource(t, pipeline, vc, ec, false)

	refs := make([]interface{}, 5)
	for i := range refs {
		refs[i] = map[string]interface{}{"id": i}
	}
	acc, err := r.Apply(context.Background(), map[string]interface{}{
		"id":               1000,
		"referenced_works": refs,
	})
	require.NoError(t, err)

	require.Len(t, acc.Vertices["work"], 6, "one outer work plus five inner works")
	key := actorctx.EdgeKey{Source: "work", Target: "work"}
	assert.Len(t, acc.Edges[key], 5, "the outer work joins to every inner work")
}

// Scenario 3 (spec.md §8): relation-from-key labels each emitted edge by
// the dict key under which its pairing was found, so edge counts per
// relation must match the source lists' sizes.
func TestScenarioRelationFromKey(t *testing.T) {
	vc := &model.VertexConfig{
		Vertices: []model.Vertex{
			{Name: "pkg", Fields: []model.Field{{Name: "name"}}},
		},
	}
	ec := &model.EdgeConfig{
		Edges: []model.Edge{{Source: "pkg", Target: "pkg", RelationFromKey: true}},
	}
	pipeline := []interface{}{
		map[string]interface{}{"vertex": "pkg"},
		map[string]interface{}{
			"descend": map[string]interface{}{
				"into": "dependencies",
				"pipeline": []interface{}{
					map[string]interface{}{
						"descend": map[string]interface{}{
							"any_key": true,
							"pipeline": []interface{}{
								map[string]interface{}{"vertex": "pkg"},
							},
						},
					},
				},
			},
		},
		// Fired once at the root, after every dependency list has been
		// walked, so the source resolves to the outer package rather than
		// whichever leaf was just emitted.
		map[string]interface{}{"edge": map[string]interface{}{"source": "pkg", "target": "pkg"}},
	}
	r := buildResource(t, pipeline, vc, ec, false)

	mk := func(n int) []interface{} {
		out := make([]interface{}, n)
		for i := range out {
			out[i] = map[string]interface{}{"name": i}
		}
		return out
	}
	acc, err := r.Apply(context.Background(), map[string]interface{}{
		"name": "root",
		"dependencies": map[string]interface{}{
			"depends":     mk(29),
			"pre_depends": mk(3),
			"suggests":    mk(2),
			"breaks":      mk(1),
		},
	})
	require.NoError(t, err)

	key := actorctx.EdgeKey{Source: "pkg", Target: "pkg"}
	counts := map[string]int{}
	for _, rec := range acc.Edges[key] {
		relation, _ := rec.Weight[RelationWeightKey].(string)
		counts[relation]++
	}

	assert.Equal(t, 29, counts["depends"])
	assert.Equal(t, 3, counts["pre_depends"])
	assert.Equal(t, 2, counts["suggests"])
	assert.Equal(t, 1, counts["breaks"])
}
