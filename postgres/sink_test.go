package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growgraph/graflo/model"
)

func TestQuoteIdentEscapesDoubleQuotes(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"weird""name"`, quoteIdent(`weird"name`))
}

func TestIdentityColumnsPrefersDeclaredIndex(t *testing.T) {
	vc := &model.VertexConfig{
		Vertices: []model.Vertex{
			{Name: "person", Fields: []model.Field{{Name: "id"}, {Name: "name"}}, Indexes: []model.Index{{Fields: []string{"id"}}}},
			{Name: "mention", Fields: []model.Field{{Name: "text"}}},
		},
		BlankVertices: []string{"mention"},
	}
	require.NoError(t, vc.FinishInit())

	assert.Equal(t, []string{"id"}, identityColumns(vc, "person"))
	assert.Equal(t, []string{"text"}, identityColumns(vc, "mention"), "Expected a blank vertex's first declared field to stand in for its identity column")
}

func TestIdentityColumnsFallsBackWhenVertexHasNoFields(t *testing.T) {
	vc := &model.VertexConfig{
		Vertices:      []model.Vertex{{Name: "mark"}},
		BlankVertices: []string{"mark"},
	}
	require.NoError(t, vc.FinishInit())

	assert.Equal(t, []string{"_key"}, identityColumns(vc, "mark"))
}

func TestEdgeTableNameIncludesPurposeWhenSet(t *testing.T) {
	vc := &model.VertexConfig{
		Vertices: []model.Vertex{
			{Name: "person", Fields: []model.Field{{Name: "id"}}},
			{Name: "company", Fields: []model.Field{{Name: "id"}}},
		},
	}
	require.NoError(t, vc.FinishInit())

	ec := &model.EdgeConfig{Edges: []model.Edge{
		{Source: "person", Target: "company"},
		{Source: "person", Target: "company", Purpose: "historical"},
	}}
	require.NoError(t, ec.FinishInit(vc))

	assert.Equal(t, "person_company", edgeTableName(&ec.Edges[0]))
	assert.Equal(t, "person_company_historical", edgeTableName(&ec.Edges[1]))
}

func TestCompositeKeyJoinsInOrder(t *testing.T) {
	doc := map[string]interface{}{"id": "p1", "region": "eu"}
	assert.Equal(t, "p1\x1feu", compositeKey(doc, []string{"id", "region"}))
}

func TestEmbeddingVectorConvertsFloatSlices(t *testing.T) {
	v32, ok := embeddingVector([]float32{1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, v32.Slice())

	v64, ok := embeddingVector([]float64{1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, v64.Slice())

	_, ok = embeddingVector("not a vector")
	assert.False(t, ok, "Expected a non-slice value to be rejected")
}
