package caster

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growgraph/graflo/actor"
	"github.com/growgraph/graflo/datasource"
	"github.com/growgraph/graflo/model"
	"github.com/growgraph/graflo/schema"
	"github.com/growgraph/graflo/writer"
)

// fakeFilterableSource records the bounds a datetime filter was set with,
// wrapping a SliceSource so it still satisfies datasource.Source.
type fakeFilterableSource struct {
	*datasource.SliceSource
	column string
	after  time.Time
	before time.Time
}

func (f *fakeFilterableSource) SetDatetimeFilter(column string, after, before time.Time) {
	f.column = column
	f.after = after
	f.before = before
}

// fakeSink mirrors writer's fakeSink, kept separate to avoid exporting
// test-only plumbing across package boundaries.
type fakeSink struct {
	mu           sync.Mutex
	upserts      map[string][]map[string]interface{}
	initCalls    int
	clearCalls   int
	clearedNames []string
}

func newFakeSink() *fakeSink {
	return &fakeSink{upserts: make(map[string][]map[string]interface{})}
}

func (f *fakeSink) UpsertDocsBatch(_ context.Context, docs []map[string]interface{}, class string, _ []string, dry bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dry {
		return nil
	}
	f.upserts[class] = append(f.upserts[class], docs...)
	return nil
}

func (f *fakeSink) InsertEdgesBatch(context.Context, []writer.EdgeInsert, string, string, string, []string, []string, string, bool) error {
	return nil
}

func (f *fakeSink) FetchPresentDocuments(context.Context, string, []map[string]interface{}, []string, []string) ([]map[string]interface{}, error) {
	return nil, nil
}

func (f *fakeSink) ClearData(_ context.Context, schemaName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	f.clearedNames = append(f.clearedNames, schemaName)
	return nil
}

func (f *fakeSink) InitDB(_ context.Context, _ string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return nil
}

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := &schema.Schema{
		General: schema.General{Name: "test-schema"},
		VertexConfig: model.VertexConfig{
			Vertices: []model.Vertex{
				{Name: "person", Fields: []model.Field{{Name: "id"}, {Name: "name"}}, Indexes: []model.Index{{Fields: []string{"id"}}}},
			},
		},
		Resources: []*actor.Resource{
			{
				Name: "people",
				Pipeline: []interface{}{
					map[string]interface{}{"vertex": "person"},
				},
			},
		},
	}
	require.NoError(t, s.FinishInit())
	return s
}

func TestCasterRunSequentialSinglesSource(t *testing.T) {
	s := testSchema(t)
	sink := newFakeSink()
	src := datasource.NewSliceSource("people", []datasource.Record{
		{"id": "p1", "name": "Ada"},
		{"id": "p2", "name": "Grace"},
	})

	c := &Caster{
		Schema:  s,
		Sources: []datasource.Source{src},
		Sink:    sink,
		Params:  IngestionParams{BatchSize: 1, NCores: 1},
	}

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 1, sink.initCalls, "Expected InitDB to be called once")
	assert.Len(t, sink.upserts["person"], 2, "Expected both records to be upserted across two batches")
}

func TestCasterRunClearsDataWhenRequested(t *testing.T) {
	s := testSchema(t)
	sink := newFakeSink()
	src := datasource.NewSliceSource("people", []datasource.Record{{"id": "p1", "name": "Ada"}})

	c := &Caster{
		Schema:  s,
		Sources: []datasource.Source{src},
		Sink:    sink,
		Params:  IngestionParams{ClearData: true, BatchSize: 10},
	}

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 1, sink.clearCalls, "Expected ClearData to be invoked once when ClearData is set")
	assert.Equal(t, []string{"test-schema"}, sink.clearedNames)
}

func TestCasterInitOnlySkipsIngestion(t *testing.T) {
	s := testSchema(t)
	sink := newFakeSink()
	src := datasource.NewSliceSource("people", []datasource.Record{{"id": "p1", "name": "Ada"}})

	c := &Caster{
		Schema:  s,
		Sources: []datasource.Source{src},
		Sink:    sink,
		Params:  IngestionParams{InitOnly: true, BatchSize: 10},
	}

	require.NoError(t, c.Run(context.Background()))
	assert.Empty(t, sink.upserts["person"], "Expected init_only to skip ingestion entirely")
}

func TestCasterRunMultiSourceProcessesEverySource(t *testing.T) {
	s := testSchema(t)
	sink := newFakeSink()
	srcA := datasource.NewSliceSource("people", []datasource.Record{{"id": "p1", "name": "Ada"}})
	srcB := datasource.NewSliceSource("people", []datasource.Record{{"id": "p2", "name": "Grace"}})

	c := &Caster{
		Schema:  s,
		Sources: []datasource.Source{srcA, srcB},
		Sink:    sink,
		Params:  IngestionParams{BatchSize: 10, NCores: 2},
	}

	require.NoError(t, c.Run(context.Background()))
	assert.Len(t, sink.upserts["person"], 2, "Expected both sources' records to be upserted")
}

func TestCasterRunSkipsUnknownResourceSource(t *testing.T) {
	s := testSchema(t)
	sink := newFakeSink()
	src := datasource.NewSliceSource("unknown-resource", []datasource.Record{{"id": "p1"}})

	c := &Caster{
		Schema:  s,
		Sources: []datasource.Source{src},
		Sink:    sink,
		Params:  IngestionParams{BatchSize: 10},
	}

	require.NoError(t, c.Run(context.Background()))
	assert.Empty(t, sink.upserts["person"], "Expected a source naming an unknown resource to be skipped, not to error the run")
}

func TestCasterRunAppliesDatetimeFilterToFilterableSources(t *testing.T) {
	s := testSchema(t)
	sink := newFakeSink()
	src := &fakeFilterableSource{SliceSource: datasource.NewSliceSource("people", []datasource.Record{{"id": "p1", "name": "Ada"}})}

	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	c := &Caster{
		Schema:  s,
		Sources: []datasource.Source{src},
		Sink:    sink,
		Params: IngestionParams{
			BatchSize:      10,
			DatetimeColumn: "created_at",
			DatetimeAfter:  after,
			DatetimeBefore: before,
		},
	}

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, "created_at", src.column, "Expected the filterable source to receive the configured datetime column")
	assert.True(t, after.Equal(src.after), "Expected the filterable source to receive the configured lower bound")
	assert.True(t, before.Equal(src.before), "Expected the filterable source to receive the configured upper bound")
}

func TestCasterRunLeavesDatetimeFilterUnsetWhenColumnEmpty(t *testing.T) {
	s := testSchema(t)
	sink := newFakeSink()
	src := &fakeFilterableSource{SliceSource: datasource.NewSliceSource("people", []datasource.Record{{"id": "p1", "name": "Ada"}})}

	c := &Caster{
		Schema:  s,
		Sources: []datasource.Source{src},
		Sink:    sink,
		Params:  IngestionParams{BatchSize: 10},
	}

	require.NoError(t, c.Run(context.Background()))
	assert.Empty(t, src.column, "Expected no datetime filter to be pushed when DatetimeColumn is unset")
}
