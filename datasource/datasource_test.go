package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceSourceBatchesRecords(t *testing.T) {
	records := []Record{
		{"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}, {"id": 5},
	}
	src := NewSliceSource("people", records)
	assert.Equal(t, "people", src.ResourceName())

	next, closeFn := src.IterBatches(context.Background(), 2, 0)
	defer closeFn()

	var got []Record
	for {
		batch, err := next()
		require.NoError(t, err)
		if batch == nil {
			break
		}
		got = append(got, batch...)
	}
	assert.Equal(t, records, got, "Expected all records to be drawn across batches")
}

func TestSliceSourceRespectsLimit(t *testing.T) {
	records := []Record{{"id": 1}, {"id": 2}, {"id": 3}}
	src := NewSliceSource("people", records)

	next, closeFn := src.IterBatches(context.Background(), 10, 2)
	defer closeFn()

	batch, err := next()
	require.NoError(t, err)
	assert.Len(t, batch, 2, "Expected limit to cap the total records drawn")

	batch, err = next()
	require.NoError(t, err)
	assert.Nil(t, batch, "Expected iterator to be exhausted after the limit is reached")
}

func TestJSONLFileSourceReadsRecordsInBatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")
	content := "{\"id\":1}\n{\"id\":2}\n\n{\"id\":3}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	src := NewJSONLFileSource("people", path)
	next, closeFn := src.IterBatches(context.Background(), 2, 0)
	defer closeFn()

	batch, err := next()
	require.NoError(t, err)
	require.Len(t, batch, 2, "Expected first batch to contain two records")
	assert.EqualValues(t, 1, batch[0]["id"])
	assert.EqualValues(t, 2, batch[1]["id"])

	batch, err = next()
	require.NoError(t, err)
	require.Len(t, batch, 1, "Expected blank lines to be skipped, leaving one record in the final batch")
	assert.EqualValues(t, 3, batch[0]["id"])

	batch, err = next()
	require.NoError(t, err)
	assert.Nil(t, batch, "Expected iterator to report exhaustion")
}

func TestJSONLFileSourceMissingFileErrorsOnFirstNext(t *testing.T) {
	src := NewJSONLFileSource("people", "/nonexistent/path.jsonl")
	next, closeFn := src.IterBatches(context.Background(), 10, 0)
	defer closeFn()

	_, err := next()
	assert.Error(t, err, "Expected an error when the backing file does not exist")
}

func TestMultiJSONLFileSourceReadsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	path1 := filepath.Join(dir, "a.jsonl")
	path2 := filepath.Join(dir, "b.jsonl")
	require.NoError(t, os.WriteFile(path1, []byte("{\"id\":1}\n{\"id\":2}\n"), 0o644))
	require.NoError(t, os.WriteFile(path2, []byte("{\"id\":3}\n"), 0o644))

	src := NewMultiJSONLFileSource("people", []string{path1, path2})
	assert.Equal(t, "people", src.ResourceName())

	next, closeFn := src.IterBatches(context.Background(), 2, 0)
	defer closeFn()

	var ids []int
	for {
		batch, err := next()
		require.NoError(t, err)
		if batch == nil {
			break
		}
		for _, rec := range batch {
			ids = append(ids, int(rec["id"].(float64)))
		}
	}
	assert.Equal(t, []int{1, 2, 3}, ids, "Expected records to be drawn from both files in order")
}

func TestMultiJSONLFileSourceRespectsLimitAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	path1 := filepath.Join(dir, "a.jsonl")
	path2 := filepath.Join(dir, "b.jsonl")
	require.NoError(t, os.WriteFile(path1, []byte("{\"id\":1}\n{\"id\":2}\n"), 0o644))
	require.NoError(t, os.WriteFile(path2, []byte("{\"id\":3}\n"), 0o644))

	src := NewMultiJSONLFileSource("people", []string{path1, path2})
	next, closeFn := src.IterBatches(context.Background(), 10, 2)
	defer closeFn()

	batch, err := next()
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	batch, err = next()
	require.NoError(t, err)
	assert.Nil(t, batch, "Expected the limit to stop iteration before the second file is exhausted")
}

func TestTableSourceQualifiedTableIncludesSchemaWhenSet(t *testing.T) {
	bare := &TableSource{Table: "orders"}
	assert.Equal(t, "orders", bare.qualifiedTable())

	schemaed := &TableSource{Table: "orders", Schema: "public"}
	assert.Equal(t, "public.orders", schemaed.qualifiedTable())
}

func TestTableSourceBuildQueryPlain(t *testing.T) {
	src := &TableSource{Table: "orders"}
	query, args := src.buildQuery()
	assert.Equal(t, "SELECT * FROM orders", query)
	assert.Empty(t, args)
}

func TestTableSourceBuildQueryCombinesWhereAndDatetimeFilter(t *testing.T) {
	src := &TableSource{Table: "orders", Where: "status = 'open'"}
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	src.SetDatetimeFilter("created_at", after, before)

	query, args := src.buildQuery()
	assert.Equal(t, "SELECT * FROM orders WHERE status = 'open' AND created_at >= $1 AND created_at < $2", query)
	require.Equal(t, []interface{}{after, before}, args)
}

func TestTableSourceBuildQueryHalfOpenDatetimeFilter(t *testing.T) {
	src := &TableSource{Table: "orders"}
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src.SetDatetimeFilter("created_at", after, time.Time{})

	query, args := src.buildQuery()
	assert.Equal(t, "SELECT * FROM orders WHERE created_at >= $1", query)
	require.Equal(t, []interface{}{after}, args)
}
