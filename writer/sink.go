// Package writer implements DBWriter, the phased push of a
// GraphContainer into a backend sink (spec.md §4.4). DBWriter owns no
// backend-specific logic itself — every storage call goes through the
// Sink contract (spec.md §6 "Backend-sink contract"), mirroring how the
// teacher's database/*.go handlers each own one vertex-analog type behind
// a narrow interface.
package writer

import "context"

// EdgeInsert is one edge ready for a sink's batched insert: its endpoint
// documents (so the sink can read identity fields off them) and its
// assembled weight dict.
type EdgeInsert struct {
	Source map[string]interface{}
	Target map[string]interface{}
	Weight map[string]interface{}
}

// Sink is the backend-sink contract DBWriter drives (spec.md §6). Every
// method is assumed idempotent on its match-keys; a sink's own native
// error surfaces unchanged to the writer's caller (errs.SinkWrite), never
// retried by the core.
type Sink interface {
	// UpsertDocsBatch upserts docs of the named class, matching existing
	// rows on matchKeys. When dry is true, the call must be a no-op that
	// still succeeds (spec.md §4.4 "Dry-run mode").
	UpsertDocsBatch(ctx context.Context, docs []map[string]interface{}, class string, matchKeys []string, dry bool) error

	// InsertEdgesBatch inserts edges between sourceClass and targetClass
	// under relation, matching endpoints on matchKeysSource/matchKeysTarget.
	// collectionName names the edge-id's storage collection (backend-
	// specific; a graph database's edge collection, a relational table, or
	// similar).
	InsertEdgesBatch(ctx context.Context, edges []EdgeInsert, sourceClass, targetClass, relation string, matchKeysSource, matchKeysTarget []string, collectionName string, dry bool) error

	// FetchPresentDocuments reads back the currently persisted documents of
	// class matching batch's entries on matchKeys, projected to keepKeys —
	// the one read-during-ingest call, used by extra-weight enrichment
	// (spec.md §4.4 phase 3).
	FetchPresentDocuments(ctx context.Context, class string, batch []map[string]interface{}, matchKeys []string, keepKeys []string) ([]map[string]interface{}, error)

	// ClearData removes every document/edge belonging to schemaName without
	// touching the schema's structure.
	ClearData(ctx context.Context, schemaName string) error

	// InitDB prepares the backend for schemaName, recreating its structure
	// when recreateSchema is true. Returns errs.SchemaExists when the
	// schema already exists and recreateSchema is false.
	InitDB(ctx context.Context, schemaName string, recreateSchema bool) error
}
