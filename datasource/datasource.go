// Package datasource defines the data-source contract the caster drives
// (spec.md §6 "Data-source contract") plus a couple of simple concrete
// readers. The core knows nothing about what sits behind a Source — it
// only ever calls IterBatches, grounded on the teacher's
// example/kjv/main.go entrypoint, which reads one document at a time and
// hands each to the facade in a plain for-range loop; graflo generalizes
// that single-document loop into a batch-sized lazy iterator.
package datasource

import (
	"context"
	"time"
)

// Record is one raw record as read off a source, before it reaches a
// Resource's actor tree.
type Record = map[string]interface{}

// Batch is one batch_size-worth of records drawn from a Source.
type Batch []Record

// Source exposes a lazy, batch-sized iterator over a backing store plus a
// resource-name hint telling the caster which Resource's actor tree to
// run each batch through (spec.md §6).
type Source interface {
	// ResourceName names the Resource this source's records should be run
	// through.
	ResourceName() string

	// IterBatches returns a function that yields successive batches of at
	// most batchSize records, honoring limit as a hard cap on the total
	// number of records drawn (0 means unlimited). The returned function
	// returns a nil batch once the source is exhausted. Implementations
	// must be safe to call Next on sequentially from a single goroutine;
	// the caster never calls Next concurrently on the same iterator.
	IterBatches(ctx context.Context, batchSize, limit int) (next func() (Batch, error), closeFn func() error)
}

// DatetimeFilterable is implemented by sources that can restrict their rows
// to a half-open datetime interval on a named column (spec.md §4.5). Not
// every source exposes a datetime column to filter on, so this is an
// optional capability the caster probes for rather than part of Source.
type DatetimeFilterable interface {
	SetDatetimeFilter(column string, after, before time.Time)
}
