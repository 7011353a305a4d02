// Package caster implements the top-level orchestrator (spec.md §4.5):
// it iterates data sources, runs each record through its resource's actor
// tree, accumulates batches into a GraphContainer, and hands each to a
// DBWriter. Grounded on grapher.go's Grapher facade — NewGrapher wires a
// fixed set of handlers in dependency order and logs with log/slog at each
// step; ProcessAndInsertDocument processes one unit of input end to end
// and logs progress — generalized here from "one document, fixed
// handlers" to "many sources, many resources, batched".
package caster

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/growgraph/graflo/actor"
	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/datasource"
	"github.com/growgraph/graflo/schema"
	"github.com/growgraph/graflo/writer"
)

// IngestionParams carries the caster's run-time knobs (spec.md §4.5).
type IngestionParams struct {
	// ClearData invokes the sink's data-clear on the active schema before
	// the first write. The schema structure itself is untouched.
	ClearData bool

	// RecreateSchema drops and recreates the target schema's structure
	// during Run's InitDB call. When false, InitDB creates the structure and
	// fails with errs.SchemaExists if it already exists.
	RecreateSchema bool

	// NCores is the number of record-processing workers. A value greater
	// than 1 enables the work-stealing queue across data sources.
	NCores int

	// MaxItems hard-caps the number of records drawn from each source (0
	// means unlimited).
	MaxItems int

	// BatchSize is the number of records accumulated into one
	// GraphContainer before it is handed to the writer.
	BatchSize int

	// Dry skips sink writes while still performing all transformation
	// work (spec.md §4.4 "Dry-run mode").
	Dry bool

	// InitOnly stops the run after schema/init, never ingesting.
	InitOnly bool

	// MaxConcurrentDBOps sets the writer's semaphore width. Defaults to
	// NCores when zero.
	MaxConcurrentDBOps int

	// DatetimeAfter / DatetimeBefore / DatetimeColumn restrict a tabular
	// source's rows to the half-open interval [after, before) on the
	// named column. Sources that don't expose a datetime column ignore
	// these fields.
	DatetimeAfter  time.Time
	DatetimeBefore time.Time
	DatetimeColumn string
}

func (p IngestionParams) batchSize() int {
	if p.BatchSize <= 0 {
		return 1
	}
	return p.BatchSize
}

func (p IngestionParams) workers() int {
	if p.NCores <= 0 {
		return 1
	}
	return p.NCores
}

func (p IngestionParams) writerConcurrency() int {
	if p.MaxConcurrentDBOps > 0 {
		return p.MaxConcurrentDBOps
	}
	return p.workers()
}

// Caster is the orchestrator: a schema (providing resource lookup), the
// data sources to ingest from, a sink-backed writer, and run parameters.
type Caster struct {
	Schema  *schema.Schema
	Sources []datasource.Source
	Sink    writer.Sink
	Params  IngestionParams

	Log *slog.Logger
}

func (c *Caster) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

func (c *Caster) dbWriter() *writer.DBWriter {
	return &writer.DBWriter{
		Sink:          c.Sink,
		VertexConfig:  &c.Schema.VertexConfig,
		EdgeConfig:    &c.Schema.EdgeConfig,
		MaxConcurrent: c.Params.writerConcurrency(),
		Dry:           c.Params.Dry,
		Log:           c.logger(),
	}
}

// Run drives the full ingestion: optional schema init/clear, then either
// sequential or work-stealing multi-source processing depending on
// Params.NCores (spec.md §4.5 "Multi-source mode").
func (c *Caster) Run(ctx context.Context) error {
	c.applyDatetimeFilter()

	if err := c.Sink.InitDB(ctx, c.Schema.General.Name, c.Params.RecreateSchema); err != nil {
		return err
	}
	if c.Params.ClearData {
		if err := c.Sink.ClearData(ctx, c.Schema.General.Name); err != nil {
			return err
		}
	}
	if c.Params.InitOnly {
		c.logger().Info("init_only set; skipping ingestion", "schema", c.Schema.General.Name)
		return nil
	}

	if c.Params.workers() > 1 && len(c.Sources) > 1 {
		return c.runMultiSource(ctx)
	}
	for _, src := range c.Sources {
		if err := c.runSource(ctx, src); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// applyDatetimeFilter pushes Params.DatetimeColumn down to every source
// that supports it (spec.md §4.5 "restrict rows to a datetime interval").
// Sources that don't expose a datetime column, such as file- or
// Sparql-backed ones, are left untouched rather than erroring — the knob
// is inert for them by design.
func (c *Caster) applyDatetimeFilter() {
	if c.Params.DatetimeColumn == "" {
		return
	}
	for _, src := range c.Sources {
		if f, ok := src.(datasource.DatetimeFilterable); ok {
			f.SetDatetimeFilter(c.Params.DatetimeColumn, c.Params.DatetimeAfter, c.Params.DatetimeBefore)
		}
	}
}

// runSource drives one source to exhaustion: draw a batch, run every
// record through the bound resource's actor tree (worker-level
// parallelism controlled by NCores), assemble the GraphContainer, and
// await the writer before drawing the next batch (spec.md §4.5
// "Per-source processing").
func (c *Caster) runSource(ctx context.Context, src datasource.Source) error {
	resource, ok := c.Schema.ResourceByName(src.ResourceName())
	if !ok {
		c.logger().Warn("source references unknown resource; skipping", "resource", src.ResourceName())
		return nil
	}

	next, closeFn := src.IterBatches(ctx, c.Params.batchSize(), c.Params.MaxItems)
	defer closeFn()

	w := c.dbWriter()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := next()
		if err != nil {
			return err
		}
		if batch == nil {
			return nil
		}

		container, err := c.processBatch(ctx, resource, batch)
		if err != nil {
			return err
		}
		container.PickUnique()

		if err := w.Write(ctx, container); err != nil {
			return err
		}
		c.logger().Info("wrote batch", "resource", src.ResourceName(), "records", len(batch))
	}
}

// processBatch runs every record in batch through resource's actor tree,
// parallelised across Params.NCores workers, and folds the results into
// one GraphContainer. A single record's RecordTransform error is logged
// and the record dropped; it never aborts the batch (spec.md §4.2
// "Failure behaviour").
func (c *Caster) processBatch(ctx context.Context, resource *actor.Resource, batch datasource.Batch) (*actorctx.GraphContainer, error) {
	accs := make([]*actorctx.PerRecordAccumulator, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Params.workers())
	for i, record := range batch {
		i, record := i, record
		g.Go(func() error {
			acc, err := resource.Apply(gctx, record)
			if err != nil {
				c.logger().Warn("record failed to transform; dropping record", "index", i, "error", err)
				return nil
			}
			accs[i] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return actorctx.FromDocsList(accs), nil
}

// runMultiSource pushes every source onto a bounded queue and runs
// Params.NCores workers consuming sources until the queue drains,
// observing ctx cancellation cooperatively at batch boundaries (spec.md
// §4.5 "Multi-source mode", §5 "Cancellation").
func (c *Caster) runMultiSource(ctx context.Context) error {
	queue := make(chan datasource.Source, len(c.Sources))
	for _, src := range c.Sources {
		queue <- src
	}
	close(queue)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.Params.workers(); i++ {
		g.Go(func() error {
			for src := range queue {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := c.runSource(gctx, src); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
