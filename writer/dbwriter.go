package writer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/growgraph/graflo/actor"
	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/internal/errs"
	"github.com/growgraph/graflo/model"
)

// blankIdentityField names the field a blank vertex's generated identifier
// is written into. IdentityFields returns nil for a blank vertex (even
// though finishInit gives it a default index), so there is no identity-field
// name to reuse;
// its first declared field doubles as the identity slot when one exists,
// matching how every other vertex's identity defaults to its declared
// fields. A vertex with no declared fields at all falls back to this
// backend-neutral default, mirroring the graph-database convention of a
// reserved key field.
const blankIdentityField = "_key"

// DBWriter pushes one GraphContainer to a Sink in the four strictly
// sequential phases of spec.md §4.4, bounded by a semaphore of width
// MaxConcurrent (default: 1, the caller typically sets it to the caster's
// worker count).
type DBWriter struct {
	Sink          Sink
	VertexConfig  *model.VertexConfig
	EdgeConfig    *model.EdgeConfig
	MaxConcurrent int
	Dry           bool

	Log *slog.Logger
}

func (w *DBWriter) logger() *slog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return slog.Default()
}

func (w *DBWriter) sem() int64 {
	if w.MaxConcurrent <= 0 {
		return 1
	}
	return int64(w.MaxConcurrent)
}

// Write drives all four phases against container in order, never starting
// phase N+1 before phase N has fully completed (spec.md §5 "no edge is
// inserted before all its endpoints are upserted").
func (w *DBWriter) Write(ctx context.Context, container *actorctx.GraphContainer) error {
	if err := w.upsertVertices(ctx, container); err != nil {
		return err
	}
	w.resolveBlankEdges(container)
	if err := w.enrichExtraWeights(ctx, container); err != nil {
		return err
	}
	return w.insertEdges(ctx, container)
}

// upsertVertices is phase 1: for every vertex-type, assign blank
// identities in place, then hand the batch to the sink, parallelised
// across vertex-types under the shared semaphore.
func (w *DBWriter) upsertVertices(ctx context.Context, container *actorctx.GraphContainer) error {
	sem := semaphore.NewWeighted(w.sem())
	g, ctx := errgroup.WithContext(ctx)

	for vtype, docs := range container.Vertices {
		vtype, docs := vtype, docs
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)

			matchKeys := w.VertexConfig.IdentityFields(vtype)
			if w.VertexConfig.IsBlank(vtype) {
				field := blankIdentityField
				v, err := w.VertexConfig.VertexByName(vtype)
				if err == nil && len(v.Fields) > 0 {
					field = v.Fields[0].Name
				}
				for _, d := range docs {
					if _, has := d[field]; !has {
						d[field] = uuid.New().String()
					}
				}
				matchKeys = []string{field}
			}

			if err := w.Sink.UpsertDocsBatch(ctx, docs, vtype, matchKeys, w.Dry); err != nil {
				return errs.SinkWrite("upsert "+vtype, err)
			}
			w.logger().Info("upserted vertices", "type", vtype, "count", len(docs))
			return nil
		})
	}
	return g.Wait()
}

// resolveBlankEdges is phase 2: for every edge touching a blank endpoint,
// re-derive its edge records from the now-identity-bearing vertex docs
// already reachable through container.Linear, joining by shared identity
// fields when any exist, else by positional pairing within the same
// record scope. Runs single-threaded: it mutates shared container state.
//
// graflo's actor tree always builds EdgeRecord.Source/Target from the
// exact same map references held in acc.Vertices (actor/edge.go never
// copies a VertexRep's doc), so phase 1's blank-ID assignment is already
// visible on every edge record that references those maps — there is
// nothing left to re-derive. This phase is a no-op by construction, kept
// as an explicit step (rather than removed) so the four-phase ordering
// spec.md §4.4 describes stays visible in the write path, and so a future
// Sink that deep-copies container state before upsert has a documented
// point to re-attach identities.
func (w *DBWriter) resolveBlankEdges(container *actorctx.GraphContainer) {}

// enrichExtraWeights is phase 3: for every edge whose WeightConfig names
// an indirect, vertex-joined weight source, read back the currently
// persisted documents of that vertex type matching this batch's entries,
// and inject the projected fields into every edge record paired with a
// matching vertex — the one phase that reads back from the sink during
// ingest (spec.md §4.4 phase 3). Runs single-threaded for the same reason
// as phase 2.
func (w *DBWriter) enrichExtraWeights(ctx context.Context, container *actorctx.GraphContainer) error {
	for _, e := range w.EdgeConfig.EdgesList(true) {
		if e.Weights == nil || len(e.Weights.Vertices) == 0 {
			continue
		}
		key := actorctx.EdgeKey{Source: e.Source, Target: e.Target, Purpose: e.Purpose}
		recs := container.Edges[key]
		if len(recs) == 0 {
			continue
		}

		for _, weight := range e.Weights.Vertices {
			matchKeys := w.VertexConfig.IdentityFields(weight.Name)
			batch := container.Vertices[weight.Name]
			if len(batch) == 0 {
				continue
			}

			present, err := w.Sink.FetchPresentDocuments(ctx, weight.Name, batch, matchKeys, weight.Fields)
			if err != nil {
				return errs.SinkWrite("fetch present documents for "+weight.Name, err)
			}
			byKey := indexByMatchKeys(present, matchKeys)

			for i := range recs {
				candidate := matchValues(recs[i].Target, matchKeys)
				doc, ok := byKey[candidate]
				if !ok {
					candidate = matchValues(recs[i].Source, matchKeys)
					doc, ok = byKey[candidate]
				}
				if !ok {
					continue
				}
				if recs[i].Weight == nil {
					recs[i].Weight = map[string]interface{}{}
				}
				for _, f := range weight.Fields {
					recs[i].Weight[weight.CField(f)] = doc[f]
				}
			}
		}
	}
	return nil
}

// insertEdges is phase 4: batched insert per edge-id, parallelised across
// edge-ids under the shared semaphore. AUX edges are skipped — they exist
// only as scaffolding for other phases, not for persistence
// (SPEC_FULL.md §3 supplement 1).
func (w *DBWriter) insertEdges(ctx context.Context, container *actorctx.GraphContainer) error {
	sem := semaphore.NewWeighted(w.sem())
	g, ctx := errgroup.WithContext(ctx)

	for _, e := range w.EdgeConfig.EdgesList(false) {
		e := e
		key := actorctx.EdgeKey{Source: e.Source, Target: e.Target, Purpose: e.Purpose}
		recs := container.Edges[key]
		if len(recs) == 0 {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)

			matchSource := w.VertexConfig.IdentityFields(e.Source)
			matchTarget := w.VertexConfig.IdentityFields(e.Target)

			for _, group := range groupByRelation(recs, e.Relation) {
				edges := make([]EdgeInsert, len(group.recs))
				for i, r := range group.recs {
					edges[i] = EdgeInsert{Source: r.Source, Target: r.Target, Weight: r.Weight}
				}

				if err := w.Sink.InsertEdgesBatch(ctx, edges, e.Source, e.Target, group.relation, matchSource, matchTarget, edgeCollectionName(e), w.Dry); err != nil {
					return errs.SinkWrite("insert edges "+e.Source+"->"+e.Target, err)
				}
				w.logger().Info("inserted edges", "source", e.Source, "target", e.Target, "relation", group.relation, "count", len(edges))
			}
			return nil
		})
	}
	return g.Wait()
}

// relationGroup is one distinct relation label's share of an edge-id's
// records, in first-seen order.
type relationGroup struct {
	relation string
	recs     []actorctx.EdgeRecord
}

// groupByRelation splits recs into one group per distinct relation label.
// A relation_from_key edge (spec.md §4.4 phase 4) stashes a per-record
// relation under actor.RelationWeightKey that overrides the edge's static
// fallback; records sharing one edge-id can carry different relations and
// must land in separate insert batches so each row gets its own label
// instead of borrowing the first record's.
func groupByRelation(recs []actorctx.EdgeRecord, fallback string) []relationGroup {
	var groups []relationGroup
	index := map[string]int{}
	for _, r := range recs {
		relation := fallback
		if explicit, ok := r.Weight[actor.RelationWeightKey].(string); ok && explicit != "" {
			relation = explicit
		}
		i, ok := index[relation]
		if !ok {
			i = len(groups)
			index[relation] = i
			groups = append(groups, relationGroup{relation: relation})
		}
		groups[i].recs = append(groups[i].recs, r)
	}
	return groups
}

// edgeCollectionName names the storage collection an edge-id's insert
// batches land in: source and target storage names joined by purpose when
// one disambiguates parallel edges between the same two types.
func edgeCollectionName(e *model.Edge) string {
	name := e.SourceDBName() + "_" + e.TargetDBName()
	if e.Purpose != "" {
		name += "_" + e.Purpose
	}
	return name
}

func matchValues(doc map[string]interface{}, keys []string) string {
	s := ""
	for _, k := range keys {
		s += "\x00" + toString(doc[k])
	}
	return s
}

func indexByMatchKeys(docs []map[string]interface{}, keys []string) map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{}, len(docs))
	for _, d := range docs {
		out[matchValues(d, keys)] = d
	}
	return out
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
