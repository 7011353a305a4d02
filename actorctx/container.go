package actorctx

import "reflect"

// GraphContainer is the aggregated output for a batch: every vertex-type's
// accumulated docs, every edge-id's accumulated edge records, and an
// ordered, per-record snapshot (Linear) the writer needs for extra-weight
// enrichment joins (§3 "GraphContainer", §4.3).
type GraphContainer struct {
	Vertices map[string][]map[string]interface{}
	Edges    map[EdgeKey][]EdgeRecord
	Linear   []*PerRecordAccumulator
}

// NewGraphContainer builds an empty container.
func NewGraphContainer() *GraphContainer {
	return &GraphContainer{
		Vertices: make(map[string][]map[string]interface{}),
		Edges:    make(map[EdgeKey][]EdgeRecord),
	}
}

// FromDocsList builds a GraphContainer from a batch's worth of per-record
// accumulators, preserving their original order in Linear so the writer
// can later group edge records back to the per-record scope that produced
// them (needed for extra-weight joins, §4.4 phase 3).
func FromDocsList(accs []*PerRecordAccumulator) *GraphContainer {
	c := NewGraphContainer()
	c.Linear = make([]*PerRecordAccumulator, 0, len(accs))

	for _, acc := range accs {
		if acc == nil {
			continue
		}
		c.Linear = append(c.Linear, acc)
		for vtype, docs := range acc.Vertices {
			c.Vertices[vtype] = append(c.Vertices[vtype], docs...)
		}
		for key, recs := range acc.Edges {
			c.Edges[key] = append(c.Edges[key], recs...)
		}
	}

	return c
}

// PickUnique removes duplicate vertex records within each vertex-type and
// duplicate edge records within each edge-id, using deep equality — the
// invariant checked in spec.md §8 ("After pick_unique ... no two list
// entries are deep-equal").
func (c *GraphContainer) PickUnique() {
	for vtype, docs := range c.Vertices {
		c.Vertices[vtype] = uniqueDocs(docs)
	}
	for key, recs := range c.Edges {
		c.Edges[key] = uniqueEdgeRecords(recs)
	}
}

func uniqueDocs(docs []map[string]interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	for _, d := range docs {
		if containsDeepEqual(out, d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func uniqueEdgeRecords(recs []EdgeRecord) []EdgeRecord {
	var out []EdgeRecord
	for _, r := range recs {
		dup := false
		for _, existing := range out {
			if reflect.DeepEqual(existing, r) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

// LoopOverRelations yields every edge-id whose source and target match
// (src, tgt), ignoring purpose — used when a caller needs every
// relationship between two vertex types regardless of how many
// purpose-disambiguated edge-ids exist between them.
func (c *GraphContainer) LoopOverRelations(src, tgt string) []EdgeKey {
	var keys []EdgeKey
	for key := range c.Edges {
		if key.Source == src && key.Target == tgt {
			keys = append(keys, key)
		}
	}
	return keys
}
