package actor

import (
	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/location"
	"github.com/growgraph/graflo/model"
)

// Wrapper is one node of the actor tree. Every variant — Vertex, Transform,
// Edge, Descend, VertexRouter — implements it; Descend is the only variant
// that owns children.
type Wrapper interface {
	// finishInit binds the wrapper (and, for Descend, its children) to the
	// live schema references, validating every name reference eagerly so
	// that a bad schema reference fails at construction, not mid-ingest.
	finishInit(vc *model.VertexConfig, ec *model.EdgeConfig, transforms map[string]*model.Transform, edgeGreedy bool) error

	// Execute runs this wrapper's contribution against doc at loc,
	// mutating ctx in place. A returned error from a Vertex/Transform/Edge
	// step is a per-record failure (spec's RecordTransform kind); callers
	// isolate it to the one record rather than halting the batch.
	Execute(ctx *actorctx.ActionContext, doc map[string]interface{}, loc location.Index) error

	// count returns the number of actors in this wrapper's subtree
	// (itself plus, for Descend, every descendant), used by
	// Resource.Count for diagnostics.
	count() int
}

func asDocMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func asList(v interface{}) ([]interface{}, bool) {
	l, ok := v.([]interface{})
	return l, ok
}

func stringField(m raw, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func boolField(m raw, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func stringSliceField(m raw, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{t}
	}
	return nil
}

func stringMapField(m raw, key string) map[string]string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	out := map[string]string{}
	switch t := v.(type) {
	case map[string]string:
		return t
	case map[string]interface{}:
		for k, val := range t {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
	case map[interface{}]interface{}:
		for k, val := range t {
			ks, kok := k.(string)
			vs, vok := val.(string)
			if kok && vok {
				out[ks] = vs
			}
		}
	}
	return out
}
