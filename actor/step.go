// Package actor implements the actor tree: step normalization and the
// Vertex/Transform/Edge/Descend/VertexRouter execution tree that
// interprets one record into graph fragments (spec.md §4.1).
package actor

import (
	"fmt"

	"github.com/growgraph/graflo/internal/errs"
)

// StepType is the canonical, normalized shape every author-facing step is
// reduced to before validation.
type StepType string

const (
	StepVertex       StepType = "vertex"
	StepTransform    StepType = "transform"
	StepEdge         StepType = "edge"
	StepDescend      StepType = "descend"
	StepVertexRouter StepType = "vertex_router"
)

// raw is the author-facing, YAML-decoded representation of one step: a
// generic string-keyed map, since a step can arrive in several surface
// shapes (spec §4.1 "Step normalisation").
type raw = map[string]interface{}

// NormalizeStep reduces one author-facing step (or, at the pipeline root,
// a bare list) to a canonical map carrying a "type" discriminator plus
// that variant's fields. The normalizer is total (every accepted surface
// shape maps to exactly one canonical shape) and idempotent (normalizing
// an already-canonical step returns it unchanged).
func NormalizeStep(step interface{}) (raw, error) {
	switch v := step.(type) {
	case []interface{}:
		// A bare list at any pipeline position is an implicit Descend
		// with a null key and the list as its sub-pipeline.
		return raw{"type": StepDescend, "key": nil, "pipeline": v}, nil
	case raw:
		return normalizeMap(v)
	case map[interface{}]interface{}:
		return normalizeMap(toStringMap(v))
	default:
		return nil, errs.Validation("normalize step", fmt.Errorf("unsupported step shape: %T", step))
	}
}

func toStringMap(m map[interface{}]interface{}) raw {
	out := make(raw, len(m))
	for k, v := range m {
		if ks, ok := k.(string); ok {
			out[ks] = v
		}
	}
	return out
}

func normalizeMap(m raw) (raw, error) {
	switch t := m["type"].(type) {
	case StepType:
		return normalizeTyped(t, m)
	case string:
		return normalizeTyped(StepType(t), m)
	}

	if v, ok := m["vertex"]; ok {
		return normalizeVertexShape(v)
	}
	if e, ok := m["edge"]; ok {
		return normalizeEdgeShape(asMap(e))
	}
	if tr, ok := m["transform"]; ok {
		return normalizeTransformShape(asMap(tr))
	}
	if d, ok := m["descend"]; ok {
		return normalizeDescendShape(asMap(d))
	}
	if vr, ok := m["vertex_router"]; ok {
		return normalizeVertexRouterShape(asMap(vr))
	}

	// Flat shapes: inferred from the keys present.
	if _, ok := m["type_field"]; ok {
		return normalizeVertexRouterShape(m)
	}
	if hasAny(m, "source", "from", "target", "to") {
		return normalizeEdgeShape(m)
	}
	if hasAny(m, "into", "pipeline", "apply") && !hasAny(m, "map", "foo", "module") {
		return normalizeDescendShape(m)
	}
	if hasAny(m, "map", "foo", "module", "dress", "input", "output") {
		return normalizeTransformShape(m)
	}

	return nil, errs.Validation("normalize step", fmt.Errorf("unrecognized step shape: %v", keysOf(m)))
}

func normalizeTyped(t StepType, m raw) (raw, error) {
	switch t {
	case StepVertex, StepTransform, StepEdge, StepDescend, StepVertexRouter:
		out := make(raw, len(m))
		for k, v := range m {
			out[k] = v
		}
		out["type"] = t
		return out, nil
	default:
		return nil, errs.Validation("normalize step", fmt.Errorf("unknown step type %q", t))
	}
}

func normalizeVertexShape(v interface{}) (raw, error) {
	switch t := v.(type) {
	case string:
		return raw{"type": StepVertex, "vertex": t}, nil
	case raw:
		out := raw{"type": StepVertex}
		for k, val := range t {
			out[k] = val
		}
		return out, nil
	case map[interface{}]interface{}:
		return normalizeVertexShape(toStringMap(t))
	default:
		return nil, errs.Validation("normalize vertex step", fmt.Errorf("unsupported vertex shape: %T", v))
	}
}

func normalizeEdgeShape(m raw) (raw, error) {
	out := raw{"type": StepEdge}
	for k, v := range m {
		out[k] = v
	}
	if from, ok := out["from"]; ok {
		out["source"] = from
	}
	if to, ok := out["to"]; ok {
		out["target"] = to
	}
	return out, nil
}

func normalizeTransformShape(m raw) (raw, error) {
	out := raw{"type": StepTransform}
	for k, v := range m {
		out[k] = v
	}
	if tv, ok := out["to_vertex"]; ok {
		out["target_vertex"] = tv
	}
	return out, nil
}

func normalizeDescendShape(m raw) (raw, error) {
	out := raw{"type": StepDescend}
	for k, v := range m {
		out[k] = v
	}
	if k, ok := out["key"]; ok {
		out["into"] = k
	}
	if ap, ok := out["apply"]; ok {
		out["pipeline"] = ap
	}
	return out, nil
}

func normalizeVertexRouterShape(m raw) (raw, error) {
	out := raw{"type": StepVertexRouter}
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

func asMap(v interface{}) raw {
	switch t := v.(type) {
	case raw:
		return t
	case map[interface{}]interface{}:
		return toStringMap(t)
	case string:
		return raw{"vertex": t}
	default:
		return raw{}
	}
}

func hasAny(m raw, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func keysOf(m raw) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
