package actor

import (
	"fmt"

	"github.com/growgraph/graflo/internal/errs"
)

// Build constructs the actor tree for a resource's pipeline. The pipeline
// itself is the implicit root Descend named in spec.md §4.1: a list of
// steps run in sequence against the whole record, at the root location,
// with no segment pushed.
func Build(pipeline []interface{}) (Wrapper, error) {
	children, err := buildChildren(pipeline)
	if err != nil {
		return nil, err
	}
	return &DescendActor{Children: children}, nil
}

func buildChildren(steps []interface{}) ([]Wrapper, error) {
	out := make([]Wrapper, 0, len(steps))
	for _, s := range steps {
		w, err := buildOne(s)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func buildOne(step interface{}) (Wrapper, error) {
	norm, err := NormalizeStep(step)
	if err != nil {
		return nil, err
	}

	t, _ := norm["type"].(StepType)
	switch t {
	case StepVertex:
		return &VertexActor{
			VertexType: stringField(norm, "vertex"),
		}, nil
	case StepTransform:
		return buildTransformActor(norm)
	case StepEdge:
		return &EdgeActor{
			Source:          stringField(norm, "source"),
			Target:          stringField(norm, "target"),
			Purpose:         stringField(norm, "purpose"),
			MatchSourceHint: stringField(norm, "match_source"),
			MatchTargetHint: stringField(norm, "match_target"),
		}, nil
	case StepDescend:
		return buildDescendActor(norm)
	case StepVertexRouter:
		return &VertexRouterActor{
			TypeField: stringField(norm, "type_field"),
			Prefix:    stringField(norm, "prefix"),
			FieldMap:  stringMapField(norm, "field_map"),
		}, nil
	default:
		return nil, errs.Validation("build actor step", fmt.Errorf("unrecognized normalized step type %q", t))
	}
}

func buildDescendActor(norm raw) (Wrapper, error) {
	pipeline, _ := asList(norm["pipeline"])
	children, err := buildChildren(pipeline)
	if err != nil {
		return nil, err
	}

	d := &DescendActor{Children: children}
	if into, ok := norm["into"]; ok && into != nil {
		if s, ok := into.(string); ok {
			d.Key = s
		}
	}
	d.AnyKey = boolField(norm, "any_key")
	return d, nil
}

func buildTransformActor(norm raw) (Wrapper, error) {
	ta := &TransformActor{
		Refs:         stringSliceField(norm, "name"),
		TargetVertex: stringField(norm, "target_vertex"),
	}

	// An inline transform definition carries its own map/foo/dress/etc.
	// fields rather than naming a library entry.
	if hasAny(norm, "map", "foo", "dress", "input", "output", "params") {
		ta.Inline = inlineTransformFromRaw(norm)
	}
	return ta, nil
}
