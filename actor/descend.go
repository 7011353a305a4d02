package actor

import (
	"github.com/growgraph/graflo/actorctx"
	"github.com/growgraph/graflo/location"
	"github.com/growgraph/graflo/model"
)

// DescendActor recurses into a named sub-key, every key, or a positional
// list, pushing a new location segment per spec.md §4.1. A Descend with no
// Key and AnyKey false is pure sequencing against the same doc and
// location — the shape the implicit pipeline-root Descend takes, and the
// shape an explicit `descend: {pipeline: [...]}` with no `into` takes too.
type DescendActor struct {
	Key    string
	AnyKey bool
	Children []Wrapper
}

func (a *DescendActor) count() int {
	n := 1
	for _, c := range a.Children {
		n += c.count()
	}
	return n
}

func (a *DescendActor) finishInit(vc *model.VertexConfig, ec *model.EdgeConfig, transforms map[string]*model.Transform, edgeGreedy bool) error {
	for _, c := range a.Children {
		if err := c.finishInit(vc, ec, transforms, edgeGreedy); err != nil {
			return err
		}
	}
	return nil
}

type scoped struct {
	loc location.Index
	doc map[string]interface{}
}

// Execute enumerates the scopes this Descend visits and runs every child
// left-to-right at each, so later children see accumulations from earlier
// siblings within the same scope (spec.md §4.1 "Execution contract").
func (a *DescendActor) Execute(ctx *actorctx.ActionContext, doc map[string]interface{}, loc location.Index) error {
	for _, s := range a.scopes(doc, loc) {
		for _, child := range a.Children {
			if err := child.Execute(ctx, s.doc, s.loc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *DescendActor) scopes(doc map[string]interface{}, loc location.Index) []scoped {
	if a.Key == "" && !a.AnyKey {
		return []scoped{{loc: loc, doc: doc}}
	}

	if a.AnyKey {
		var out []scoped
		for k, v := range doc {
			out = append(out, expand(v, loc.Extend(location.Key(k)))...)
		}
		return out
	}

	v, ok := doc[a.Key]
	if !ok {
		// A Descend over an empty/absent mapping is a no-op (spec.md §8
		// boundary behaviour for any_key over an empty mapping).
		return nil
	}
	return expand(v, loc.Extend(location.Key(a.Key)))
}

// expand pushes an additional Idx segment for every element when v is a
// list (the "positional list" recursion shape), otherwise yields v as a
// single scope at loc unchanged.
func expand(v interface{}, loc location.Index) []scoped {
	if list, ok := v.([]interface{}); ok {
		out := make([]scoped, 0, len(list))
		for i, item := range list {
			out = append(out, scoped{loc: loc.Extend(location.Idx(i)), doc: asDocMap(item)})
		}
		return out
	}
	return []scoped{{loc: loc, doc: asDocMap(v)}}
}
