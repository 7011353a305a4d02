package model

import "fmt"

// DressConfig describes how a transform that returns a single scalar is
// packaged together with the input field name into a dict: the Key field
// receives the input field's name, the Value field receives the function
// result (SPEC_FULL.md §3 "Transform.DressConfig pivot semantics").
type DressConfig struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// TransformFunc is a registered functional transform. Go has no dynamic
// module import, so the "module-and-function reference" from spec.md §3
// is realized as a name looked up in a process-wide registry (see
// RegisterTransformFunc) rather than a filesystem path.
type TransformFunc func(args ...interface{}) (interface{}, error)

var transformRegistry = map[string]TransformFunc{}

// RegisterTransformFunc makes fn available to Transform definitions under
// name. Call during program init for every functional transform a schema
// may reference.
func RegisterTransformFunc(name string, fn TransformFunc) {
	transformRegistry[name] = fn
}

// LookupTransformFunc resolves a registered functional transform by name.
func LookupTransformFunc(name string) (TransformFunc, bool) {
	fn, ok := transformRegistry[name]
	return fn, ok
}

// Transform is either a functional transform (Func names a registered
// TransformFunc and Params supplies static arguments) or a pure mapping
// transform (Map renames input fields to output fields). Declares an
// ordered Input field tuple and ordered Output field tuple; when Output is
// unset it defaults to Input.
type Transform struct {
	Name   string                 `yaml:"name,omitempty"`
	Func   string                 `yaml:"foo,omitempty"`
	Params map[string]interface{} `yaml:"params,omitempty"`
	Map    map[string]string      `yaml:"map,omitempty"`
	Input  []string               `yaml:"input,omitempty"`
	Output []string               `yaml:"output,omitempty"`
	Dress  *DressConfig           `yaml:"dress,omitempty"`

	resolved TransformFunc
}

// FinishInit resolves the named functional transform, if any, against the
// registry. Fatal (TransformLoadError per §4.1/§7) when Func is set but
// unresolved.
func (t *Transform) FinishInit() error {
	if t.Func == "" {
		if len(t.Output) == 0 && len(t.Input) > 0 {
			t.Output = append([]string(nil), t.Input...)
		}
		return nil
	}
	fn, ok := LookupTransformFunc(t.Func)
	if !ok {
		return fmt.Errorf("transform function %q is not registered", t.Func)
	}
	t.resolved = fn
	if len(t.Output) == 0 && len(t.Input) > 0 {
		t.Output = append([]string(nil), t.Input...)
	}
	return nil
}

// HasFunction reports whether this transform resolved a functional
// transform (as opposed to being a pure field-rename map).
func (t *Transform) HasFunction() bool { return t.resolved != nil }

// Apply runs the transform against a record's fields and returns the
// output fields to merge in. For a pure mapping transform this simply
// renames fields; for a functional transform without Dress it calls the
// function once with every input field's value and distributes the result
// positionally across Output; with Dress it returns the dressed
// {key: inputFieldName, value: result} map of the first input field only.
// DressAll yields one dressed map per input field.
func (t *Transform) Apply(doc map[string]interface{}) (map[string]interface{}, error) {
	if t.resolved == nil {
		return t.applyMapping(doc)
	}
	if t.Dress != nil {
		return t.applyDressed(doc)
	}
	return t.applyFunctional(doc)
}

func (t *Transform) applyMapping(doc map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(t.Map))
	for from, to := range t.Map {
		if v, ok := doc[from]; ok {
			out[to] = v
		}
	}
	return out, nil
}

func (t *Transform) applyFunctional(doc map[string]interface{}) (map[string]interface{}, error) {
	args := make([]interface{}, 0, len(t.Input)+len(t.Params))
	for _, in := range t.Input {
		args = append(args, doc[in])
	}
	for _, v := range t.Params {
		args = append(args, v)
	}
	result, err := t.resolved(args...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(t.Output))
	if len(t.Output) == 1 {
		out[t.Output[0]] = result
		return out, nil
	}
	if results, ok := result.([]interface{}); ok {
		for i, name := range t.Output {
			if i < len(results) {
				out[name] = results[i]
			}
		}
	}
	return out, nil
}

// applyDressed produces one dressed dict per input field: the function is
// invoked once per input, and its result is packaged as
// {dress.Key: inputFieldName, dress.Value: functionResult}. Since a single
// merged map can carry only one dress.Key/dress.Value pair, a
// multi-input dress yields a slice of dicts via DressAll instead; Apply
// itself dresses only the first input for callers that merge a single map.
func (t *Transform) applyDressed(doc map[string]interface{}) (map[string]interface{}, error) {
	dressed, err := t.DressAll(doc)
	if err != nil || len(dressed) == 0 {
		return nil, err
	}
	return dressed[0], nil
}

// DressAll returns one dressed map per input field, in input order. This
// is the precise form of the original's single-argument pivot: a
// multi-field dress step (e.g. round_str applied to "Open", "Close", ...)
// yields one {key, value} record per field rather than a single flat
// merge.
func (t *Transform) DressAll(doc map[string]interface{}) ([]map[string]interface{}, error) {
	if t.resolved == nil || t.Dress == nil {
		return nil, fmt.Errorf("DressAll requires a resolved function and a dress spec")
	}
	results := make([]map[string]interface{}, 0, len(t.Input))
	for _, in := range t.Input {
		args := []interface{}{doc[in]}
		for _, v := range t.Params {
			args = append(args, v)
		}
		result, err := t.resolved(args...)
		if err != nil {
			return nil, err
		}
		results = append(results, map[string]interface{}{
			t.Dress.Key:   in,
			t.Dress.Value: result,
		})
	}
	return results, nil
}

// SortTransforms orders transforms so that pure field-renames (no
// resolved function) sort ahead of functional transforms, matching the
// original's ProtoTransform.__lt__ — used when a Transform step names more
// than one transform by reference, so renames land before functions run.
func SortTransforms(transforms []*Transform) {
	// insertion sort: the input is always small (a handful of steps),
	// and stability matters for transforms that tie.
	for i := 1; i < len(transforms); i++ {
		for j := i; j > 0 && transformLess(transforms[j], transforms[j-1]); j-- {
			transforms[j], transforms[j-1] = transforms[j-1], transforms[j]
		}
	}
}

func transformLess(a, b *Transform) bool {
	return a.resolved == nil && b.resolved != nil
}
