// Package model implements graflo's schema model: vertex and edge types,
// filter expressions, the transform library, and the Resource/Schema
// lifecycle described in the data model and component design.
package model

import "strings"

// FieldType is the closed set of typed tags a Field may carry. Unlike the
// type-caster table (see cast.go), this tag is declarative schema metadata,
// not executable code.
type FieldType string

const (
	FieldTypeInt      FieldType = "INT"
	FieldTypeUint     FieldType = "UINT"
	FieldTypeFloat    FieldType = "FLOAT"
	FieldTypeDouble   FieldType = "DOUBLE"
	FieldTypeBool     FieldType = "BOOL"
	FieldTypeString   FieldType = "STRING"
	FieldTypeDatetime FieldType = "DATETIME"
)

// ParseFieldType validates s against the closed set of field types,
// case-insensitively, mirroring the original's uppercase-matching
// validator. An empty string is a valid "no declared type" value.
func ParseFieldType(s string) (FieldType, bool) {
	if s == "" {
		return "", true
	}
	switch FieldType(strings.ToUpper(s)) {
	case FieldTypeInt, FieldTypeUint, FieldTypeFloat, FieldTypeDouble, FieldTypeBool, FieldTypeString, FieldTypeDatetime:
		return FieldType(strings.ToUpper(s)), true
	default:
		return "", false
	}
}

// Field is one named, optionally typed attribute of a vertex or edge.
type Field struct {
	Name string
	Type FieldType // empty means "untyped"
}

// UnmarshalYAML accepts either a bare string ("id") or a mapping
// ({name: id, type: INT}), matching the original's backward-compatible
// field normalization (_normalize_fields_item).
func (f *Field) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		f.Name = name
		f.Type = ""
		return nil
	}

	var raw struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	ft, ok := ParseFieldType(raw.Type)
	if !ok {
		return &InvalidFieldTypeError{Type: raw.Type}
	}
	f.Name = raw.Name
	f.Type = ft
	return nil
}

// MarshalYAML renders a typed field as a mapping and an untyped one as a
// bare string, keeping round trips minimal.
func (f Field) MarshalYAML() (interface{}, error) {
	if f.Type == "" {
		return f.Name, nil
	}
	return struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}{f.Name, string(f.Type)}, nil
}

// InvalidFieldTypeError is raised when a field declares a type outside the
// closed FieldType set.
type InvalidFieldTypeError struct{ Type string }

func (e *InvalidFieldTypeError) Error() string {
	return "invalid field type: " + e.Type
}

// FieldNames projects a Field slice to its names, in order.
func FieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
