// Package errs defines graflo's error-kind taxonomy and the wrapping
// convention used throughout the module.
package errs

import "fmt"

// NewError wraps err with the operation that produced it, in the same
// "op: err" shape used across the codebase's database and writer layers.
func NewError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Kind distinguishes the error taxonomy named in the error handling design:
// validation and load errors halt immediately, per-record errors are
// isolated, sink errors propagate to the caller.
type Kind int

const (
	// KindValidation covers malformed schema, duplicate resource names,
	// unknown vertex/edge references, and bad step shapes. Fatal at
	// finish_init.
	KindValidation Kind = iota
	// KindTransformLoad covers a transform function that cannot be
	// resolved. Fatal at finish_init.
	KindTransformLoad
	// KindRecordTransform covers an actor step failing on a single
	// record. The offending record is dropped; the batch continues.
	KindRecordTransform
	// KindSchemaExists covers a target sink that already holds a schema
	// when recreate_schema is false. Fatal before any writes.
	KindSchemaExists
	// KindSinkWrite covers a backend rejecting an upsert or edge insert.
	// Surfaced to the caller unchanged; the core never retries.
	KindSinkWrite
	// KindDryAssertion is test-only and never raised on a production path.
	KindDryAssertion
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransformLoad:
		return "transform_load"
	case KindRecordTransform:
		return "record_transform"
	case KindSchemaExists:
		return "schema_exists"
	case KindSinkWrite:
		return "sink_write"
	case KindDryAssertion:
		return "dry_assertion"
	default:
		return "unknown"
	}
}

// Error is a typed error carrying one of the Kind values above, so callers
// can branch on error class with errors.As instead of string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op string, err error) error      { return New(KindValidation, op, err) }
func TransformLoad(op string, err error) error   { return New(KindTransformLoad, op, err) }
func RecordTransform(op string, err error) error { return New(KindRecordTransform, op, err) }
func SchemaExists(op string, err error) error    { return New(KindSchemaExists, op, err) }
func SinkWrite(op string, err error) error       { return New(KindSinkWrite, op, err) }
func DryAssertion(op string, err error) error    { return New(KindDryAssertion, op, err) }
