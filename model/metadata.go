package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/growgraph/graflo/internal/errs"
)

// Doc is a JSONB-backed document: the generic field bag a vertex or edge
// record carries. It implements driver.Valuer/sql.Scanner so the reference
// Postgres sink can persist arbitrary vertex/edge fields in a single JSONB
// column alongside the declared, indexed fields.
type Doc map[string]interface{}

// Value implements driver.Valuer for database storage.
func (d Doc) Value() (driver.Value, error) {
	return d.Marshal()
}

// Scan implements sql.Scanner for database retrieval.
func (d *Doc) Scan(value interface{}) error {
	return d.Unmarshal(value)
}

// Marshal converts Doc to JSON bytes.
func (d Doc) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// Unmarshal converts JSON bytes (or another Doc) into d.
func (d *Doc) Unmarshal(value interface{}) error {
	if value == nil {
		*d = Doc{}
		return nil
	}

	if s, ok := value.(Doc); ok {
		*d = s
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return errs.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, d)
}
