package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TableSource reads rows from a relational table through database/sql —
// the table-pattern case of spec.md §6's "Patterns object" (table, schema,
// date field, optional date filter WHERE fragment). It runs one query on
// first use and streams rows into batches; a date filter fragment is the
// caller's responsibility to build (config.TablePattern.DateFilter is
// passed through verbatim as a WHERE clause body).
type TableSource struct {
	Name   string
	DB     *sql.DB
	Table  string
	Schema string
	Where  string

	datetimeColumn string
	datetimeAfter  time.Time
	datetimeBefore time.Time
}

// NewTableSource builds a TableSource under resourceName against an
// already-open database handle.
func NewTableSource(resourceName string, db *sql.DB, table, schemaName, where string) *TableSource {
	return &TableSource{Name: resourceName, DB: db, Table: table, Schema: schemaName, Where: where}
}

func (t *TableSource) ResourceName() string { return t.Name }

func (t *TableSource) qualifiedTable() string {
	if t.Schema == "" {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

// SetDatetimeFilter restricts rows to the half-open interval
// [after, before) on column, in addition to whatever static Where fragment
// the table pattern already carries (spec.md §4.5). A zero after or before
// leaves that bound open. Implements datasource.DatetimeFilterable.
func (t *TableSource) SetDatetimeFilter(column string, after, before time.Time) {
	t.datetimeColumn = column
	t.datetimeAfter = after
	t.datetimeBefore = before
}

func (t *TableSource) IterBatches(ctx context.Context, batchSize, limit int) (func() (Batch, error), func() error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	var rows *sql.Rows
	var cols []string
	drawn := 0
	started := false
	var startErr error

	next := func() (Batch, error) {
		if !started {
			started = true
			query, args := t.buildQuery()
			r, err := t.DB.QueryContext(ctx, query, args...)
			if err != nil {
				startErr = fmt.Errorf("query %s: %w", t.qualifiedTable(), err)
				return nil, startErr
			}
			cols, err = r.Columns()
			if err != nil {
				startErr = fmt.Errorf("columns %s: %w", t.qualifiedTable(), err)
				return nil, startErr
			}
			rows = r
		}
		if startErr != nil {
			return nil, startErr
		}

		var batch Batch
		for len(batch) < batchSize {
			if limit > 0 && drawn >= limit {
				break
			}
			if !rows.Next() {
				break
			}
			vals := make([]interface{}, len(cols))
			ptrs := make([]interface{}, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return nil, fmt.Errorf("scan %s: %w", t.qualifiedTable(), err)
			}
			rec := make(Record, len(cols))
			for i, c := range cols {
				rec[c] = vals[i]
			}
			batch = append(batch, rec)
			drawn++
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", t.qualifiedTable(), err)
		}
		if len(batch) == 0 {
			return nil, nil
		}
		return batch, nil
	}

	return next, func() error {
		if rows == nil {
			return nil
		}
		return rows.Close()
	}
}

// buildQuery composes the select statement plus its positional args: the
// static Where fragment, AND'd with a half-open datetime-column predicate
// when SetDatetimeFilter configured one.
func (t *TableSource) buildQuery() (string, []interface{}) {
	conds := []string{}
	var args []interface{}

	if t.Where != "" {
		conds = append(conds, t.Where)
	}
	if t.datetimeColumn != "" {
		if !t.datetimeAfter.IsZero() {
			args = append(args, t.datetimeAfter)
			conds = append(conds, fmt.Sprintf("%s >= $%d", t.datetimeColumn, len(args)))
		}
		if !t.datetimeBefore.IsZero() {
			args = append(args, t.datetimeBefore)
			conds = append(conds, fmt.Sprintf("%s < $%d", t.datetimeColumn, len(args)))
		}
	}

	query := fmt.Sprintf("SELECT * FROM %s", t.qualifiedTable())
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query, args
}

