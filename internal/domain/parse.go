package domain

import (
	"strconv"
	"strings"
	"time"
)

// ParseTable converts raw CSV records (header first) into a typed Table.
// The schema's timestamp column must be present and every row must carry a
// parseable timestamp; other cells are typed by column and never rejected.
// A header-only file yields an empty Table.
func ParseTable(source string, records [][]string, schema Schema) (Table, error) {
	if len(records) == 0 {
		return Table{}, &SchemaError{Source: source, Column: schema.TimestampColumn, Reason: "missing: file has no header"}
	}

	header := records[0]
	t := Table{Source: source, Columns: make([]Column, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		t.Columns[i] = Column{Name: name, Kind: schema.ColumnKind(name)}
	}

	ts := t.Index(schema.TimestampColumn)
	if ts < 0 {
		return Table{}, &SchemaError{Source: source, Column: schema.TimestampColumn, Reason: "missing"}
	}

	t.Rows = make([][]Value, 0, len(records)-1)
	for n, rec := range records[1:] {
		row := make([]Value, len(t.Columns))
		for i, col := range t.Columns {
			var cell string
			if i < len(rec) {
				cell = strings.TrimSpace(rec[i])
			}
			if i == ts {
				at, err := time.Parse(schema.TimestampLayout, cell)
				if err != nil {
					return Table{}, &TimestampError{Source: source, Line: n + 2, Value: cell, Err: err}
				}
				row[i] = TimeValue(at)
				continue
			}
			row[i] = parseCell(cell, col.Kind)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// parseCell types one non-timestamp cell. Numeric columns keep unparseable
// cells as text.
func parseCell(cell string, kind ValueKind) Value {
	if cell == "" {
		return Null(kind)
	}
	if kind == KindNumber {
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return NumberValue(f)
		}
	}
	return TextValue(cell)
}
