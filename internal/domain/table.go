package domain

import (
	"strconv"
	"time"
)

// ValueKind identifies the type carried by a Value or declared by a Column.
type ValueKind uint8

const (
	KindText ValueKind = iota
	KindNumber
	KindTime
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "text"
	}
}

// Column is a named, typed column of a Table or Grid.
type Column struct {
	Name string
	Kind ValueKind
}

// Value is a single nullable cell. A numeric column may still hold text
// values when the source cell is not a plain number.
type Value struct {
	Kind  ValueKind
	Valid bool
	Num   float64
	Text  string
	Time  time.Time
}

// Null returns a missing value of the given kind.
func Null(kind ValueKind) Value { return Value{Kind: kind} }

// NumberValue returns a present numeric value.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Valid: true, Num: f} }

// TextValue returns a present text value.
func TextValue(s string) Value { return Value{Kind: KindText, Valid: true, Text: s} }

// TimeValue returns a present timestamp value.
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Valid: true, Time: t} }

// String renders the value for delimited output. Missing values render empty.
// Numbers use the shortest representation that parses back to the same float.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindTime:
		return v.Time.UTC().Format(time.RFC3339)
	default:
		return v.Text
	}
}

// Any returns the value as a plain Go value (float64, string, time.Time) or
// nil when missing. Used by encoders that need untyped values.
func (v Value) Any() any {
	if !v.Valid {
		return nil
	}
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindTime:
		return v.Time.UTC()
	default:
		return v.Text
	}
}

// Table is a parsed observation table: ordered columns and rows of values,
// one value per column. Source names the file the rows came from, or is empty
// for merged tables.
type Table struct {
	Source  string
	Columns []Column
	Rows    [][]Value
}

// Index returns the position of the named column, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
