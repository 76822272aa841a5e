package domain

import (
	"fmt"
	"time"
)

// DuplicatePolicy decides what the regularizer does with repeated keys.
type DuplicatePolicy uint8

const (
	// RejectDuplicates fails with a DuplicateTimestampError listing every
	// repeated key.
	RejectDuplicates DuplicatePolicy = iota
	// KeepFirst keeps the first row for each key and drops the rest.
	KeepFirst
)

// RegularizeReport counts rows that did not make it onto the grid.
type RegularizeReport struct {
	Unresolved int // rows with a missing key
	Duplicates int // rows dropped by KeepFirst
	OffGrid    int // rows whose key is not a grid point
	Filled     int // grid points with no source row
}

// Regularize builds a Grid with exactly one row per step from the first key to
// the last. The key column is removed from the data columns. Steps with no
// source row become all-null rows; nothing is interpolated.
//
// Day steps key on the calendar date of each timestamp. Hour steps key on the
// UTC instant, and rows that are not on the hour are dropped as off-grid.
// Rows must already be sorted ascending by key; rows with a missing key are
// skipped and counted.
func Regularize(t Table, key string, step Step, policy DuplicatePolicy) (Grid, RegularizeReport, error) {
	var report RegularizeReport
	k := t.Index(key)
	if k < 0 {
		return Grid{}, report, &SchemaError{Source: t.Source, Column: key, Reason: "missing"}
	}

	g := Grid{Step: step}
	for i, c := range t.Columns {
		if i != k {
			g.Columns = append(g.Columns, c)
		}
	}

	type keyed struct {
		at  time.Time
		row []Value
	}
	rows := make([]keyed, 0, len(t.Rows))
	var dupes []time.Time
	for n, src := range t.Rows {
		kv := src[k]
		if !kv.Valid {
			report.Unresolved++
			continue
		}
		at := gridKey(kv.Time, step)
		if len(rows) > 0 {
			prev := rows[len(rows)-1].at
			if at.Before(prev) {
				return Grid{}, report, fmt.Errorf("%w: row %d key %s precedes %s",
					ErrUnsorted, n+1, step.Format(at), step.Format(prev))
			}
			if at.Equal(prev) {
				if policy == RejectDuplicates {
					if len(dupes) == 0 || !dupes[len(dupes)-1].Equal(at) {
						dupes = append(dupes, at)
					}
				}
				report.Duplicates++
				continue
			}
		}
		data := make([]Value, 0, len(g.Columns))
		data = append(data, src[:k]...)
		data = append(data, src[k+1:]...)
		rows = append(rows, keyed{at: at, row: data})
	}

	if len(dupes) > 0 {
		return Grid{}, report, &DuplicateTimestampError{Step: step, Times: dupes}
	}
	if len(rows) == 0 {
		return Grid{}, report, fmt.Errorf("regularize on %q: %w", key, ErrNoData)
	}

	start := gridStart(rows[0].at, step)
	end := rows[len(rows)-1].at
	next := 0
	for at := start; !at.After(end); at = step.Next(at) {
		for next < len(rows) && rows[next].at.Before(at) {
			report.OffGrid++
			next++
		}
		g.Index = append(g.Index, at)
		if next < len(rows) && rows[next].at.Equal(at) {
			g.Rows = append(g.Rows, rows[next].row)
			next++
			continue
		}
		g.Rows = append(g.Rows, nullRow(g.Columns))
		report.Filled++
	}
	report.OffGrid += len(rows) - next

	if g.Len() == 0 {
		return Grid{}, report, fmt.Errorf("regularize on %q: no key on a %s boundary: %w", key, step, ErrNoData)
	}
	return g, report, nil
}

// gridKey maps a timestamp onto the key space of a step.
func gridKey(t time.Time, step Step) time.Time {
	if step == StepDay {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return t.UTC()
}

// gridStart is the first grid point at or after the earliest key.
func gridStart(t time.Time, step Step) time.Time {
	if step == StepHour {
		if tr := t.Truncate(time.Hour); !tr.Equal(t) {
			return tr.Add(time.Hour)
		}
	}
	return t
}
