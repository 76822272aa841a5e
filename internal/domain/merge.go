package domain

import (
	"fmt"
	"sort"
)

// Merge concatenates tables into one and sorts the rows ascending by the key
// column. Columns are the union of all inputs in first-seen order; rows from a
// table lacking a column get nulls there. Inputs are ordered by Source first
// so the result does not depend on the order tables arrived in.
func Merge(tables []Table, key string) (Table, error) {
	if len(tables) == 0 {
		return Table{}, fmt.Errorf("merge tables: %w", ErrNoData)
	}

	ordered := make([]Table, len(tables))
	copy(ordered, tables)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Source < ordered[j].Source })

	var merged Table
	pos := map[string]int{}
	total := 0
	for _, t := range ordered {
		if t.Index(key) < 0 {
			return Table{}, &SchemaError{Source: t.Source, Column: key, Reason: "missing"}
		}
		for _, c := range t.Columns {
			if _, ok := pos[c.Name]; !ok {
				pos[c.Name] = len(merged.Columns)
				merged.Columns = append(merged.Columns, c)
			}
		}
		total += t.Len()
	}

	merged.Rows = make([][]Value, 0, total)
	for _, t := range ordered {
		for _, src := range t.Rows {
			row := nullRow(merged.Columns)
			for i, c := range t.Columns {
				row[pos[c.Name]] = src[i]
			}
			merged.Rows = append(merged.Rows, row)
		}
	}

	k := pos[key]
	sort.SliceStable(merged.Rows, func(i, j int) bool {
		return keyBefore(merged.Rows[i][k], merged.Rows[j][k])
	})
	return merged, nil
}

// keyBefore orders valid timestamps ascending with missing keys last.
func keyBefore(a, b Value) bool {
	switch {
	case !a.Valid:
		return false
	case !b.Valid:
		return true
	default:
		return a.Time.Before(b.Time)
	}
}

// Prune removes the named columns. In strict mode a name that is not present
// is a SchemaError, so schema drift upstream fails loudly.
func Prune(t Table, drop []string, strict bool) (Table, error) {
	remove := make(map[string]bool, len(drop))
	for _, name := range drop {
		if strict && t.Index(name) < 0 {
			return Table{}, &SchemaError{Source: t.Source, Column: name, Reason: "configured for removal but not present"}
		}
		remove[name] = true
	}

	keep := make([]int, 0, len(t.Columns))
	out := Table{Source: t.Source}
	for i, c := range t.Columns {
		if !remove[c.Name] {
			keep = append(keep, i)
			out.Columns = append(out.Columns, c)
		}
	}

	out.Rows = make([][]Value, len(t.Rows))
	for r, src := range t.Rows {
		row := make([]Value, len(keep))
		for j, i := range keep {
			row[j] = src[i]
		}
		out.Rows[r] = row
	}
	return out, nil
}
