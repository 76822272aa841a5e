package domain

import (
	"fmt"
	"time"
)

// RollupRule selects how an hourly grid collapses to one row per day.
type RollupRule string

const (
	RollupNone RollupRule = "none"
	// RollupSample keeps every 24th hourly row, starting from the first.
	RollupSample RollupRule = "sample"
	// RollupMean averages numeric columns per UTC calendar day and keeps the
	// first present value of other columns.
	RollupMean RollupRule = "mean"
)

// ParseRollupRule validates a rollup rule string. Empty means none.
func ParseRollupRule(s string) (RollupRule, error) {
	switch r := RollupRule(s); r {
	case "":
		return RollupNone, nil
	case RollupNone, RollupSample, RollupMean:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rollup rule %q", s)
	}
}

// RollupDaily collapses an hourly grid into a day-step grid.
func RollupDaily(g Grid, rule RollupRule) (Grid, error) {
	if g.Step != StepHour {
		return Grid{}, fmt.Errorf("rollup daily: grid step is %s, want hour", g.Step)
	}
	if g.Len() == 0 {
		return Grid{}, fmt.Errorf("rollup daily: %w", ErrNoData)
	}
	switch rule {
	case RollupNone, "":
		return g, nil
	case RollupSample:
		return sampleDaily(g), nil
	case RollupMean:
		return meanDaily(g), nil
	default:
		return Grid{}, fmt.Errorf("rollup daily: unknown rule %q", rule)
	}
}

// sampleDaily picks the rows at first, first+24h, first+48h, ... The input is
// a complete hourly grid, so every 24th row is exactly one day later.
func sampleDaily(g Grid) Grid {
	out := Grid{Step: StepDay, Columns: g.Columns}
	for i := 0; i < g.Len(); i += 24 {
		out.Index = append(out.Index, g.Index[i])
		out.Rows = append(out.Rows, g.Rows[i])
	}
	return out
}

func meanDaily(g Grid) Grid {
	out := Grid{Step: StepDay, Columns: g.Columns}

	var (
		day   time.Time
		group [][]Value
	)
	flush := func() {
		if group != nil {
			out.Index = append(out.Index, day)
			out.Rows = append(out.Rows, aggregate(g.Columns, group))
		}
	}
	for i, at := range g.Index {
		d := gridKey(at, StepDay)
		if group == nil || !d.Equal(day) {
			flush()
			day, group = d, nil
		}
		group = append(group, g.Rows[i])
	}
	flush()
	return out
}

func aggregate(cols []Column, rows [][]Value) []Value {
	out := nullRow(cols)
	for c, col := range cols {
		if col.Kind == KindNumber {
			var sum float64
			var n int
			for _, row := range rows {
				if v := row[c]; v.Valid && v.Kind == KindNumber {
					sum += v.Num
					n++
				}
			}
			if n > 0 {
				out[c] = NumberValue(sum / float64(n))
			}
			continue
		}
		for _, row := range rows {
			if row[c].Valid {
				out[c] = row[c]
				break
			}
		}
	}
	return out
}
