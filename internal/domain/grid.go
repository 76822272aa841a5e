package domain

import "time"

// Step is the spacing of a regular grid.
type Step uint8

const (
	StepHour Step = iota + 1
	StepDay
)

func (s Step) String() string {
	switch s {
	case StepHour:
		return "hour"
	case StepDay:
		return "day"
	default:
		return "unknown"
	}
}

// Duration returns the fixed length of one step.
func (s Step) Duration() time.Duration {
	if s == StepDay {
		return 24 * time.Hour
	}
	return time.Hour
}

// Next returns the grid point one step after t.
func (s Step) Next(t time.Time) time.Time {
	if s == StepDay {
		return t.AddDate(0, 0, 1)
	}
	return t.Add(time.Hour)
}

// Format renders a grid timestamp: a date for day steps, RFC 3339 UTC for
// hour steps.
func (s Step) Format(t time.Time) string {
	if s == StepDay {
		return t.UTC().Format(time.DateOnly)
	}
	return t.UTC().Format(time.RFC3339)
}

// Grid is a regular time series: Index[i] is the key of Rows[i], and
// consecutive keys are exactly one Step apart once validated.
type Grid struct {
	Step    Step
	Index   []time.Time
	Columns []Column
	Rows    [][]Value
}

// Len returns the number of grid rows.
func (g Grid) Len() int { return len(g.Index) }

// Start returns the first index value, or the zero time for an empty grid.
func (g Grid) Start() time.Time {
	if len(g.Index) == 0 {
		return time.Time{}
	}
	return g.Index[0]
}

// End returns the last index value, or the zero time for an empty grid.
func (g Grid) End() time.Time {
	if len(g.Index) == 0 {
		return time.Time{}
	}
	return g.Index[len(g.Index)-1]
}

// Column returns the position of the named data column, or -1.
func (g Grid) Column(name string) int {
	for i, c := range g.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func nullRow(cols []Column) []Value {
	row := make([]Value, len(cols))
	for i, c := range cols {
		row[i] = Null(c.Kind)
	}
	return row
}
