package domain

import (
	"fmt"
	"time"
)

// Regularity is the observable result of a successful gap check.
type Regularity struct {
	Step  Step
	Rows  int
	Start time.Time
	End   time.Time
}

func (r Regularity) String() string {
	return fmt.Sprintf("%d rows spaced one %s apart from %s to %s",
		r.Rows, r.Step, r.Step.Format(r.Start), r.Step.Format(r.End))
}

// ValidateGrid confirms consecutive index values are strictly increasing and
// at most one step apart. The first violation is returned as an
// IrregularGridError naming both timestamps.
func ValidateGrid(g Grid) (Regularity, error) {
	if g.Len() == 0 {
		return Regularity{}, fmt.Errorf("validate grid: %w", ErrNoData)
	}
	if len(g.Rows) != len(g.Index) {
		return Regularity{}, fmt.Errorf("validate grid: %d index values for %d rows", len(g.Index), len(g.Rows))
	}

	step := g.Step.Duration()
	for i := 1; i < len(g.Index); i++ {
		d := g.Index[i].Sub(g.Index[i-1])
		if d <= 0 || d > step {
			return Regularity{}, &IrregularGridError{Step: g.Step, Before: g.Index[i-1], After: g.Index[i]}
		}
	}
	return Regularity{Step: g.Step, Rows: g.Len(), Start: g.Start(), End: g.End()}, nil
}
