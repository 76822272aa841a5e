package domain

import (
	"fmt"
	"sort"
	"time"
)

// Resolution describes how a local civil time mapped to an instant.
type Resolution uint8

const (
	// Exact: the wall clock occurs exactly once in the zone.
	Exact Resolution = iota
	// ShiftedForward: the wall clock falls in a spring-forward gap and was
	// moved to the first instant after the gap.
	ShiftedForward
	// Ambiguous: the wall clock occurs twice (fall-back overlap) and is left
	// unresolved.
	Ambiguous
)

// Localize interprets the wall-clock fields of civil in loc and returns the
// corresponding UTC instant. The location of civil is ignored.
func Localize(civil time.Time, loc *time.Location) (time.Time, Resolution) {
	wall := time.Date(civil.Year(), civil.Month(), civil.Day(),
		civil.Hour(), civil.Minute(), civil.Second(), civil.Nanosecond(), time.UTC)

	offsets := candidateOffsets(wall, loc)
	var matches []time.Time
	for _, off := range offsets {
		at := wall.Add(-time.Duration(off) * time.Second)
		if sameWallClock(at.In(loc), wall) {
			matches = append(matches, at)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0].UTC(), Exact
	case 0:
		return gapEnd(wall, loc, offsets), ShiftedForward
	default:
		return time.Time{}, Ambiguous
	}
}

// candidateOffsets collects the distinct UTC offsets in effect within a day of
// wall, in ascending order. Zone transitions are never closer than that.
func candidateOffsets(wall time.Time, loc *time.Location) []int {
	seen := map[int]bool{}
	var offs []int
	for _, probe := range []time.Time{wall.Add(-24 * time.Hour), wall, wall.Add(24 * time.Hour)} {
		_, off := probe.In(loc).Zone()
		if !seen[off] {
			seen[off] = true
			offs = append(offs, off)
		}
	}
	sort.Ints(offs)
	return offs
}

// gapEnd finds the transition instant that skips over wall. In a gap the clock
// jumps from the smaller to the larger offset, so the transition lies between
// wall-larger and wall-smaller.
func gapEnd(wall time.Time, loc *time.Location, offs []int) time.Time {
	small, large := offs[0], offs[len(offs)-1]
	lo := wall.Add(-time.Duration(large) * time.Second).Unix()
	hi := wall.Add(-time.Duration(small) * time.Second).Unix()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if _, off := time.Unix(mid, 0).In(loc).Zone(); off == large {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return time.Unix(lo, 0).UTC()
}

func sameWallClock(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() &&
		a.Second() == b.Second() && a.Nanosecond() == b.Nanosecond()
}

// ZoneReport counts rows the normalizer could not map one-to-one.
type ZoneReport struct {
	Shifted    int
	Unresolved int
	// UnresolvedTimes holds the ambiguous local times, in row order.
	UnresolvedTimes []time.Time
}

// NormalizeTimeZone adds (or replaces) column utcCol holding the UTC instant
// of each local civil time in localCol. Spring-forward gap times shift to the
// end of the gap; ambiguous times become missing and are reported.
func NormalizeTimeZone(t Table, localCol, utcCol string, loc *time.Location) (Table, ZoneReport, error) {
	var report ZoneReport
	if loc == nil {
		return Table{}, report, fmt.Errorf("normalize time zone: nil location")
	}
	src := t.Index(localCol)
	if src < 0 {
		return Table{}, report, &SchemaError{Source: t.Source, Column: localCol, Reason: "missing"}
	}

	out := Table{Source: t.Source, Columns: append([]Column(nil), t.Columns...)}
	dst := out.Index(utcCol)
	if dst < 0 {
		dst = len(out.Columns)
		out.Columns = append(out.Columns, Column{Name: utcCol, Kind: KindTime})
	} else {
		out.Columns[dst].Kind = KindTime
	}

	out.Rows = make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		next := make([]Value, len(out.Columns))
		copy(next, row)
		next[dst] = Null(KindTime)

		if local := row[src]; local.Valid && local.Kind == KindTime {
			at, res := Localize(local.Time, loc)
			switch res {
			case Exact:
				next[dst] = TimeValue(at)
			case ShiftedForward:
				next[dst] = TimeValue(at)
				report.Shifted++
			case Ambiguous:
				report.Unresolved++
				report.UnresolvedTimes = append(report.UnresolvedTimes, local.Time)
			}
		}
		out.Rows[r] = next
	}
	return out, report, nil
}
