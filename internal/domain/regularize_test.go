package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestRegularize_DailyGapBecomesNullRow(t *testing.T) {
	a := mustParse(t, "f1.csv", dailyRecords("2024-01-01", "2024-01-02", "2024-01-03"), DailySchema)
	b := mustParse(t, "f2.csv", dailyRecords("2024-01-04", "2024-01-05", "2024-01-06"), DailySchema)
	c := mustParse(t, "f3.csv", dailyRecords("2024-01-08", "2024-01-09", "2024-01-10"), DailySchema)

	g, report, err := buildDaily(t, RejectDuplicates, c, a, b)
	require.NoError(t, err)

	require.Equal(t, 10, g.Len())
	assert.Equal(t, StepDay, g.Step)
	assert.Equal(t, day(1), g.Start())
	assert.Equal(t, day(10), g.End())
	assert.Equal(t, 1, report.Filled)
	assert.Equal(t, -1, g.Column("Date/Time"), "key column becomes the index")

	gap := g.Rows[6]
	assert.Equal(t, day(7), g.Index[6])
	for i, v := range gap {
		assert.False(t, v.Valid, "column %s on the missing day", g.Columns[i].Name)
	}

	temp := g.Column("Max Temp (°C)")
	assert.Equal(t, NumberValue(0), g.Rows[7][temp], "first row of f3 lands on Jan 8")

	reg, err := ValidateGrid(g)
	require.NoError(t, err)
	assert.Equal(t, 10, reg.Rows)
	assert.Equal(t, "20240101-20240110", DateRangeLabel(g))
}

func TestRegularize_DailyDuplicates(t *testing.T) {
	a := mustParse(t, "f1.csv", dailyRecords("2024-01-14", "2024-01-15"), DailySchema)
	b := mustParse(t, "f2.csv", dailyRecords("2024-01-15", "2024-01-16"), DailySchema)

	t.Run("rejected by default", func(t *testing.T) {
		_, _, err := buildDaily(t, RejectDuplicates, a, b)
		var de *DuplicateTimestampError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, []time.Time{day(15)}, de.Times)
		assert.Contains(t, err.Error(), "2024-01-15")
	})

	t.Run("keep first on request", func(t *testing.T) {
		g, report, err := buildDaily(t, KeepFirst, b, a)
		require.NoError(t, err)
		assert.Equal(t, 3, g.Len())
		assert.Equal(t, 1, report.Duplicates)
		temp := g.Column("Max Temp (°C)")
		assert.Equal(t, NumberValue(1), g.Rows[1][temp], "f1 sorts first, so its Jan 15 row wins")
	})
}

func TestRegularize_HourlySpringForward(t *testing.T) {
	toronto := loadZone(t, "America/Toronto")
	tbl := mustParse(t, "h.csv", hourlyRecords(
		"2024-03-10 00:00", "2024-03-10 01:00", "2024-03-10 02:00",
		"2024-03-10 03:00", "2024-03-10 04:00",
	), HourlySchema)

	norm, zr, err := NormalizeTimeZone(tbl, "Date/Time (LST)", "Date/Time", toronto)
	require.NoError(t, err)
	assert.Equal(t, 1, zr.Shifted)

	pruned, err := Prune(norm, HourlySchema.DropColumns, true)
	require.NoError(t, err)

	g, report, err := Regularize(pruned, "Date/Time", StepHour, KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Duplicates, "shifted 02:00 collides with 03:00")
	assert.Equal(t, 0, report.Filled)

	require.Equal(t, 4, g.Len())
	for i, want := range []int{5, 6, 7, 8} {
		assert.Equal(t, civil(2024, 3, 10, want, 0), g.Index[i])
	}
	temp := g.Column("Temp (°C)")
	assert.Equal(t, NumberValue(2), g.Rows[2][temp], "first row kept at the shifted instant")

	_, err = ValidateGrid(g)
	assert.NoError(t, err)
}

func TestRegularize_HourlyFallBack(t *testing.T) {
	toronto := loadZone(t, "America/Toronto")
	tbl := mustParse(t, "h.csv", hourlyRecords(
		"2024-11-03 00:00", "2024-11-03 01:00", "2024-11-03 02:00", "2024-11-03 03:00",
	), HourlySchema)

	norm, zr, err := NormalizeTimeZone(tbl, "Date/Time (LST)", "Date/Time", toronto)
	require.NoError(t, err)
	require.Equal(t, 1, zr.Unresolved)

	g, report, err := Regularize(norm, "Date/Time", StepHour, KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Unresolved)
	assert.Equal(t, 2, report.Filled)
	assert.Equal(t, civil(2024, 11, 3, 4, 0), g.Start())
	assert.Equal(t, civil(2024, 11, 3, 8, 0), g.End())
	assert.Equal(t, 5, g.Len())

	_, err = ValidateGrid(g)
	assert.NoError(t, err)
}

func TestRegularize_OffGridHourDropped(t *testing.T) {
	tbl := mustParse(t, "h.csv", hourlyRecords(
		"2024-06-01 00:30", "2024-06-01 01:00", "2024-06-01 01:30", "2024-06-01 03:00", "2024-06-01 03:15",
	), HourlySchema)

	g, report, err := Regularize(tbl, "Date/Time (LST)", StepHour, KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, 3, report.OffGrid)
	assert.Equal(t, 1, report.Filled)
	assert.Equal(t, []time.Time{civil(2024, 6, 1, 1, 0), civil(2024, 6, 1, 2, 0), civil(2024, 6, 1, 3, 0)}, g.Index)
}

func TestRegularize_Errors(t *testing.T) {
	t.Run("unsorted", func(t *testing.T) {
		tbl := mustParse(t, "a.csv", dailyRecords("2024-01-02", "2024-01-01"), DailySchema)
		_, _, err := Regularize(tbl, "Date/Time", StepDay, RejectDuplicates)
		assert.ErrorIs(t, err, ErrUnsorted)
	})

	t.Run("missing key column", func(t *testing.T) {
		tbl := mustParse(t, "a.csv", dailyRecords("2024-01-01"), DailySchema)
		_, _, err := Regularize(tbl, "Date/Time (LST)", StepDay, RejectDuplicates)
		var se *SchemaError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("no resolved keys", func(t *testing.T) {
		tbl := Table{
			Columns: []Column{{Name: "Date/Time", Kind: KindTime}, {Name: "Temp (°C)", Kind: KindNumber}},
			Rows:    [][]Value{{Null(KindTime), NumberValue(1)}},
		}
		_, report, err := Regularize(tbl, "Date/Time", StepHour, KeepFirst)
		assert.ErrorIs(t, err, ErrNoData)
		assert.Equal(t, 1, report.Unresolved)
	})
}

// Every source key survives onto the grid with its values, and the grid is
// regular, for any subset of days in a month.
func TestRegularize_PreservesSourceRows(t *testing.T) {
	subsets := [][]int{
		{1},
		{1, 31},
		{2, 3, 5, 8, 13, 21},
		{10, 11, 12, 20, 29, 30},
	}
	for _, days := range subsets {
		t.Run(fmt.Sprint(days), func(t *testing.T) {
			dates := make([]string, len(days))
			for i, d := range days {
				dates[i] = day(d).Format(time.DateOnly)
			}
			g, _, err := buildDaily(t, RejectDuplicates, mustParse(t, "a.csv", dailyRecords(dates...), DailySchema))
			require.NoError(t, err)

			_, err = ValidateGrid(g)
			require.NoError(t, err)
			assert.Equal(t, days[len(days)-1]-days[0]+1, g.Len())

			temp := g.Column("Max Temp (°C)")
			for i, d := range days {
				pos := d - days[0]
				assert.Equal(t, day(d), g.Index[pos])
				assert.Equal(t, NumberValue(float64(i)), g.Rows[pos][temp])
			}
		})
	}
}
