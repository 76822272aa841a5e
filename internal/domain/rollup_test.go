package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hourlyGrid builds a complete hourly grid of n rows starting at start with a
// numeric column counting up from 0 and a text column that is only set at
// hour 5 of each day.
func hourlyGrid(start time.Time, n int) Grid {
	g := Grid{Step: StepHour, Columns: []Column{{Name: "Temp (°C)", Kind: KindNumber}, {Name: "Climate ID", Kind: KindText}}}
	for i := 0; i < n; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		id := Null(KindText)
		if at.Hour() == 5 {
			id = TextValue(testStation)
		}
		g.Index = append(g.Index, at)
		g.Rows = append(g.Rows, []Value{NumberValue(float64(i)), id})
	}
	return g
}

func TestRollupDaily_Sample(t *testing.T) {
	start := civil(2024, 1, 1, 5, 0)
	g, err := RollupDaily(hourlyGrid(start, 50), RollupSample)
	require.NoError(t, err)

	assert.Equal(t, StepDay, g.Step)
	assert.Equal(t, []time.Time{start, start.Add(24 * time.Hour), start.Add(48 * time.Hour)}, g.Index)
	assert.Equal(t, NumberValue(24), g.Rows[1][0])

	_, err = ValidateGrid(g)
	assert.NoError(t, err)
	assert.Equal(t, "20240101-20240103", DateRangeLabel(g))
}

func TestRollupDaily_Mean(t *testing.T) {
	g, err := RollupDaily(hourlyGrid(civil(2024, 1, 1, 22, 0), 28), RollupMean)
	require.NoError(t, err)

	require.Equal(t, []time.Time{civil(2024, 1, 1, 0, 0), civil(2024, 1, 2, 0, 0), civil(2024, 1, 3, 0, 0)}, g.Index)
	assert.Equal(t, NumberValue(0.5), g.Rows[0][0], "22h and 23h")
	assert.Equal(t, NumberValue(13.5), g.Rows[1][0], "hours 2 through 25")
	assert.Equal(t, NumberValue(26.5), g.Rows[2][0])

	assert.False(t, g.Rows[0][1].Valid, "no text value that day")
	assert.Equal(t, TextValue(testStation), g.Rows[1][1])
	assert.False(t, g.Rows[2][1].Valid)
}

func TestRollupDaily_MeanSkipsMissing(t *testing.T) {
	g := hourlyGrid(civil(2024, 1, 1, 0, 0), 3)
	g.Rows[1][0] = Null(KindNumber)
	g.Rows[2][0] = TextValue("<31")

	out, err := RollupDaily(g, RollupMean)
	require.NoError(t, err)
	assert.Equal(t, NumberValue(0), out.Rows[0][0])

	g.Rows[0][0] = Null(KindNumber)
	out, err = RollupDaily(g, RollupMean)
	require.NoError(t, err)
	assert.False(t, out.Rows[0][0].Valid, "all-missing day stays missing")
}

func TestRollupDaily_Errors(t *testing.T) {
	_, err := RollupDaily(Grid{Step: StepDay, Index: []time.Time{day(1)}, Rows: [][]Value{{}}}, RollupSample)
	assert.Error(t, err)

	_, err = RollupDaily(Grid{Step: StepHour}, RollupSample)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = RollupDaily(hourlyGrid(day(1), 2), "median")
	assert.Error(t, err)

	same, err := RollupDaily(hourlyGrid(day(1), 2), RollupNone)
	require.NoError(t, err)
	assert.Equal(t, StepHour, same.Step)
}

func TestParseRollupRule(t *testing.T) {
	r, err := ParseRollupRule("")
	require.NoError(t, err)
	assert.Equal(t, RollupNone, r)

	r, err = ParseRollupRule("mean")
	require.NoError(t, err)
	assert.Equal(t, RollupMean, r)

	_, err = ParseRollupRule("max")
	assert.Error(t, err)
}
