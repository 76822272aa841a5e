package domain

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

const testStation = "8202251"

// dailyRecords builds a full daily CSV (header first) with one row per date.
// "Max Temp (°C)" carries the row's position so tests can trace rows.
func dailyRecords(dates ...string) [][]string {
	return stationRecords(DailySchema, "Max Temp (°C)", dates)
}

// hourlyRecords builds a full hourly CSV with one row per LST timestamp.
// "Temp (°C)" carries the row's position.
func hourlyRecords(times ...string) [][]string {
	return stationRecords(HourlySchema, "Temp (°C)", times)
}

func stationRecords(s Schema, traceCol string, stamps []string) [][]string {
	recs := [][]string{s.Header}
	for i, stamp := range stamps {
		row := make([]string, len(s.Header))
		for j, name := range s.Header {
			switch name {
			case "Station Name":
				row[j] = "HALIFAX STANFIELD INT'L A"
			case "Climate ID":
				row[j] = testStation
			case s.TimestampColumn:
				row[j] = stamp
			case traceCol:
				row[j] = strconv.Itoa(i)
			}
		}
		recs = append(recs, row)
	}
	return recs
}

func mustParse(t *testing.T, source string, recs [][]string, s Schema) Table {
	t.Helper()
	tbl, err := ParseTable(source, recs, s)
	require.NoError(t, err)
	return tbl
}

// buildDaily runs merge, prune and regularize the way a daily station run does.
func buildDaily(t *testing.T, policy DuplicatePolicy, tables ...Table) (Grid, RegularizeReport, error) {
	t.Helper()
	merged, err := Merge(tables, DailySchema.TimestampColumn)
	require.NoError(t, err)
	pruned, err := Prune(merged, DailySchema.DropColumns, true)
	require.NoError(t, err)
	return Regularize(pruned, DailySchema.KeyColumn, StepDay, policy)
}
