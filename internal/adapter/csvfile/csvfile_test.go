package csvfile

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }

func dailyGrid() domain.Grid {
	return domain.Grid{
		Step:  domain.StepDay,
		Index: []time.Time{day(1), day(2), day(3)},
		Columns: []domain.Column{
			{Name: "Max Temp (°C)", Kind: domain.KindNumber},
			{Name: "Max Temp Flag", Kind: domain.KindText},
		},
		Rows: [][]domain.Value{
			{domain.NumberValue(-2.5), domain.TextValue("E")},
			{domain.Null(domain.KindNumber), domain.Null(domain.KindText)},
			{domain.NumberValue(0.1), domain.TextValue("M")},
		},
	}
}

func testWriter() *Writer {
	return NewWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "date", dailyGrid()))
	assert.Equal(t, "date,Max Temp (°C),Max Temp Flag\n"+
		"2024-01-01,-2.5,E\n"+
		"2024-01-02,,\n"+
		"2024-01-03,0.1,M\n", buf.String())
}

func TestRoundTrip_Daily(t *testing.T) {
	g := dailyGrid()
	var first bytes.Buffer
	require.NoError(t, Encode(&first, "date", g))

	name, got, err := Decode(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "date", name)
	assert.Equal(t, domain.StepDay, got.Step)
	assert.Equal(t, g.Index, got.Index)
	assert.Equal(t, domain.NumberValue(-2.5), got.Rows[0][0])
	assert.False(t, got.Rows[1][0].Valid)
	assert.Equal(t, domain.KindText, got.Columns[1].Kind)

	var second bytes.Buffer
	require.NoError(t, Encode(&second, name, got))
	assert.Equal(t, first.String(), second.String())
}

func TestRoundTrip_Hourly(t *testing.T) {
	at := time.Date(2024, time.March, 10, 6, 0, 0, 0, time.UTC)
	g := domain.Grid{
		Step:    domain.StepHour,
		Index:   []time.Time{at, at.Add(time.Hour)},
		Columns: []domain.Column{{Name: "Temp (°C)", Kind: domain.KindNumber}},
		Rows:    [][]domain.Value{{domain.NumberValue(1)}, {domain.NumberValue(2)}},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "Date/Time", g))
	assert.Contains(t, buf.String(), "2024-03-10T06:00:00Z,1\n")

	_, got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, domain.StepHour, got.Step)
	assert.Equal(t, g.Index, got.Index)
	assert.Equal(t, g.Rows, got.Rows)
}

func TestDecode_Empty(t *testing.T) {
	_, _, err := Decode(strings.NewReader(""))
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestDecode_BadIndex(t *testing.T) {
	_, _, err := Decode(strings.NewReader("date,x\n2024-01-01,1\nnot-a-date,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestWriter_CreatesDirAndNamesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "NSDailyWeatherData")
	g := dailyGrid()
	a := domain.Artifact{
		Station:   "8202251",
		Kind:      domain.Daily,
		Dir:       dir,
		Label:     domain.DateRangeLabel(g),
		IndexName: "date",
		Grid:      g,
	}

	path, err := testWriter().Write(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "8202251_20240101-20240103daily.csv"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestWriter_Overwrites(t *testing.T) {
	dir := t.TempDir()
	g := dailyGrid()
	a := domain.Artifact{Station: "8202251", Kind: domain.Daily, Dir: dir, Label: domain.DateRangeLabel(g), IndexName: "date", Grid: g}
	path := filepath.Join(dir, a.FileName("csv"))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	_, err := testWriter().Write(context.Background(), a)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "date,"))
}

func TestWriter_NoLabel(t *testing.T) {
	_, err := testWriter().Write(context.Background(), domain.Artifact{Station: "1", Dir: t.TempDir()})
	require.Error(t, err)
}

func TestWriteFileAtomic_FillErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	err := WriteFileAtomic(path, func(io.Writer) error { return assert.AnError })
	require.ErrorIs(t, err, assert.AnError)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
