package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/climate-station-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir string, g domain.Grid, indexName string) string {
	t.Helper()
	w := csvfile.NewWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	path, err := w.Write(context.Background(), domain.Artifact{
		Station:   "8202251",
		Kind:      domain.Daily,
		Dir:       dir,
		Label:     domain.DateRangeLabel(g),
		IndexName: indexName,
		Grid:      g,
	})
	require.NoError(t, err)
	return path
}

func dayGrid(days ...int) domain.Grid {
	g := domain.Grid{Step: domain.StepDay, Columns: []domain.Column{{Name: "Max Temp (°C)", Kind: domain.KindNumber}}}
	for _, d := range days {
		g.Index = append(g.Index, time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC))
		g.Rows = append(g.Rows, []domain.Value{domain.NumberValue(float64(d))})
	}
	return g
}

func TestRun_ValidDirectory(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, dayGrid(1, 2, 3), "date")

	assert.Equal(t, 0, run(dir, "", false))
	assert.Equal(t, 1, run(dir, "", true), "parquet companion missing")
}

func TestRun_Irregular(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, dayGrid(1, 2, 5), "date")

	assert.Equal(t, 1, run(dir, "", false))
}

func TestRun_EmptyDirectory(t *testing.T) {
	assert.Equal(t, 1, run(t.TempDir(), "", false))
}

func TestValidateNaming(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, dayGrid(1, 2), "date")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("a\n"), 0o644))

	files, err := listCSV(dir, "")
	require.NoError(t, err)
	p, artifacts := validateNaming(dir, files)

	require.Len(t, artifacts, 1)
	assert.Equal(t, "8202251", artifacts[0].station)
	assert.Equal(t, "20240101-20240102", artifacts[0].label)
	assert.Equal(t, domain.Daily, artifacts[0].kind)
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "notes.csv")
}

func TestValidateLabels_Mismatch(t *testing.T) {
	a := artifact{file: "x", label: "20240101-20240109", indexName: "Date/Time", grid: dayGrid(1, 2)}
	p := validateLabels([]artifact{a})
	assert.Len(t, p.errors, 2)
}

func TestListCSV_StationFilter(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"8202251_20240101-20240102daily.csv", "8200100_20240101-20240102daily.csv", ".tmp.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	files, err := listCSV(dir, "8202251")
	require.NoError(t, err)
	assert.Equal(t, []string{"8202251_20240101-20240102daily.csv"}, files)
}
