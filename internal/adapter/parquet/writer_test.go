package parquet

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldName(t *testing.T) {
	tests := map[string]string{
		"Max Temp (°C)":             "max_temp_c",
		"Date/Time":                 "date_time",
		"Spd of Max Gust (km/h)":    "spd_of_max_gust_km_h",
		"Dir of Max Gust (10s deg)": "dir_of_max_gust_10s_deg",
		"°":                         "column",
		"2nd":                       "c_2nd",
		"date":                      "date",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, FieldName(in))
		})
	}
}

func TestSchema(t *testing.T) {
	cols := []domain.Column{
		{Name: "Temp (°C)", Kind: domain.KindNumber},
		{Name: "Temp Flag", Kind: domain.KindText},
		{Name: "Temp [C]", Kind: domain.KindNumber},
	}
	md := Schema("Date/Time", cols, []bool{true, false, true})
	assert.Equal(t, []string{
		"name=date_time, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED",
		"name=temp_c, type=DOUBLE, repetitiontype=OPTIONAL",
		"name=temp_flag, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
		"name=temp_c_2, type=DOUBLE, repetitiontype=OPTIONAL",
	}, md)
}

func TestNumericColumns_TextFallsBack(t *testing.T) {
	g := domain.Grid{
		Columns: []domain.Column{{Name: "a", Kind: domain.KindNumber}, {Name: "b", Kind: domain.KindNumber}},
		Rows: [][]domain.Value{
			{domain.NumberValue(1), domain.TextValue("T")},
			{domain.Null(domain.KindNumber), domain.NumberValue(2)},
		},
	}
	assert.Equal(t, []bool{true, false}, numericColumns(g))
}

func TestNewWriter_Compression(t *testing.T) {
	_, err := NewWriter("zstd-ish", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestWriter_Write(t *testing.T) {
	w, err := NewWriter("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	day := func(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }
	g := domain.Grid{
		Step:  domain.StepDay,
		Index: []time.Time{day(1), day(2)},
		Columns: []domain.Column{
			{Name: "Max Temp (°C)", Kind: domain.KindNumber},
			{Name: "Max Temp Flag", Kind: domain.KindText},
		},
		Rows: [][]domain.Value{
			{domain.NumberValue(-1.5), domain.Null(domain.KindText)},
			{domain.Null(domain.KindNumber), domain.TextValue("M")},
		},
	}
	dir := t.TempDir()
	a := domain.Artifact{Station: "8202251", Kind: domain.Daily, Dir: dir, Label: domain.DateRangeLabel(g), IndexName: "date", Grid: g}

	path, err := w.Write(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "8202251_20240101-20240102daily.parquet"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}
