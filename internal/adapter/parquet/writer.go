// Package parquet writes station grids as Parquet files alongside the CSV
// artifacts.
package parquet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/climate-station-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/climate-station-etl/internal/domain"
)

// Writer implements pipeline.Sink. Numeric columns become optional DOUBLE
// fields; everything else, including the index, is UTF8 text.
type Writer struct {
	compression parquet.CompressionCodec
	logger      *slog.Logger
}

// NewWriter creates a Parquet sink using the named codec (SNAPPY, GZIP or
// NONE). An empty name selects SNAPPY.
func NewWriter(compression string, logger *slog.Logger) (*Writer, error) {
	codec, err := compressionCodec(compression)
	if err != nil {
		return nil, err
	}
	return &Writer{compression: codec, logger: logger}, nil
}

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "", "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "UNCOMPRESSED":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported parquet compression %q", name)
	}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "parquet" }

// Write encodes the artifact grid to "<station>_<label><kind>.parquet".
func (w *Writer) Write(_ context.Context, a domain.Artifact) (string, error) {
	if a.Label == "" {
		return "", fmt.Errorf("write parquet: artifact for %s has no date range", a.Station)
	}
	path := filepath.Join(a.Dir, a.FileName("parquet"))
	err := csvfile.WriteFileAtomic(path, func(out io.Writer) error {
		return w.encode(out, a.IndexName, a.Grid)
	})
	if err != nil {
		return "", fmt.Errorf("write parquet: %w", err)
	}
	w.logger.Debug("parquet artifact written", "path", path, "rows", a.Grid.Len())
	return path, nil
}

func (w *Writer) encode(out io.Writer, indexName string, g domain.Grid) error {
	numeric := numericColumns(g)
	pw, err := writer.NewCSVWriterFromWriter(Schema(indexName, g.Columns, numeric), out, 4)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = w.compression

	for i, at := range g.Index {
		rec := make([]*string, len(g.Columns)+1)
		idx := g.Step.Format(at)
		rec[0] = &idx
		for j, v := range g.Rows[i] {
			if !v.Valid {
				continue
			}
			s := v.String()
			rec[j+1] = &s
		}
		if err := pw.WriteString(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet file: %w", err)
	}
	return nil
}

// Schema returns the CSV-style metadata lines describing the file layout.
// Field names are reduced to lower snake case and deduplicated.
func Schema(indexName string, cols []domain.Column, numeric []bool) []string {
	seen := map[string]int{}
	unique := func(raw string) string {
		name := FieldName(raw)
		seen[name]++
		if n := seen[name]; n > 1 {
			name += "_" + strconv.Itoa(n)
		}
		return name
	}

	md := make([]string, 0, len(cols)+1)
	md = append(md, fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED", unique(indexName)))
	for j, c := range cols {
		if numeric[j] {
			md = append(md, fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", unique(c.Name)))
			continue
		}
		md = append(md, fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", unique(c.Name)))
	}
	return md
}

// FieldName maps a source header such as "Max Temp (°C)" to "max_temp_c".
func FieldName(raw string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(raw) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		name = "column"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "c_" + name
	}
	return name
}

// numericColumns reports, per column, whether every present value is a
// number. Numeric columns with stray text fall back to UTF8.
func numericColumns(g domain.Grid) []bool {
	out := make([]bool, len(g.Columns))
	for j, c := range g.Columns {
		out[j] = c.Kind == domain.KindNumber
	}
	for _, row := range g.Rows {
		for j, v := range row {
			if v.Valid && v.Kind != domain.KindNumber {
				out[j] = false
			}
		}
	}
	return out
}
