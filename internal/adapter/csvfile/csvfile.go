// Package csvfile writes station grids as delimited text artifacts and reads
// them back.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/domain"
)

// Writer persists artifacts as "<station>_<label><kind>.csv" in the artifact
// directory. Existing files are replaced atomically: the grid is written to a
// temporary file in the same directory and renamed into place, so a failed
// run never leaves a partial file behind.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a CSV artifact writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "csv" }

// Write encodes the artifact grid and returns the final path.
func (w *Writer) Write(_ context.Context, a domain.Artifact) (string, error) {
	if a.Label == "" {
		return "", fmt.Errorf("write csv: artifact for %s has no date range", a.Station)
	}
	path := filepath.Join(a.Dir, a.FileName("csv"))
	err := WriteFileAtomic(path, func(out io.Writer) error {
		return Encode(out, a.IndexName, a.Grid)
	})
	if err != nil {
		return "", err
	}
	w.logger.Debug("csv artifact written", "path", path, "rows", a.Grid.Len())
	return path, nil
}

// Encode writes a header row (index name, then data columns) followed by one
// record per grid row. Missing values are empty cells.
func Encode(out io.Writer, indexName string, g domain.Grid) error {
	cw := csv.NewWriter(out)

	header := make([]string, 0, len(g.Columns)+1)
	header = append(header, indexName)
	for _, c := range g.Columns {
		header = append(header, c.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(header))
	for i, at := range g.Index {
		rec[0] = g.Step.Format(at)
		for j, v := range g.Rows[i] {
			rec[j+1] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFileAtomic creates the parent directory, writes through fill into a
// temporary sibling and renames it over path.
func WriteFileAtomic(path string, fill func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = fill(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// Decode reads an artifact back into a grid. The step is taken from the index
// format: dates are day steps, RFC 3339 timestamps are hour steps. A column is
// numeric when every present cell parses as a number.
func Decode(in io.Reader) (indexName string, g domain.Grid, err error) {
	records, err := csv.NewReader(in).ReadAll()
	if err != nil {
		return "", domain.Grid{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return "", domain.Grid{}, fmt.Errorf("read csv: %w", domain.ErrNoData)
	}
	header := records[0]
	indexName = header[0]
	rows := records[1:]

	g.Step = domain.StepDay
	if len(rows) > 0 {
		if _, perr := time.Parse(time.DateOnly, rows[0][0]); perr != nil {
			g.Step = domain.StepHour
		}
	}

	g.Columns = make([]domain.Column, len(header)-1)
	for j, name := range header[1:] {
		g.Columns[j] = domain.Column{Name: name, Kind: columnKind(rows, j+1)}
	}

	layout := time.DateOnly
	if g.Step == domain.StepHour {
		layout = time.RFC3339
	}
	for n, rec := range rows {
		at, perr := time.Parse(layout, rec[0])
		if perr != nil {
			return "", domain.Grid{}, fmt.Errorf("line %d: parse index %q: %w", n+2, rec[0], perr)
		}
		g.Index = append(g.Index, at.UTC())

		row := make([]domain.Value, len(g.Columns))
		for j, col := range g.Columns {
			row[j] = decodeCell(rec[j+1], col.Kind)
		}
		g.Rows = append(g.Rows, row)
	}
	return indexName, g, nil
}

func columnKind(rows [][]string, col int) domain.ValueKind {
	for _, rec := range rows {
		if rec[col] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(rec[col], 64); err != nil {
			return domain.KindText
		}
	}
	return domain.KindNumber
}

func decodeCell(cell string, kind domain.ValueKind) domain.Value {
	if cell == "" {
		return domain.Null(kind)
	}
	if kind == domain.KindNumber {
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return domain.NumberValue(f)
		}
	}
	return domain.TextValue(cell)
}
