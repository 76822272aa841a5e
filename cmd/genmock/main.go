// Command genmock writes a mock climate bulk-download directory: an HTML
// index page plus Latin-1 station CSV files split by year or month, in the
// same layout the data mart publishes. Serve the directory with any static
// file server and point SOURCE_URL at it.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/daily/NS \
//	  -station 8202251 -kind daily \
//	  -from 2021-01-01 -to 2023-12-31 \
//	  -gaps 3 -duplicates 1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"html/template"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/domain"
	"golang.org/x/text/encoding/charmap"
)

type options struct {
	out          string
	station      string
	otherStation string
	kind         domain.DataKind
	from, to     time.Time
	split        string
	gaps         int
	duplicates   int
	seed         int64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write the listing and CSV files into")
	station := flag.String("station", "8202251", "climate ID of the generated station")
	other := flag.String("other-station", "8200100", "climate ID of a second station whose files must be filtered out (empty to skip)")
	kind := flag.String("kind", "daily", "data kind: daily or hourly")
	from := flag.String("from", "2021-01-01", "first date (YYYY-MM-DD)")
	to := flag.String("to", "2021-12-31", "last date (YYYY-MM-DD)")
	split := flag.String("split", "", "file split: year or month (default: year for daily, month for hourly)")
	gaps := flag.Int("gaps", 0, "number of interior rows to delete")
	dups := flag.Int("duplicates", 0, "number of rows to repeat")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	opts := options{
		out:          *out,
		station:      *station,
		otherStation: *other,
		split:        *split,
		gaps:         *gaps,
		duplicates:   *dups,
		seed:         *seed,
	}
	var err error
	if opts.kind, err = domain.ParseDataKind(*kind); err != nil {
		return err
	}
	if opts.from, err = time.Parse(time.DateOnly, *from); err != nil {
		return fmt.Errorf("parse -from: %w", err)
	}
	if opts.to, err = time.Parse(time.DateOnly, *to); err != nil {
		return fmt.Errorf("parse -to: %w", err)
	}
	if opts.to.Before(opts.from) {
		return fmt.Errorf("-to %s is before -from %s", *to, *from)
	}
	if opts.split == "" {
		opts.split = "year"
		if opts.kind == domain.Hourly {
			opts.split = "month"
		}
	}
	if opts.split != "year" && opts.split != "month" {
		return fmt.Errorf("-split must be year or month, got %q", opts.split)
	}

	files, err := generate(opts)
	if err != nil {
		return err
	}
	log.Printf("wrote %d files to %s", len(files), opts.out)
	return nil
}

// generate writes the station files and the index page, returning the file
// names in listing order.
func generate(opts options) ([]string, error) {
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	schema, err := domain.SchemaFor(opts.kind)
	if err != nil {
		return nil, err
	}
	rng := newRand(opts.seed)

	stations := []string{opts.station}
	if opts.otherStation != "" && opts.otherStation != opts.station {
		stations = append(stations, opts.otherStation)
	}

	var names []string
	for i, station := range stations {
		rows := observations(schema, station, opts.from, opts.to, rng)
		if i == 0 {
			rows = deleteRows(rows, opts.gaps, rng)
			rows = repeatRows(rows, opts.duplicates, rng)
		}
		written, err := writeStationFiles(opts, schema, station, rows)
		if err != nil {
			return nil, err
		}
		log.Printf("station %s: %d rows in %d files", station, len(rows), len(written))
		names = append(names, written...)
	}
	sort.Strings(names)

	if err := writeIndex(filepath.Join(opts.out, "index.html"), opts.out, names); err != nil {
		return nil, err
	}
	return names, nil
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) //nolint:gosec // mock data
}

type row struct {
	at     time.Time
	fields []string
}

// observations builds one row per step between from and the end of to.
func observations(schema domain.Schema, station string, from, to time.Time, rng *rand.Rand) []row {
	end := to.AddDate(0, 0, 1)
	var rows []row
	for at := from; at.Before(end); at = schema.Step.Next(at) {
		fields := make([]string, len(schema.Header))
		for i, col := range schema.Header {
			fields[i] = cell(schema, col, station, at, rng)
		}
		rows = append(rows, row{at: at, fields: fields})
	}
	return rows
}

// cell fabricates a plausible value for one column. Roughly one numeric cell
// in fifty is left empty.
func cell(schema domain.Schema, col, station string, at time.Time, rng *rand.Rand) string {
	season := -math.Cos(2 * math.Pi * float64(at.YearDay()) / 365.25)
	temp := 6 + 12*season + rng.NormFloat64()*3

	switch col {
	case schema.TimestampColumn:
		return at.Format(schema.TimestampLayout)
	case "Longitude (x)":
		return "-63.51"
	case "Latitude (y)":
		return "44.88"
	case "Station Name":
		return "HALIFAX STANFIELD INT'L A"
	case "Climate ID":
		return station
	case "Year":
		return strconv.Itoa(at.Year())
	case "Month":
		return fmt.Sprintf("%02d", int(at.Month()))
	case "Day":
		return fmt.Sprintf("%02d", at.Day())
	case "Time (LST)":
		return at.Format("15:04")
	case "Data Quality":
		return ""
	case "Weather":
		if temp < 0 && rng.Intn(4) == 0 {
			return "Snow"
		}
		return "NA"
	}
	if strings.HasSuffix(col, " Flag") {
		return ""
	}
	if rng.Intn(50) == 0 {
		return ""
	}

	switch {
	case strings.Contains(col, "Temp"):
		return strconv.FormatFloat(math.Round(temp*10)/10, 'f', 1, 64)
	case strings.Contains(col, "Rel Hum"):
		return strconv.Itoa(60 + rng.Intn(40))
	case strings.Contains(col, "Press"):
		return strconv.FormatFloat(100+rng.Float64()*2, 'f', 2, 64)
	case strings.Contains(col, "Dir"):
		return strconv.Itoa(rng.Intn(36) + 1)
	case strings.Contains(col, "Spd"):
		return strconv.Itoa(rng.Intn(60))
	case strings.Contains(col, "Deg Days"):
		return strconv.FormatFloat(math.Max(0, 18-temp), 'f', 1, 64)
	default:
		return strconv.FormatFloat(math.Max(0, rng.NormFloat64()*4), 'f', 1, 64)
	}
}

// deleteRows removes n interior rows so the first and last steps survive.
func deleteRows(rows []row, n int, rng *rand.Rand) []row {
	for ; n > 0 && len(rows) > 2; n-- {
		i := 1 + rng.Intn(len(rows)-2)
		rows = append(rows[:i], rows[i+1:]...)
	}
	return rows
}

// repeatRows inserts a copy of n random rows right after the original.
func repeatRows(rows []row, n int, rng *rand.Rand) []row {
	for ; n > 0 && len(rows) > 0; n-- {
		i := rng.Intn(len(rows))
		dup := row{at: rows[i].at, fields: append([]string(nil), rows[i].fields...)}
		rows = append(rows[:i+1], append([]row{dup}, rows[i+1:]...)...)
	}
	return rows
}

// fileName follows the data mart convention, for example
// climate_daily_NS_8202251_2021_P1D.csv or
// climate_hourly_NS_8202251_03-2021_P1H.csv.
func fileName(kind domain.DataKind, station, split string, at time.Time) string {
	period := strconv.Itoa(at.Year())
	if split == "month" {
		period = at.Format("01-2006")
	}
	freq := "P1D"
	if kind == domain.Hourly {
		freq = "P1H"
	}
	return fmt.Sprintf("climate_%s_NS_%s_%s_%s.csv", kind, station, period, freq)
}

func writeStationFiles(opts options, schema domain.Schema, station string, rows []row) ([]string, error) {
	byFile := map[string][]row{}
	var order []string
	for _, r := range rows {
		name := fileName(opts.kind, station, opts.split, r.at)
		if _, ok := byFile[name]; !ok {
			order = append(order, name)
		}
		byFile[name] = append(byFile[name], r)
	}

	for _, name := range order {
		if err := writeLatin1CSV(filepath.Join(opts.out, name), schema.Header, byFile[name]); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return order, nil
}

func writeLatin1CSV(path string, header []string, rows []row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(charmap.ISO8859_1.NewEncoder().Writer(f))
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.fields); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2 Final//EN">
<html>
 <head>
  <title>Index of {{.Dir}}</title>
 </head>
 <body>
<h1>Index of {{.Dir}}</h1>
<table>
<tr><th><a href="?C=N;O=D">Name</a></th><th><a href="?C=M;O=A">Last modified</a></th><th><a href="?C=S;O=A">Size</a></th></tr>
<tr><td><a href="../">Parent Directory</a></td><td>&nbsp;</td><td align="right">  - </td></tr>
{{range .Files}}<tr><td><a href="{{.}}">{{.}}</a></td></tr>
{{end}}</table>
</body></html>
`))

func writeIndex(path, dir string, names []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer f.Close()

	data := struct {
		Dir   string
		Files []string
	}{Dir: filepath.ToSlash(dir), Files: names}
	if err := indexTmpl.Execute(f, data); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return f.Close()
}
