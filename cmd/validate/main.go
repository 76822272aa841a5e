// Command validate re-reads the artifacts in an output directory and checks
// them: file naming, grid regularity, date range labels, and (optionally)
// the presence of a Parquet companion for every CSV.
//
// Usage:
//
//	go run ./cmd/validate -dir NSDailyWeatherData
//	go run ./cmd/validate -dir NsHourlyWeather -station 8202251 -parquet
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/couchcryptid/climate-station-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/climate-station-etl/internal/domain"
)

// artifactName matches "<station>_<YYYYMMDD>-<YYYYMMDD><kind>.csv".
var artifactName = regexp.MustCompile(`^([A-Za-z0-9]+)_(\d{8}-\d{8})(daily|hourly)\.csv$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// artifact is one CSV file that matched the naming convention and decoded.
type artifact struct {
	file      string
	station   string
	label     string
	kind      domain.DataKind
	indexName string
	grid      domain.Grid
}

func main() {
	dir := flag.String("dir", "", "artifact output directory")
	station := flag.String("station", "", "only check artifacts of this station")
	wantParquet := flag.Bool("parquet", false, "require a .parquet file next to every .csv artifact")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(*dir, *station, *wantParquet))
}

func run(dir, station string, wantParquet bool) int {
	fmt.Println("=== Climate Artifact Validation ===")
	fmt.Println()

	files, err := listCSV(dir, station)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list %s: %v\n", dir, err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no CSV artifacts in %s\n", dir)
		return 1
	}

	naming, artifacts := validateNaming(dir, files)
	phases := []*phase{
		naming,
		validateRegularity(artifacts),
		validateLabels(artifacts),
	}
	if wantParquet {
		phases = append(phases, validateParquet(dir, artifacts))
	}

	allPassed := report(phases)
	fmt.Printf("\nArtifacts: %d CSV files, %d decoded\n", len(files), len(artifacts))
	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func report(phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}
	return allPassed
}

func listCSV(dir, station string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasPrefix(name, ".") {
			continue
		}
		if station != "" && !strings.HasPrefix(name, station+"_") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// ── Phase 1: Naming ──

func validateNaming(dir string, files []string) (*phase, []artifact) {
	p := &phase{name: "Phase 1: Naming and decoding"}
	var out []artifact
	for _, name := range files {
		m := artifactName.FindStringSubmatch(name)
		if m == nil {
			p.errorf("%s: name does not match <station>_<YYYYMMDD-YYYYMMDD><daily|hourly>.csv", name)
			continue
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		indexName, grid, err := csvfile.Decode(f)
		f.Close()
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		out = append(out, artifact{
			file:      name,
			station:   m[1],
			label:     m[2],
			kind:      domain.DataKind(m[3]),
			indexName: indexName,
			grid:      grid,
		})
	}
	return p, out
}

// ── Phase 2: Regularity ──

func validateRegularity(artifacts []artifact) *phase {
	p := &phase{name: "Phase 2: Grid regularity"}
	for _, a := range artifacts {
		reg, err := domain.ValidateGrid(a.grid)
		if err != nil {
			p.errorf("%s: %v", a.file, err)
			continue
		}
		if a.kind == domain.Daily && reg.Step != domain.StepDay {
			p.errorf("%s: daily artifact has %s steps", a.file, reg.Step)
		}
		fmt.Printf("  %s: %s\n", a.file, reg)
	}
	return p
}

// ── Phase 3: Labels ──

func validateLabels(artifacts []artifact) *phase {
	p := &phase{name: "Phase 3: Date range labels and index"}
	for _, a := range artifacts {
		if got := domain.DateRangeLabel(a.grid); got != a.label {
			p.errorf("%s: file label %s but index spans %s", a.file, a.label, got)
		}
		want := domain.HourlySchema.IndexName
		if a.grid.Step == domain.StepDay {
			want = domain.DailySchema.IndexName
		}
		if a.indexName != want {
			p.errorf("%s: index column %q, expected %q for %s steps", a.file, a.indexName, want, a.grid.Step)
		}
		if a.grid.Column(domain.DailySchema.TimestampColumn) >= 0 || a.grid.Column(domain.HourlySchema.TimestampColumn) >= 0 {
			p.errorf("%s: source timestamp column still present", a.file)
		}
	}
	return p
}

// ── Phase 4: Parquet companions ──

func validateParquet(dir string, artifacts []artifact) *phase {
	p := &phase{name: "Phase 4: Parquet companions"}
	for _, a := range artifacts {
		name := strings.TrimSuffix(a.file, ".csv") + ".parquet"
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			p.errorf("%s: %v", a.file, err)
			continue
		}
		if info.Size() == 0 {
			p.errorf("%s: %s is empty", a.file, name)
		}
	}
	return p
}
