package domain

import (
	"path"
	"sort"
	"strings"
)

// FilterStationFiles returns the CSV names in listing whose base name contains
// station, sorted and deduplicated.
func FilterStationFiles(listing []string, station string) []string {
	if station == "" {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, name := range listing {
		base := path.Base(name)
		if !strings.HasSuffix(strings.ToLower(base), ".csv") || !strings.Contains(base, station) {
			continue
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// DateRangeLabel renders the first and last grid dates as
// "YYYYMMDD-YYYYMMDD". An empty grid has no label.
func DateRangeLabel(g Grid) string {
	if g.Len() == 0 {
		return ""
	}
	const layout = "20060102"
	return g.Start().UTC().Format(layout) + "-" + g.End().UTC().Format(layout)
}

// Artifact is a finished station grid ready to be persisted.
type Artifact struct {
	Station string
	Kind    DataKind
	Dir     string
	Label   string
	// IndexName is the header of the index column.
	IndexName string
	Grid      Grid
}

// FileName returns "<station>_<label><kind>.<ext>".
func (a Artifact) FileName(ext string) string {
	return a.Station + "_" + a.Label + string(a.Kind) + "." + ext
}
