package pipeline

import (
	"fmt"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/config"
	"github.com/couchcryptid/climate-station-etl/internal/domain"
)

// ShapeReport collects the counts shaping produced without failing.
type ShapeReport struct {
	Rows int // merged source rows
	Zone domain.ZoneReport
	Grid domain.RegularizeReport
	// HourlyRegularity is set when an hourly grid was checked before rollup.
	HourlyRegularity *domain.Regularity
}

// Shape turns a station's downloaded tables into its output grid: merge,
// normalize to UTC (hourly only), prune, regularize and optionally roll up.
// The grid is not yet validated.
func Shape(tables []domain.Table, job config.Job, schema domain.Schema, loc *time.Location) (domain.Grid, ShapeReport, error) {
	var report ShapeReport

	merged, err := domain.Merge(tables, schema.TimestampColumn)
	if err != nil {
		return domain.Grid{}, report, err
	}
	report.Rows = merged.Len()

	if schema.Local() {
		merged, report.Zone, err = domain.NormalizeTimeZone(merged, schema.TimestampColumn, schema.KeyColumn, loc)
		if err != nil {
			return domain.Grid{}, report, err
		}
	}

	pruned, err := domain.Prune(merged, schema.DropColumns, true)
	if err != nil {
		return domain.Grid{}, report, err
	}

	policy := domain.RejectDuplicates
	if job.AllowDuplicates || schema.Kind == domain.Hourly {
		policy = domain.KeepFirst
	}
	grid, gridReport, err := domain.Regularize(pruned, schema.KeyColumn, schema.Step, policy)
	report.Grid = gridReport
	if err != nil {
		return domain.Grid{}, report, err
	}

	if schema.Kind != domain.Hourly || job.Rollup == domain.RollupNone || job.Rollup == "" {
		return grid, report, nil
	}

	reg, err := domain.ValidateGrid(grid)
	if err != nil {
		return domain.Grid{}, report, fmt.Errorf("hourly grid before rollup: %w", err)
	}
	report.HourlyRegularity = &reg

	daily, err := domain.RollupDaily(grid, job.Rollup)
	if err != nil {
		return domain.Grid{}, report, err
	}
	return daily, report, nil
}
