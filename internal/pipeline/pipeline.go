package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/config"
	"github.com/couchcryptid/climate-station-etl/internal/domain"
	"github.com/couchcryptid/climate-station-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Lister returns the names published in a bulk-download directory.
type Lister interface {
	List(ctx context.Context, dirURL string) ([]string, error)
}

// Fetcher downloads one station file and parses it against a schema.
type Fetcher interface {
	Fetch(ctx context.Context, fileURL string, schema domain.Schema) (domain.Table, error)
}

// Sink persists a finished artifact and returns where it went.
type Sink interface {
	Name() string
	Write(ctx context.Context, a domain.Artifact) (string, error)
}

// Recorder keeps a history of run outcomes.
type Recorder interface {
	Record(ctx context.Context, res Result, runErr error) error
}

// Result describes one station run. Fields past the failing stage are zero.
type Result struct {
	RunID      string
	Station    string
	Kind       domain.DataKind
	Files      int
	SourceRows int
	Label      string
	Paths      []string
	Regularity domain.Regularity
	Unresolved int
	Shifted    int
	Filled     int
	StartedAt  time.Time
	Duration   time.Duration
}

// Runner executes station jobs end to end.
type Runner struct {
	lister        Lister
	fetcher       Fetcher
	sinks         []Sink
	recorder      Recorder
	tracker       *Tracker
	logger        *slog.Logger
	metrics       *observability.Metrics
	maxConcurrent int
	ready         atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxConcurrent bounds in-flight downloads per run.
func WithMaxConcurrent(n int) Option {
	return func(r *Runner) { r.maxConcurrent = n }
}

// WithRecorder records every run outcome.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithTracker publishes the latest outcome per station.
func WithTracker(t *Tracker) Option {
	return func(r *Runner) { r.tracker = t }
}

// New creates a Runner with the given stages and observability.
func New(l Lister, f Fetcher, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Runner {
	r := &Runner{
		lister:        l,
		fetcher:       f,
		sinks:         sinks,
		logger:        logger,
		metrics:       metrics,
		maxConcurrent: DefaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CheckReadiness returns nil once at least one station run has succeeded.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no station run has completed yet")
	}
	return nil
}

// RunAll runs jobs one station at a time. A failed job does not stop the
// others; all failures are returned together. Cancellation stops before the
// next job.
func (r *Runner) RunAll(ctx context.Context, jobs []config.Job) error {
	var errs *multierror.Error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		if _, err := r.Run(ctx, job); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Run executes one station job: list, filter, download, shape, validate,
// label and write to every sink. Any error aborts the run.
func (r *Runner) Run(ctx context.Context, job config.Job) (Result, error) {
	res := Result{
		RunID:     uuid.NewString(),
		Station:   job.Station,
		Kind:      job.Kind,
		StartedAt: clock.Now(),
	}
	log := r.logger.With("run_id", res.RunID, "station", job.Station, "kind", job.Kind)
	log.Info("station run started", "source", job.SourceURL, "output_dir", job.OutputDir)

	err := r.run(ctx, job, &res, log)
	res.Duration = clock.Since(res.StartedAt)

	outcome := "success"
	if err != nil {
		outcome = "error"
		log.Error("station run failed", "error", err, "duration", res.Duration)
	} else {
		r.ready.Store(true)
		log.Info("station run complete", "rows", res.Regularity.Rows, "label", res.Label, "duration", res.Duration)
	}
	r.metrics.RunsTotal.WithLabelValues(string(job.Kind), outcome).Inc()
	r.metrics.RunDuration.WithLabelValues(string(job.Kind)).Observe(res.Duration.Seconds())

	if r.tracker != nil {
		r.tracker.Observe(res, err)
	}
	if r.recorder != nil {
		if recErr := r.recorder.Record(ctx, res, err); recErr != nil {
			log.Warn("record run failed", "error", recErr)
		}
	}

	if err != nil {
		return res, fmt.Errorf("station %s: %w", job, err)
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, job config.Job, res *Result, log *slog.Logger) error {
	schema, err := domain.SchemaFor(job.Kind)
	if err != nil {
		return err
	}
	loc := time.UTC
	if schema.Local() {
		if loc, err = job.Location(); err != nil {
			return err
		}
	}

	listing, err := r.lister.List(ctx, job.SourceURL)
	if err != nil {
		return err
	}
	files := domain.FilterStationFiles(listing, job.Station)
	if len(files) == 0 {
		return &domain.NoMatchingFilesError{Station: job.Station, URL: job.SourceURL}
	}
	res.Files = len(files)
	log.Info("station files found", "files", len(files), "listed", len(listing))

	tables, err := Download(ctx, r.fetcher, job.SourceURL, files, schema, r.maxConcurrent, log, r.metrics)
	if err != nil {
		return err
	}
	log.Info("station files downloaded", "tables", len(tables))

	grid, report, err := Shape(tables, job, schema, loc)
	res.SourceRows = report.Rows
	res.Unresolved = report.Zone.Unresolved
	res.Shifted = report.Zone.Shifted
	res.Filled = report.Grid.Filled
	r.observeShape(log, report)
	if err != nil {
		return err
	}

	reg, err := domain.ValidateGrid(grid)
	if err != nil {
		return err
	}
	res.Regularity = reg
	log.Info("dates are regularly spaced", "step", reg.Step, "rows", reg.Rows,
		"start", reg.Step.Format(reg.Start), "end", reg.Step.Format(reg.End))

	artifact := domain.Artifact{
		Station:   job.Station,
		Kind:      job.Kind,
		Dir:       job.OutputDir,
		Label:     domain.DateRangeLabel(grid),
		IndexName: indexName(grid, schema),
		Grid:      grid,
	}
	res.Label = artifact.Label

	for _, sink := range r.sinks {
		where, err := sink.Write(ctx, artifact)
		if err != nil {
			return fmt.Errorf("write %s artifact: %w", sink.Name(), err)
		}
		res.Paths = append(res.Paths, where)
		r.metrics.ArtifactsWritten.WithLabelValues(sink.Name()).Inc()
		log.Info("artifact written", "sink", sink.Name(), "location", where)
	}
	r.metrics.GridRows.WithLabelValues(job.Station, string(job.Kind)).Set(float64(grid.Len()))
	return nil
}

func (r *Runner) observeShape(log *slog.Logger, report ShapeReport) {
	r.metrics.ShiftedTimestamps.Add(float64(report.Zone.Shifted))
	r.metrics.UnresolvedTimestamps.Add(float64(report.Zone.Unresolved))
	r.metrics.FilledRows.Add(float64(report.Grid.Filled))

	if n := report.Zone.Shifted; n > 0 {
		log.Info("non-existent local times shifted forward", "count", n)
	}
	if n := report.Zone.Unresolved; n > 0 {
		log.Warn("ambiguous local times left missing", "count", n, "first", report.Zone.UnresolvedTimes[0].Format("2006-01-02 15:04"))
	}
	if n := report.Grid.Duplicates; n > 0 {
		log.Warn("duplicate timestamps dropped, first kept", "count", n)
	}
	if n := report.Grid.OffGrid; n > 0 {
		log.Warn("rows off the grid dropped", "count", n)
	}
	if n := report.Grid.Filled; n > 0 {
		log.Info("missing steps filled with empty rows", "count", n)
	}
	if reg := report.HourlyRegularity; reg != nil {
		log.Info("hourly grid regular before rollup", "regularity", reg.String())
	}
}

// indexName is "date" for any day-step grid, including hourly rollups.
func indexName(g domain.Grid, schema domain.Schema) string {
	if g.Step == domain.StepDay {
		return domain.DailySchema.IndexName
	}
	return schema.IndexName
}
