package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for station runs.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec   // labels: kind={daily,hourly}, outcome={success,error}
	RunDuration *prometheus.HistogramVec // labels: kind

	// Download metrics.
	FilesDownloaded  prometheus.Counter
	FetchErrors      prometheus.Counter
	DownloadDuration prometheus.Histogram
	CircuitOpen      prometheus.Gauge

	// Shaping metrics.
	GridRows             *prometheus.GaugeVec // labels: station, kind
	FilledRows           prometheus.Counter
	UnresolvedTimestamps prometheus.Counter
	ShiftedTimestamps    prometheus.Counter

	ArtifactsWritten *prometheus.CounterVec // labels: sink={csv,parquet,kafka}
	SchedulerRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.FilesDownloaded,
		m.FetchErrors,
		m.DownloadDuration,
		m.CircuitOpen,
		m.GridRows,
		m.FilledRows,
		m.UnresolvedTimestamps,
		m.ShiftedTimestamps,
		m.ArtifactsWritten,
		m.SchedulerRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Station runs by data kind and outcome.",
		}, []string{"kind", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete station run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"kind"}),
		FilesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_downloaded_total",
			Help:      "Station files downloaded and parsed.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Station files that failed to download or parse.",
		}),
		DownloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_download_duration_seconds",
			Help:      "Duration of a single file download and parse.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CircuitOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datamart_circuit_open",
			Help:      "1 while the data mart circuit breaker is open.",
		}),
		GridRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_rows",
			Help:      "Rows in the last grid written for a station.",
		}, []string{"station", "kind"}),
		FilledRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filled_rows_total",
			Help:      "Grid rows materialized as missing because no source row existed.",
		}),
		UnresolvedTimestamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_timestamps_total",
			Help:      "Ambiguous local timestamps left unresolved.",
		}),
		ShiftedTimestamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shifted_timestamps_total",
			Help:      "Non-existent local timestamps shifted forward.",
		}),
		ArtifactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "Artifacts persisted by sink.",
		}, []string{"sink"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while the cron scheduler is active, 0 otherwise.",
		}),
	}
}
