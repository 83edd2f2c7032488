package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forecast_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the collector.
type Metrics struct {
	Runs             *prometheus.CounterVec // labels: outcome={saved,nothing_to_save,transfer_failed,parse_failed,write_failed}
	LastSuccess      prometheus.Gauge
	SchedulerRunning prometheus.Gauge

	// Fetch metrics.
	FetchBytes    prometheus.Gauge
	FetchDuration prometheus.Histogram

	// Extraction metrics.
	SectionsRendered *prometheus.CounterVec // labels: source={issue_time,synoptic,warnings,period}
	TimestampErrors  prometheus.Counter

	PublishErrors prometheus.Counter
}

// NewMetrics creates and registers all collector metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Runs,
		m.LastSuccess,
		m.SchedulerRunning,
		m.FetchBytes,
		m.FetchDuration,
		m.SectionsRendered,
		m.TimestampErrors,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// WriteTextfile writes the default registry in the node_exporter textfile
// collector format. One-shot runs use it instead of an HTTP endpoint.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that saved a forecast excerpt.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while the scheduled loop is active, 0 otherwise.",
		}),
		FetchBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetch_bytes",
			Help:      "Size of the last downloaded bulletin.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a successful bulletin download.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SectionsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sections_rendered_total",
			Help:      "Excerpt sections that produced content, by source.",
		}, []string{"source"}),
		TimestampErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timestamp_errors_total",
			Help:      "Bulletin timestamps skipped because they could not be parsed.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Excerpts that could not be re-published.",
		}),
	}
}
