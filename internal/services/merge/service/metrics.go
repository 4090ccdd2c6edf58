package service

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"timejar/internal/core/dal"
	perr "timejar/internal/platform/errors"
)

// Metrics are the merge collectors, labeled by outcome, sink and kind
type Metrics struct {
	runs        *prometheus.CounterVec
	rows        *prometheus.CounterVec
	results     *prometheus.CounterVec
	sources     *prometheus.CounterVec
	written     *prometheus.CounterVec
	sinkErrors  *prometheus.CounterVec
	sinkSeconds *prometheus.HistogramVec
	runSeconds  prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// NewMetrics registers the merge collectors on reg.
// Registering twice on the same registry reuses the existing collectors
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timejar",
			Subsystem: "merge",
			Name:      "runs_total",
			Help:      "Merge runs by final status.",
		}, []string{"status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timejar",
			Subsystem: "merge",
			Name:      "rows_total",
			Help:      "Snapshot rows seen, by dedup and order outcome.",
		}, []string{"outcome"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timejar",
			Subsystem: "merge",
			Name:      "results_total",
			Help:      "Pipeline results consumed, by kind.",
		}, []string{"kind"}),
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timejar",
			Subsystem: "merge",
			Name:      "sources_total",
			Help:      "Snapshots processed, by status.",
		}, []string{"status"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timejar",
			Subsystem: "merge",
			Name:      "sink_entries_total",
			Help:      "Entries accepted by each sink.",
		}, []string{"sink"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timejar",
			Subsystem: "merge",
			Name:      "sink_errors_total",
			Help:      "Failed batch writes per sink and error code, counting every attempt.",
		}, []string{"sink", "code"}),
		sinkSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "timejar",
			Subsystem: "merge",
			Name:      "sink_write_seconds",
			Help:      "Time spent writing one batch to a sink.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"sink"}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "timejar",
			Subsystem: "merge",
			Name:      "run_seconds",
			Help:      "Wall time of a merge run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "timejar",
			Subsystem: "merge",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without a fatal error.",
		}),
	}
	m.runs = register(reg, m.runs)
	m.rows = register(reg, m.rows)
	m.results = register(reg, m.results)
	m.sources = register(reg, m.sources)
	m.written = register(reg, m.written)
	m.sinkErrors = register(reg, m.sinkErrors)
	m.sinkSeconds = register(reg, m.sinkSeconds)
	m.runSeconds = register(reg, m.runSeconds)
	m.lastSuccess = register(reg, m.lastSuccess)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// SourceDone implements dal.Observer
func (m *Metrics) SourceDone(s dal.SourceStats) {
	m.sources.WithLabelValues("merged").Inc()
	m.rows.WithLabelValues("unique").Add(float64(s.Unique))
	m.rows.WithLabelValues("duplicate").Add(float64(s.Duplicates))
	m.rows.WithLabelValues("order_error").Add(float64(s.OrderErrors))
	m.rows.WithLabelValues("undated").Add(float64(s.DecodeErrors))
}

func (m *Metrics) result(k dal.Kind) {
	m.results.WithLabelValues(k.String()).Inc()
	if k == dal.KindLoadError {
		m.sources.WithLabelValues("load_error").Inc()
	}
}

func (m *Metrics) sinkWrite(sink string, n int, took time.Duration, err error) {
	m.sinkSeconds.WithLabelValues(sink).Observe(took.Seconds())
	if err != nil {
		m.sinkErrors.WithLabelValues(sink, perr.CodeOf(err).String()).Inc()
		return
	}
	m.written.WithLabelValues(sink).Add(float64(n))
}

func (m *Metrics) runDone(status string, took time.Duration, fatal bool, at time.Time) {
	m.runs.WithLabelValues(status).Inc()
	m.runSeconds.Observe(took.Seconds())
	if !fatal {
		m.lastSuccess.Set(float64(at.Unix()))
	}
}
