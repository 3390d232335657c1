package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	traces        *prometheus.CounterVec
	traceDuration *prometheus.HistogramVec
	traceSteps    *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	commands      *prometheus.CounterVec
	sessions      prometheus.Gauge
}

// NewMetrics creates and registers the collectors. Go runtime and process
// collectors are included.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		traces: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeflow_traces_total",
				Help: "Total number of traces produced",
			},
			[]string{"language", "strategy", "failed"},
		),
		traceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codeflow_trace_duration_seconds",
				Help:    "Duration of trace computations",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"strategy"},
		),
		traceSteps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codeflow_trace_steps",
				Help:    "Number of steps per trace",
				Buckets: []float64{2, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"strategy"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeflow_trace_cache_lookups_total",
				Help: "Trace cache lookups by result",
			},
			[]string{"result"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeflow_session_commands_total",
				Help: "Playback commands handled by sessions",
			},
			[]string{"command", "rejected"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "codeflow_sessions_active",
			Help: "Number of open playback sessions",
		}),
	}
	m.registry.MustRegister(
		m.traces, m.traceDuration, m.traceSteps, m.cacheLookups, m.commands, m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCache counts one trace cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTraceFinish: func(_ context.Context, e *domain.TraceEvent) {
			m.traces.WithLabelValues(e.Language, e.Strategy, strconv.FormatBool(e.Failed)).Inc()
			m.traceDuration.WithLabelValues(e.Strategy).Observe(e.Duration.Seconds())
			m.traceSteps.WithLabelValues(e.Strategy).Observe(float64(e.Steps))
		},
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			m.commands.WithLabelValues(e.Command, strconv.FormatBool(e.Rejected)).Inc()
		},
		OnSessionOpen: func(string) {
			m.sessions.Inc()
		},
		OnSessionClose: func(string) {
			m.sessions.Dec()
		},
	}
}
