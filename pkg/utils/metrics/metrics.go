package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "folio"

// Chat outcomes recorded by ObserveChat
const (
	OutcomeAnswered   = "answered"
	OutcomeRefused    = "refused"
	OutcomeEmpty      = "empty"
	OutcomeRoundLimit = "round_limit"
	OutcomeError      = "error"
)

// Metrics holds the Prometheus collectors of the process. All methods are
// safe to call on a nil *Metrics, so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	chatRequests   *prometheus.CounterVec
	modelCalls     prometheus.Counter
	toolCalls      *prometheus.CounterVec
	indexRebuilds  *prometheus.CounterVec
	indexUnits     prometheus.Gauge
	rebuildSeconds prometheus.Histogram
}

// New creates Metrics backed by a dedicated registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome",
		}, []string{"outcome"}),
		modelCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_invocations_total",
			Help:      "Language model invocations",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool name and status",
		}, []string{"tool", "status"}),
		indexRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_rebuilds_total",
			Help:      "Retrieval index rebuilds by status",
		}, []string{"status"}),
		indexUnits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_units",
			Help:      "Retrievable units in the installed index snapshot",
		}),
		rebuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_rebuild_duration_seconds",
			Help:      "Duration of retrieval index rebuilds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	reg.MustRegister(
		m.chatRequests,
		m.modelCalls,
		m.toolCalls,
		m.indexRebuilds,
		m.indexUnits,
		m.rebuildSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveChat(outcome string) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveModelCall() {
	if m == nil {
		return
	}
	m.modelCalls.Inc()
}

func (m *Metrics) ObserveToolCall(tool string, failed bool) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}

func (m *Metrics) ObserveRebuild(units int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.indexRebuilds.WithLabelValues("error").Inc()
		return
	}
	m.indexRebuilds.WithLabelValues("ok").Inc()
	m.indexUnits.Set(float64(units))
	m.rebuildSeconds.Observe(elapsed.Seconds())
}
