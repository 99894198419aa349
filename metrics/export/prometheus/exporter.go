package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcore "github.com/halcyonlabs/authcore"
)

// metricsSource is the slice of the engine the exporter reads.
type metricsSource interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
}

type counterDef struct {
	id   authcore.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{authcore.MetricSessionCreated, "authcore_sessions_created_total", "Sessions created on login or registration."},
	{authcore.MetricSessionInvalidated, "authcore_sessions_invalidated_total", "Sessions evicted for expiry, inactivity, or corruption."},
	{authcore.MetricSessionExtended, "authcore_sessions_extended_total", "Explicit session deadline extensions."},
	{authcore.MetricRefreshSuccess, "authcore_refresh_success_total", "Refreshes that produced a usable credential."},
	{authcore.MetricRefreshFailure, "authcore_refresh_failure_total", "Refreshes that settled in failure."},
	{authcore.MetricRefreshShared, "authcore_refresh_shared_total", "Callers that joined an in-flight refresh."},
	{authcore.MetricStorageFallback, "authcore_storage_fallback_total", "Storage calls served from the memory tier after a backend failure."},
	{authcore.MetricLogout, "authcore_logouts_total", "Explicit logouts."},
}

// Histogram bucket upper bounds in seconds, matching the engine's
// internal millisecond buckets.
var latencyBounds = []float64{0.005, 0.010, 0.025, 0.050, 0.100, 0.250, 0.500}

// Exporter implements prometheus.Collector over the engine's metrics
// snapshot.
type Exporter struct {
	source      metricsSource
	descs       map[authcore.MetricID]*prometheus.Desc
	droppedDesc *prometheus.Desc
	latencyDesc *prometheus.Desc
}

// NewExporter creates a collector reading from the given [authcore.Engine].
func NewExporter(engine *authcore.Engine) *Exporter {
	return NewExporterFromSource(engine)
}

// NewExporterFromSource creates a collector from a custom metrics source.
func NewExporterFromSource(source metricsSource) *Exporter {
	descs := make(map[authcore.MetricID]*prometheus.Desc, len(counterDefs))
	for _, def := range counterDefs {
		descs[def.id] = prometheus.NewDesc(def.name, def.help, nil, nil)
	}
	return &Exporter{
		source: source,
		descs:  descs,
		droppedDesc: prometheus.NewDesc("authcore_audit_dropped_total",
			"Audit events dropped due to dispatcher backpressure.", nil, nil),
		latencyDesc: prometheus.NewDesc("authcore_session_read_seconds",
			"Session read latency.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range counterDefs {
		ch <- e.descs[def.id]
	}
	ch <- e.droppedDesc
	ch <- e.latencyDesc
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e == nil || e.source == nil {
		return
	}

	snapshot := e.source.MetricsSnapshot()
	for _, def := range counterDefs {
		ch <- prometheus.MustNewConstMetric(
			e.descs[def.id], prometheus.CounterValue, float64(snapshot.Counters[def.id]))
	}
	ch <- prometheus.MustNewConstMetric(
		e.droppedDesc, prometheus.CounterValue, float64(e.source.AuditDropped()))

	if raw, ok := snapshot.Histograms[authcore.MetricSessionReadLatency]; ok && len(raw) == len(latencyBounds)+1 {
		buckets := make(map[float64]uint64, len(latencyBounds))
		var count uint64
		var sum float64
		cumulative := uint64(0)
		for i, bound := range latencyBounds {
			cumulative += raw[i]
			buckets[bound] = cumulative
			// Midpoint estimate: the engine records bucket counts only.
			sum += float64(raw[i]) * bound / 2
		}
		count = cumulative + raw[len(raw)-1]
		sum += float64(raw[len(raw)-1]) * latencyBounds[len(latencyBounds)-1]
		ch <- prometheus.MustNewConstHistogram(e.latencyDesc, count, sum, buckets)
	}
}

// Handler returns an http.Handler serving the exporter from a dedicated
// registry.
func (e *Exporter) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(e)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
