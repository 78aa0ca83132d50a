// Package metrics exposes Prometheus counters for the fetch pipeline.
package metrics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stock_terminal"

// Metrics holds the Prometheus collectors recorded by the coordinator and
// the HTTP layer.
type Metrics struct {
	CacheLookups  *prometheus.CounterVec // labels: kind, result
	ProviderCalls *prometheus.CounterVec // labels: provider, kind, outcome
	QuotaSkips    *prometheus.CounterVec // labels: provider
	QuotaUsed     *prometheus.GaugeVec   // labels: provider
	HTTPRequests  *prometheus.CounterVec // labels: route, method, status
	HTTPDuration  *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh registry, so tests and multiple instances never collide.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by kind and result (hit, miss, stale, stale_served)",
		}, []string{"kind", "result"}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Provider calls issued, by outcome",
		}, []string{"provider", "kind", "outcome"}),
		QuotaSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_skips_total",
			Help:      "Provider attempts skipped because the rate-limit window was exhausted",
		}, []string{"provider"}),
		QuotaUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_used",
			Help:      "Calls counted in the current rate-limit window",
		}, []string{"provider"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.CacheLookups,
		m.ProviderCalls,
		m.QuotaSkips,
		m.QuotaUsed,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// CacheLookup records one cache lookup.
func (m *Metrics) CacheLookup(kind, result string) {
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}

// ProviderCall records one issued provider call.
func (m *Metrics) ProviderCall(provider, kind, outcome string) {
	m.ProviderCalls.WithLabelValues(provider, kind, outcome).Inc()
}

// QuotaSkip records a provider skipped for quota.
func (m *Metrics) QuotaSkip(provider string) {
	m.QuotaSkips.WithLabelValues(provider).Inc()
}

// SetQuotaUsed publishes the calls counted in the current window.
func (m *Metrics) SetQuotaUsed(provider string, used int) {
	m.QuotaUsed.WithLabelValues(provider).Set(float64(used))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// GinHandler adapts Handler for a gin route.
func (m *Metrics) GinHandler() gin.HandlerFunc {
	return gin.WrapH(m.Handler())
}
