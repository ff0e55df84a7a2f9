// Package metrics holds the Prometheus instruments used across the gateway.
// All collectors are registered with the global registry, so mounting
// Handler() on /metrics is enough to expose them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BuildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_build_info",
			Help: "Always 1; labels carry the version and environment.",
		}, []string{"version", "environment"})

	ConfigResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_config_resolutions_total",
			Help: "Configuration resolutions by result (ok, invalid).",
		}, []string{"result"})

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_http_requests_in_flight",
			Help: "Requests currently being served.",
		})

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Requests served, by method and status code.",
		}, []string{"method", "code"})

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Request latency, by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"})

	DependencyUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_dependency_up",
			Help: "1 when the last health probe of a dependency succeeded.",
		}, []string{"dependency"})
)

func init() {
	prometheus.MustRegister(
		BuildInfo,
		ConfigResolutions,
		RequestsInFlight,
		RequestsTotal,
		RequestDuration,
		DependencyUp,
	)
}

// Instrument wraps next with the in-flight, counter, and duration
// collectors.
func Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(RequestsInFlight,
		promhttp.InstrumentHandlerDuration(RequestDuration,
			promhttp.InstrumentHandlerCounter(RequestsTotal, next)))
}

// Handler serves the global registry.
func Handler() http.Handler { return promhttp.Handler() }

// SetBuildInfo publishes the running version.
func SetBuildInfo(version, environment string) {
	BuildInfo.WithLabelValues(version, environment).Set(1)
}

// ObserveConfig counts one resolution attempt.
func ObserveConfig(err error) {
	result := "ok"
	if err != nil {
		result = "invalid"
	}
	ConfigResolutions.WithLabelValues(result).Inc()
}

// SetDependency records a health probe result.
func SetDependency(name string, up bool) {
	DependencyUp.WithLabelValues(name).Set(float64(boolToInt(up)))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
