package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the session BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	hydrationDuration *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	modalTransitions  *prometheus.CounterVec
	crossTabSignals   prometheus.Counter
	geocodeFailures   prometheus.Counter
	staleResponses    *prometheus.CounterVec
	watchers          prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		hydrationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "session_hydration_duration_seconds",
				Help:    "Duration of profile/area hydration by entity.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		modalTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_modal_transitions_total",
				Help: "Total modal visibility transitions.",
			},
			[]string{"from", "to"},
		),
		crossTabSignals: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "session_cross_tab_signals_total",
				Help: "Total cross-tab store signals observed.",
			},
		),
		geocodeFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "session_geocode_failures_total",
				Help: "Total reverse-geocoding failures (sentinel path).",
			},
		),
		staleResponses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_stale_responses_total",
				Help: "Hydration responses dropped by generation fencing.",
			},
			[]string{"entity"},
		),
		watchers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "session_watchers",
				Help: "Currently connected session watchers.",
			},
		),
	}
}

// RecordHydration records the duration of one hydration fetch.
func (m *Metrics) RecordHydration(entity string, d time.Duration) {
	m.hydrationDuration.WithLabelValues(entity).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordModalTransition records one modal change.
func (m *Metrics) RecordModalTransition(from, to string) {
	m.modalTransitions.WithLabelValues(from, to).Inc()
}

// IncrCrossTabSignal counts one observed cross-tab signal.
func (m *Metrics) IncrCrossTabSignal() {
	m.crossTabSignals.Inc()
}

// IncrGeocodeFailure counts one geocoding failure.
func (m *Metrics) IncrGeocodeFailure() {
	m.geocodeFailures.Inc()
}

// IncrStaleResponse counts one fenced-off stale hydration response.
func (m *Metrics) IncrStaleResponse(entity string) {
	m.staleResponses.WithLabelValues(entity).Inc()
}

// WatcherConnected / WatcherDisconnected track live websocket watchers.
func (m *Metrics) WatcherConnected()    { m.watchers.Inc() }
func (m *Metrics) WatcherDisconnected() { m.watchers.Dec() }

// CrossTabSignalCount returns the current cross-tab signal total. Used by
// tests and the health payload.
func (m *Metrics) CrossTabSignalCount() float64 {
	return getCounterValue(m.crossTabSignals)
}

// CacheHitCount and CacheMissCount return the current totals for one cache.
func (m *Metrics) CacheHitCount(cache string) float64 {
	return getCounterValue(m.cacheHits.WithLabelValues(cache))
}

func (m *Metrics) CacheMissCount(cache string) float64 {
	return getCounterValue(m.cacheMisses.WithLabelValues(cache))
}

// getCounterValue extracts the current float64 value from a Counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
