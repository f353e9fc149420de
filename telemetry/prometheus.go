package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/promptpilot/promptpilot/internal/logging"
)

// PrometheusRecorder exposes recorded points as Prometheus collectors.
// Collectors are created lazily per metric name; a metric must keep the
// same tag keys across emissions or the point is discarded.
type PrometheusRecorder struct {
	registry *prometheus.Registry
	logger   logging.Logger

	mu         sync.Mutex
	gauges     map[string]*prometheus.GaugeVec
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	events     *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder registering on the given
// registry (prometheus.DefaultRegisterer may be wrapped via NewRegistry by
// the caller).
func NewPrometheusRecorder(registry *prometheus.Registry, logger logging.Logger) *PrometheusRecorder {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promptpilot_events_total",
		Help: "Count of engine events by title.",
	}, []string{"title"})
	registry.MustRegister(events)

	return &PrometheusRecorder{
		registry:   registry,
		logger:     logger,
		gauges:     make(map[string]*prometheus.GaugeVec),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		events:     events,
	}
}

// Registry returns the backing registry, for mounting the /metrics handler.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// sanitize converts dotted statsd-style names into Prometheus names.
func sanitize(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func labelKeys(tags Tags) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelValues(keys []string, tags Tags) prometheus.Labels {
	labels := make(prometheus.Labels, len(keys))
	for _, k := range keys {
		labels[k] = tags[k]
	}
	return labels
}

func (r *PrometheusRecorder) Gauge(name string, value float64, tags Tags) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := labelKeys(tags)
	vec, ok := r.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: sanitize(name),
			Help: "Gauge " + name + ".",
		}, keys)
		if err := r.registry.Register(vec); err != nil {
			r.logger.Warn("Failed to register gauge", "name", name, "error", err)
			return
		}
		r.gauges[name] = vec
	}
	r.observe(name, func() { vec.With(labelValues(keys, tags)).Set(value) })
}

func (r *PrometheusRecorder) Count(name string, delta float64, tags Tags) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := labelKeys(tags)
	vec, ok := r.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: sanitize(name) + "_total",
			Help: "Counter " + name + ".",
		}, keys)
		if err := r.registry.Register(vec); err != nil {
			r.logger.Warn("Failed to register counter", "name", name, "error", err)
			return
		}
		r.counters[name] = vec
	}
	r.observe(name, func() { vec.With(labelValues(keys, tags)).Add(delta) })
}

func (r *PrometheusRecorder) Timing(name string, duration time.Duration, tags Tags) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := labelKeys(tags)
	vec, ok := r.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    sanitize(name) + "_ms",
			Help:    "Timing " + name + " in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		}, keys)
		if err := r.registry.Register(vec); err != nil {
			r.logger.Warn("Failed to register histogram", "name", name, "error", err)
			return
		}
		r.histograms[name] = vec
	}
	ms := float64(duration) / float64(time.Millisecond)
	r.observe(name, func() { vec.With(labelValues(keys, tags)).Observe(ms) })
}

func (r *PrometheusRecorder) Event(title, message string, tags Tags) {
	r.events.WithLabelValues(title).Inc()
	r.logger.Info("Engine event", "title", title, "message", message)
}

// observe applies fn, swallowing label-cardinality mismatches so a bad
// point cannot take down emission.
func (r *PrometheusRecorder) observe(name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Inconsistent metric labels, point dropped", "name", name, "panic", rec)
		}
	}()
	fn()
}
