// Package metrics exports site map build and cache metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentic-research/sitemap/internal/sitemap"
)

var _ sitemap.Hooks = (*Metrics)(nil)

// Metrics implements sitemap.Hooks on Prometheus collectors.
type Metrics struct {
	builds        *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	nodes         *prometheus.GaugeVec
	scopeLookups  *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitemap_builds_total",
			Help: "Base tree build attempts by result.",
		}, []string{"sitemap", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitemap_build_duration_seconds",
			Help:    "Time spent building the base tree, including failed attempts.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"sitemap"}),
		nodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sitemap_nodes",
			Help: "Nodes in the published base tree.",
		}, []string{"sitemap"}),
		scopeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitemap_scope_lookups_total",
			Help: "Scoped tree lookups by result (hit or miss).",
		}, []string{"sitemap", "result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitemap_invalidations_total",
			Help: "Cache invalidations.",
		}, []string{"sitemap"}),
	}
	for _, c := range []prometheus.Collector{m.builds, m.duration, m.nodes, m.scopeLookups, m.invalidations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) BuildStarted(string) {}

func (m *Metrics) BuildFinished(name string, elapsed time.Duration, nodes int, err error) {
	m.duration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		m.builds.WithLabelValues(name, "error").Inc()
		return
	}
	m.builds.WithLabelValues(name, "ok").Inc()
	m.nodes.WithLabelValues(name).Set(float64(nodes))
}

func (m *Metrics) ScopeLookup(name string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.scopeLookups.WithLabelValues(name, result).Inc()
}

func (m *Metrics) Invalidated(name string) {
	m.invalidations.WithLabelValues(name).Inc()
	m.nodes.WithLabelValues(name).Set(0)
}
