package binding

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks binding results. A nil *Metrics is valid and records nothing.
type Metrics struct {
	binds     *prometheus.CounterVec
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	teardowns prometheus.Counter
	live      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		binds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bindcore",
				Name:      "binds_total",
				Help:      "Number of bind attempts by outcome",
			},
			[]string{"outcome"},
		),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bindcore",
			Name:      "cache_hits_total",
			Help:      "Number of cache lookups served by a live result",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bindcore",
			Name:      "cache_misses_total",
			Help:      "Number of cache lookups that had to bind",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bindcore",
			Name:      "cache_evictions_total",
			Help:      "Number of cache references released by eviction, removal or close",
		}),
		teardowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bindcore",
			Name:      "teardowns_total",
			Help:      "Number of binding results destroyed",
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bindcore",
			Name:      "live_results",
			Help:      "Number of binding results not yet destroyed",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.binds, m.hits, m.misses, m.evictions, m.teardowns, m.live)
	}
	return m
}

func (m *Metrics) bound(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.binds.WithLabelValues("error").Inc()
		return
	}
	m.binds.WithLabelValues("ok").Inc()
	m.live.Inc()
}

func (m *Metrics) tornDown() {
	if m == nil {
		return
	}
	m.teardowns.Inc()
	m.live.Dec()
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) evicted() {
	if m != nil {
		m.evictions.Inc()
	}
}
