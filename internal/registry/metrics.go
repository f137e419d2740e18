package registry

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	compilations prometheus.Counter
	hits         prometheus.Counter
	misses       prometheus.Counter
}

func newMetrics(identifier string) *metrics {
	labels := prometheus.Labels{"protocol": identifier}
	return &metrics{
		compilations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "aionproto",
			Subsystem:   "registry",
			Name:        "compilations_total",
			Help:        "Packet definitions compiled into codecs.",
			ConstLabels: labels,
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "aionproto",
			Subsystem:   "registry",
			Name:        "cache_hits_total",
			Help:        "Codec lookups served from the cache.",
			ConstLabels: labels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "aionproto",
			Subsystem:   "registry",
			Name:        "cache_misses_total",
			Help:        "Codec lookups that had to compile or wait for a compilation.",
			ConstLabels: labels,
		}),
	}
}

var _ prometheus.Collector = (*Registry)(nil)

func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	r.metrics.compilations.Describe(ch)
	r.metrics.hits.Describe(ch)
	r.metrics.misses.Describe(ch)
}

func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	r.metrics.compilations.Collect(ch)
	r.metrics.hits.Collect(ch)
	r.metrics.misses.Collect(ch)
}
