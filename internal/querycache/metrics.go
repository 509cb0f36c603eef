package querycache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the cache's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	fetches  *prometheus.CounterVec
	hits     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cellhub",
			Subsystem: "cache",
			Name:      "fetches_total",
			Help:      "Upstream fetches by key and result.",
		}, []string{"key", "result"}),
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cellhub",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Requests served from a resolved entry.",
		}, []string{"key"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cellhub",
			Subsystem: "cache",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"key"}),
	}
}

func (m *Metrics) hit(key Key) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(key.String()).Inc()
}

func (m *Metrics) observe(key Key, err error, took time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetches.WithLabelValues(key.String(), result).Inc()
	m.duration.WithLabelValues(key.String()).Observe(took.Seconds())
}
