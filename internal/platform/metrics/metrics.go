package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. Construct it once
// at startup; methods are nil-safe so wiring stays optional in tests.
type Metrics struct {
	Requests         *prometheus.CounterVec
	ScoreCacheHits   prometheus.Counter
	ScoreCacheMisses prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of method requests by method and status code",
		}, []string{"method", "code"}),
		ScoreCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scoring_score_cache_hits_total",
			Help: "Score computations served from the cache tier",
		}),
		ScoreCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scoring_score_cache_misses_total",
			Help: "Score computations that had to be recomputed",
		}),
	}
}

// ObserveRequest records one handled method request.
func (m *Metrics) ObserveRequest(method string, code int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// ObserveScoreCache records a cache tier hit or miss on the score path.
func (m *Metrics) ObserveScoreCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ScoreCacheHits.Inc()
		return
	}
	m.ScoreCacheMisses.Inc()
}
