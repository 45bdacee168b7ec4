// Prometheus instrumentation for the aggregation path. Collectors are
// registered on the default registry; cmd/web exposes them via promhttp.

package handlers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zchwyng/musadora/pkg/catalog"
)

var (
	aggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "musadora_aggregation_duration_seconds",
		Help: "Wall time of federated catalog aggregations.",
	}, []string{"kind"})

	aggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musadora_aggregations_total",
		Help: "Aggregation calls by terminal state.",
	}, []string{"kind", "state"})

	storefrontFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musadora_storefront_failures_total",
		Help: "Per-storefront fetch failures observed during aggregation.",
	}, []string{"kind"})
)

func observeAggregation(kind catalog.ItemKind, res catalog.Result, elapsed time.Duration) {
	k := string(kind)
	aggregationDuration.WithLabelValues(k).Observe(elapsed.Seconds())
	aggregationsTotal.WithLabelValues(k, res.State.String()).Inc()
	if n := len(res.Failures); n > 0 {
		storefrontFailures.WithLabelValues(k).Add(float64(n))
	}
}
