package fanout

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "onechurch_fanout_subscribers",
		Help: "Sessions currently joined, by group kind",
	}, []string{"kind"})

	published = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onechurch_fanout_published_total",
		Help: "Payloads published, by group kind",
	}, []string{"kind"})

	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onechurch_fanout_deliveries_total",
		Help: "Per-session deliveries, by group kind and status",
	}, []string{"kind", "status"})
)

// kindOf labels a group by its prefix so metrics stay low-cardinality.
func kindOf(group string) string {
	if i := strings.IndexByte(group, ':'); i > 0 {
		return group[:i]
	}
	return "other"
}
