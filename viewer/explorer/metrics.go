package explorer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK             = "ok"
	outcomeBadStatus      = "bad_status"
	outcomeTransportError = "transport_error"
	outcomeMalformed      = "malformed"
)

var fetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chainlens_explorer_fetches_total",
		Help: "Explorer API requests by endpoint and outcome.",
	},
	[]string{"endpoint", "outcome"},
)

func observeFetch(endpoint, outcome string) {
	fetchTotal.WithLabelValues(endpoint, outcome).Inc()
}
