// internal/service/negotiation/interfaces/metrics.go
package interfaces

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var negotiationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "haggle_negotiation_operations_total",
	Help: "Completed negotiation operations by action.",
}, []string{"action"})
