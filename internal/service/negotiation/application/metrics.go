// internal/service/negotiation/application/metrics.go
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// sideChannelFailures counts post-commit collaborator failures by channel.
// These are recovered locally; the metric is the only escalation path.
var sideChannelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "haggle_side_channel_failures_total",
	Help: "Best-effort side channel failures after a committed negotiation mutation.",
}, []string{"channel"})
