// Package metrics exposes Prometheus instruments for the movement workflow.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Move outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeRace      = "race"
	OutcomeError     = "error"
)

// ActionCustom is the action label for moves whose action is not one of the
// workflow's own.
const ActionCustom = "custom"

var (
	// MovesTotal counts Move attempts by action and outcome.
	MovesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warehouse",
		Name:      "moves_total",
		Help:      "Item move attempts by action and outcome.",
	}, []string{"action", "outcome"})

	// MoveDuration observes the time spent inside the move transaction.
	MoveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "warehouse",
		Name:      "move_duration_seconds",
		Help:      "Duration of committed item moves.",
		Buckets:   prometheus.DefBuckets,
	})

	// AMRDispatchTotal counts robot mission requests by result.
	AMRDispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warehouse",
		Name:      "amr_dispatch_total",
		Help:      "AMR mission dispatch attempts by result.",
	}, []string{"result"})

	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(MovesTotal, MoveDuration, AMRDispatchTotal)
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
