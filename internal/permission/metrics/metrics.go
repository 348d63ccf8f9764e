// Package metrics holds the ledger's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ledger operations. Denials are labeled with the error code
// so dashboards can separate policy rejections from authorization failures
// and pause refusals.
type Metrics struct {
	Grants       prometheus.Counter
	Revokes      prometheus.Counter
	Delegates    prometheus.Counter
	PolicyChecks *prometheus.CounterVec
	Denials      *prometheus.CounterVec
}

// New creates and registers the ledger counters.
func New() *Metrics {
	return &Metrics{
		Grants: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stow_grants_total",
			Help: "Access grants recorded, including key rotations.",
		}),
		Revokes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stow_revokes_total",
			Help: "Access revocations recorded.",
		}),
		Delegates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stow_delegates_total",
			Help: "Delegate registrations recorded, including re-registrations.",
		}),
		PolicyChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stow_policy_checks_total",
			Help: "Policy evaluations by decision.",
		}, []string{"decision"}),
		Denials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stow_operations_denied_total",
			Help: "Refused mutating operations by error code.",
		}, []string{"code"}),
	}
}

// NewNop returns unregistered counters for tests.
func NewNop() *Metrics {
	return &Metrics{
		Grants: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stow_grants_total",
		}),
		Revokes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stow_revokes_total",
		}),
		Delegates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stow_delegates_total",
		}),
		PolicyChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stow_policy_checks_total",
		}, []string{"decision"}),
		Denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stow_operations_denied_total",
		}, []string{"code"}),
	}
}
