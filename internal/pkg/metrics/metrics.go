// Package metrics defines and registers all custom Prometheus metrics for the
// taskhub services. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init via promauto and exposed on /actuator/prometheus by every binary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskhub"

// ── Edge filter ──────────────────────────────────────────────────────────────

// AuthDecisionsTotal counts edge filter outcomes.
// Labels:
//   - service: the binary applying the filter ("gateway", "identity", "tasks")
//   - decision: "allowlisted", "forward" or "reject"
var AuthDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_decisions_total",
		Help:      "Total number of edge filter decisions, by service and decision.",
	},
	[]string{"service", "decision"},
)

// ── Identity resolution ──────────────────────────────────────────────────────

// ResolutionsTotal counts identity resolver outcomes.
// Label:
//   - result: "ok", "invalid_credential", "not_found" or "unavailable"
var ResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_resolutions_total",
		Help:      "Total number of identity resolutions, by result.",
	},
	[]string{"result"},
)

// IdentityLookupDuration measures the outbound call to the identity service.
// Label:
//   - result: "ok", "not_found" or "unavailable"
var IdentityLookupDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "identity_lookup_duration_seconds",
		Help:      "Duration of identity service lookups performed during resolution.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Authentication endpoint ──────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "created", "conflict" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// ── Tasks ────────────────────────────────────────────────────────────────────

// TasksCreatedTotal counts task creations.
// Label:
//   - replayed: "true" when served from the idempotency store
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of task create requests served, by idempotent replay.",
	},
	[]string{"replayed"},
)
