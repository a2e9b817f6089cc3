// Package metrics defines and registers the custom Prometheus metrics for the
// operations dashboard. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opsdesk"

// ── Authentication ────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts by outcome.
// Label:
//   - outcome: "success", "failed" or "throttled"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ThrottledSources tracks how many source addresses the login throttle holds.
var ThrottledSources = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "login_throttle_sources",
		Help:      "Number of source addresses currently tracked by the login throttle.",
	},
)

// AccessDeniedTotal counts requests rejected by a role requirement.
// Label:
//   - reason: "unauthenticated" or "insufficient_role"
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests rejected by a role requirement.",
	},
	[]string{"reason"},
)

// ── Audit trail ───────────────────────────────────────────────────────────────

// AuditEntriesTotal counts audit entries handed to the sink successfully.
var AuditEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_entries_total",
		Help:      "Total number of audit entries written, by action.",
	},
	[]string{"action"},
)

// AuditWriteFailuresTotal counts audit entries that could not be written.
// These failures never reach the caller.
var AuditWriteFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_failures_total",
		Help:      "Total number of audit entries lost to write failures, by action.",
	},
	[]string{"action"},
)

// AuditQueueDepth tracks entries waiting in the asynchronous audit queue.
var AuditQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries waiting to be written.",
	},
)

// AuditDroppedTotal counts entries dropped because the queue was full or closed.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit entries dropped before reaching the store.",
	},
)

// ── Deliveries ────────────────────────────────────────────────────────────────

// DeliveriesCreatedTotal counts newly created deliveries.
// Label:
//   - role: role of the creating principal
var DeliveriesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deliveries_created_total",
		Help:      "Total number of deliveries created, by creator role.",
	},
	[]string{"role"},
)

// DisplayIDCollisionsTotal counts probes that found the candidate display id taken.
var DisplayIDCollisionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "display_id_collisions_total",
		Help:      "Total number of display id candidates found already taken.",
	},
)

// DisplayIDFallbacksTotal counts allocations that ran out of probes.
var DisplayIDFallbacksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "display_id_fallbacks_total",
		Help:      "Total number of display ids produced by the timestamp fallback.",
	},
)
