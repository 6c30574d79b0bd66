// Package metrics defines the custom Prometheus metrics of the clinic
// records API. Request-level metrics come from the echoprometheus middleware;
// these cover authentication, authorization and record writes.
//
// All metrics register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic"

// ── Authentication ────────────────────────────────────────────────────────────

// LoginsTotal counts login and refresh attempts.
// Labels:
//   - kind: "admin" or "doctor"
//   - result: "success", "invalid_credentials", "invalid_token", "busy" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login and refresh attempts, by principal kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Authorization ─────────────────────────────────────────────────────────────

// AuthorizationFailuresTotal counts rejected privileged requests.
// Label:
//   - reason: "invalid_token", "session_not_found" or "access_denied"
var AuthorizationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_failures_total",
		Help:      "Total number of requests rejected by token, session or role checks.",
	},
	[]string{"reason"},
)

// ── Records ───────────────────────────────────────────────────────────────────

// RecordsWrittenTotal counts successful medical record mutations.
// Label:
//   - op: "create", "update" or "delete"
var RecordsWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_written_total",
		Help:      "Total number of medical record writes, by operation.",
	},
	[]string{"op"},
)

// DecryptionFailuresTotal counts sensitive fields that could not be decrypted.
var DecryptionFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decryption_failures_total",
		Help:      "Total number of reads that hit an undecryptable sensitive field.",
	},
)

// ── Audit ─────────────────────────────────────────────────────────────────────

// AuditDroppedTotal counts audit events discarded because the persistence
// queue was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events not persisted because the queue was full.",
	},
)

// RegisterAuditQueueDepth exposes the number of audit events waiting for
// persistence. Call it once, after the sink is built.
func RegisterAuditQueueDepth(pending func() int) prometheus.GaugeFunc {
	return promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_queue_depth",
			Help:      "Number of audit events queued but not yet persisted.",
		},
		func() float64 { return float64(pending()) },
	)
}
