// Package metrics defines and registers all custom Prometheus metrics for the
// freelance manager API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "freelance"

// ── Record metrics ────────────────────────────────────────────────────────────

// RecordWritesTotal counts mutations through the record access modules.
// Labels:
//   - kind: "project", "employee" or "revenue"
//   - op: "create", "update" or "delete"
//   - result: "ok" or "error"
var RecordWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_writes_total",
		Help:      "Total number of record mutations, by kind, operation and result.",
	},
	[]string{"kind", "op", "result"},
)

// ── Migration metrics ─────────────────────────────────────────────────────────

// MigrationsTotal counts legacy migration runs.
// Label:
//   - result: "ok", "noop" or "error"
var MigrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migrations_total",
		Help:      "Total number of legacy data migrations, by result.",
	},
	[]string{"result"},
)

// MigratedRecordsTotal counts legacy projects moved into the store.
var MigratedRecordsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migrated_records_total",
		Help:      "Total number of legacy projects migrated.",
	},
)

// ── Bus metrics ───────────────────────────────────────────────────────────────

// BusPublishedTotal counts update notifications delivered to the local bus.
// Labels:
//   - event: the bus event name (e.g. "project-updated")
//   - origin: "local" or "remote"
var BusPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bus_published_total",
		Help:      "Total number of update notifications published, by event and origin.",
	},
	[]string{"event", "origin"},
)

// BusQueueDepth tracks the notifications waiting in each dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var BusQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bus_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// BusDispatchDuration measures how long one publish takes to run every handler.
var BusDispatchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bus_dispatch_duration_seconds",
		Help:      "Duration of a single publish, from dequeue until all handlers returned.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"event"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts sign-in, sign-up and sign-out attempts.
// Labels:
//   - method: "password", "federated", "signup" or "logout"
//   - result: "ok" or the AuthError kind (e.g. "invalid_credentials")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// StreamClientsActive tracks open server-sent event connections.
// Label:
//   - stream: "events" or "dashboard"
var StreamClientsActive = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_clients_active",
		Help:      "Current number of open server-sent event streams.",
	},
	[]string{"stream"},
)
