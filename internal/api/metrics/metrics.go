// Package metrics defines and registers all custom Prometheus metrics for the
// contractor hub. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contractor"

// ── Sync metrics ──────────────────────────────────────────────────────────────

// RefreshDuration measures a full refresh cycle.
// Label:
//   - source: "remote" when fetched online, "cache" when served offline
var RefreshDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_duration_seconds",
		Help:      "Duration of a full refresh across all collections.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"source"},
)

// CollectionRefreshTotal counts per-collection refresh outcomes.
// Labels:
//   - collection: e.g. "jobs", "inventory_history"
//   - result: "ok", "error" or "cache"
var CollectionRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collection_refresh_total",
		Help:      "Total number of collection refreshes, by collection and result.",
	},
	[]string{"collection", "result"},
)

// Online is 1 while the remote store is reachable.
var Online = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "online",
		Help:      "1 when the remote store is reachable, 0 otherwise.",
	},
)

// MutationsTotal counts write operations issued by the sync controller.
// Labels:
//   - op: e.g. "create_job", "allocate_inventory"
//   - result: "ok", "error" or "offline"
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of write operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// RecurringDraftsTotal counts draft invoices generated from recurring templates.
var RecurringDraftsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recurring_drafts_total",
		Help:      "Total number of draft invoices generated from recurring templates.",
	},
)

// ── Billing metrics ───────────────────────────────────────────────────────────

// BillingEventsTotal counts billing webhook events.
// Labels:
//   - type: the event type (e.g. "subscription.activated")
//   - result: "processed", "duplicate" or "error"
var BillingEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_events_total",
		Help:      "Total number of billing events, by type and result.",
	},
	[]string{"type", "result"},
)

// BillingQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var BillingQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "billing_queue_depth",
		Help:      "Current number of billing events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Portal metrics ────────────────────────────────────────────────────────────

// PortalSignaturesTotal counts documents signed by external parties.
// Label:
//   - via: "portal" or "approval"
var PortalSignaturesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "portal_signatures_total",
		Help:      "Total number of documents signed through portal keys or public tokens.",
	},
	[]string{"via"},
)
