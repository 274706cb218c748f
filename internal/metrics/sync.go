package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics counts traffic through the cross-store sync protocol.
type SyncMetrics struct {
	syncEvents *prometheus.CounterVec
	dispatches *prometheus.CounterVec
	relay      *prometheus.CounterVec
	triggers   *prometheus.CounterVec
}

// NewSyncMetrics registers the sync counters on the provided registerer.
// A nil registerer yields a no-op collector.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	syncEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_events_total",
		Help: "Envelopes received by the sync endpoint.",
	}, []string{"resource", "outcome"})
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_webhook_dispatch_total",
		Help: "Order webhook events dispatched.",
	}, []string{"event", "outcome"})
	relay := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_relay_deliveries_total",
		Help: "Outbox rows processed by the sync relay.",
	}, []string{"outcome"})
	triggers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_triggers_total",
		Help: "Document change triggers handled.",
	}, []string{"trigger", "outcome"})
	reg.MustRegister(syncEvents, dispatches, relay, triggers)
	return &SyncMetrics{
		syncEvents: syncEvents,
		dispatches: dispatches,
		relay:      relay,
		triggers:   triggers,
	}
}

func (m *SyncMetrics) IncSyncEvent(resource, outcome string) {
	if m == nil || m.syncEvents == nil {
		return
	}
	m.syncEvents.WithLabelValues(normalizeLabel(resource), normalizeLabel(outcome)).Inc()
}

func (m *SyncMetrics) IncDispatch(event, outcome string) {
	if m == nil || m.dispatches == nil {
		return
	}
	m.dispatches.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

func (m *SyncMetrics) IncRelay(outcome string) {
	if m == nil || m.relay == nil {
		return
	}
	m.relay.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *SyncMetrics) IncTrigger(trigger, outcome string) {
	if m == nil || m.triggers == nil {
		return
	}
	m.triggers.WithLabelValues(normalizeLabel(trigger), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
