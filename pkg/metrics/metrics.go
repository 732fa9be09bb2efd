// Package metrics provides Prometheus metrics for the market-data pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PulseMetrics collects and exposes pipeline Prometheus metrics.
type PulseMetrics struct {
	registry *prometheus.Registry

	// Hydration metrics
	EventsHydrated    prometheus.Counter
	HydrationErrors   prometheus.Counter
	MarketsNormalized prometheus.Counter
	NormalizeWarnings prometheus.Counter

	// Patch metrics
	PatchesApplied *prometheus.CounterVec
	PatchesMissed  *prometheus.CounterVec

	// Feed metrics
	FeedMessages   *prometheus.CounterVec
	FeedReconnects prometheus.Counter
	FeedErrors     prometheus.Counter

	// Store metrics
	TrackedEvents  prometheus.Gauge
	TrackedMarkets prometheus.Gauge
	HistoryPoints  prometheus.Gauge

	// Stream metrics
	StreamClients  prometheus.Gauge
	StreamMessages *prometheus.CounterVec
}

// NewPulseMetrics creates a new metrics collector with its own registry.
func NewPulseMetrics() *PulseMetrics {
	registry := prometheus.NewRegistry()

	pm := &PulseMetrics{
		registry: registry,

		EventsHydrated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_events_hydrated_total",
			Help: "Total number of events hydrated from the Gamma API",
		}),
		HydrationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_hydration_errors_total",
			Help: "Total number of failed hydration cycles",
		}),
		MarketsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_markets_normalized_total",
			Help: "Total number of raw markets normalized",
		}),
		NormalizeWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_normalize_warnings_total",
			Help: "Total number of normalizer warnings (malformed fields)",
		}),

		PatchesApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_patches_applied_total",
				Help: "Total number of live patches applied to stored markets",
			},
			[]string{"kind"}, // condition, token
		),
		PatchesMissed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_patches_missed_total",
				Help: "Total number of live patches that matched no stored market",
			},
			[]string{"kind"},
		),

		FeedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_feed_messages_total",
				Help: "Total number of feed messages received",
			},
			[]string{"type"}, // price_change, book, last_trade_price, other
		),
		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_feed_reconnects_total",
			Help: "Total number of feed reconnections",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_feed_errors_total",
			Help: "Total number of feed errors",
		}),

		TrackedEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulse_tracked_events",
			Help: "Number of events currently in the store",
		}),
		TrackedMarkets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulse_tracked_markets",
			Help: "Number of markets currently in the store",
		}),
		HistoryPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulse_history_points",
			Help: "Number of probability history points currently retained",
		}),

		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulse_stream_clients",
			Help: "Number of connected dashboard stream clients",
		}),
		StreamMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_stream_messages_total",
				Help: "Total number of messages broadcast to stream clients",
			},
			[]string{"type"}, // summary, price, book, status, heartbeat
		),
	}

	pm.registerAll()
	return pm
}

func (pm *PulseMetrics) registerAll() {
	pm.registry.MustRegister(
		pm.EventsHydrated,
		pm.HydrationErrors,
		pm.MarketsNormalized,
		pm.NormalizeWarnings,
		pm.PatchesApplied,
		pm.PatchesMissed,
		pm.FeedMessages,
		pm.FeedReconnects,
		pm.FeedErrors,
		pm.TrackedEvents,
		pm.TrackedMarkets,
		pm.HistoryPoints,
		pm.StreamClients,
		pm.StreamMessages,
	)
}

// Registry returns the underlying Prometheus registry for exposition.
func (pm *PulseMetrics) Registry() *prometheus.Registry {
	return pm.registry
}

// RecordHydration records one completed hydration cycle.
func (pm *PulseMetrics) RecordHydration(events, markets int) {
	pm.EventsHydrated.Add(float64(events))
	pm.MarketsNormalized.Add(float64(markets))
}

// RecordPatch records the outcome of one live patch attempt.
func (pm *PulseMetrics) RecordPatch(kind string, applied bool) {
	if applied {
		pm.PatchesApplied.WithLabelValues(kind).Inc()
	} else {
		pm.PatchesMissed.WithLabelValues(kind).Inc()
	}
}

// RecordFeedMessage records one received feed message by type.
func (pm *PulseMetrics) RecordFeedMessage(msgType string) {
	pm.FeedMessages.WithLabelValues(msgType).Inc()
}

// UpdateStoreSize updates the store occupancy gauges.
func (pm *PulseMetrics) UpdateStoreSize(events, markets, historyPoints int) {
	pm.TrackedEvents.Set(float64(events))
	pm.TrackedMarkets.Set(float64(markets))
	pm.HistoryPoints.Set(float64(historyPoints))
}
