package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. All Record* methods are safe on a nil receiver.
type Metrics struct {
	// Conversation engine metrics
	TurnsTotal          *prometheus.CounterVec
	TurnDurationSeconds *prometheus.HistogramVec
	GlobalCommandsTotal *prometheus.CounterVec
	ConversationsTotal  prometheus.Gauge

	// Topic handler metrics
	HandlerDurationSeconds *prometheus.HistogramVec

	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// Outbound delivery metrics
	OutboundMessagesTotal *prometheus.CounterVec

	// Catalog gateway metrics
	CatalogWritesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterActive  *prometheus.GaugeVec

	// Background job metrics
	SnapshotsTotal     *prometheus.CounterVec
	MediaArchivedTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storebot_turns_total",
				Help: "Total number of conversation turns by state and outcome",
			},
			[]string{"state", "outcome"}, // outcome: ok, error, rate_limited, expired, conflict
		),

		TurnDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storebot_turn_duration_seconds",
				Help:    "Conversation turn duration in seconds by channel",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"channel"},
		),

		GlobalCommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storebot_global_commands_total",
				Help: "Total number of navigation commands intercepted",
			},
			[]string{"command"}, // command: language, reset, main_menu
		),

		ConversationsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storebot_conversations",
				Help: "Number of persisted conversation records",
			},
		),

		HandlerDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storebot_handler_duration_seconds",
				Help:    "Topic handler execution duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"handler", "status"}, // status: success, error
		),

		WebhookDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storebot_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"channel"},
		),

		WebhookRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storebot_webhook_requests_total",
				Help: "Total number of webhook events by channel and status",
			},
			[]string{"channel", "status"}, // status: processed, ignored, unauthorized, error
		),

		OutboundMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storebot_outbound_messages_total",
				Help: "Total number of outbound messages by channel and status",
			},
			[]string{"channel", "status"}, // status: sent, error
		),

		CatalogWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storebot_catalog_writes_total",
				Help: "Total number of catalog writes by operation and status",
			},
			[]string{"operation", "status"},
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storebot_http_errors_total",
				Help: "Total number of HTTP errors by type and channel",
			},
			[]string{"error_type", "channel"},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storebot_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter"},
		),

		RateLimiterActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "storebot_rate_limiter_active_keys",
				Help: "Number of keys tracked by a keyed rate limiter",
			},
			[]string{"limiter"},
		),

		SnapshotsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storebot_snapshots_total",
				Help: "Total number of database snapshot uploads by status",
			},
			[]string{"status"},
		),

		MediaArchivedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storebot_media_archived_total",
				Help: "Total number of operator images archived by channel and status",
			},
			[]string{"channel", "status"},
		),
	}
}

// RecordTurn records one processed conversation turn.
func (m *Metrics) RecordTurn(state, outcome, channel string, duration float64) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(state, outcome).Inc()
	m.TurnDurationSeconds.WithLabelValues(channel).Observe(duration)
}

// RecordHandler records one topic handler invocation.
func (m *Metrics) RecordHandler(handler, status string, duration float64) {
	if m == nil {
		return
	}
	m.HandlerDurationSeconds.WithLabelValues(handler, status).Observe(duration)
}

// RecordGlobalCommand records an intercepted navigation command.
func (m *Metrics) RecordGlobalCommand(command string) {
	if m == nil {
		return
	}
	m.GlobalCommandsTotal.WithLabelValues(command).Inc()
}

// SetConversations sets the persisted conversation gauge.
func (m *Metrics) SetConversations(count int) {
	if m == nil {
		return
	}
	m.ConversationsTotal.Set(float64(count))
}

// RecordWebhook records webhook event processing.
func (m *Metrics) RecordWebhook(channel, status string, duration float64) {
	if m == nil {
		return
	}
	m.WebhookRequestsTotal.WithLabelValues(channel, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(channel).Observe(duration)
}

// RecordOutbound records one outbound message delivery attempt.
func (m *Metrics) RecordOutbound(channel, status string) {
	if m == nil {
		return
	}
	m.OutboundMessagesTotal.WithLabelValues(channel, status).Inc()
}

// RecordCatalogWrite records a catalog gateway write.
func (m *Metrics) RecordCatalogWrite(operation, status string) {
	if m == nil {
		return
	}
	m.CatalogWritesTotal.WithLabelValues(operation, status).Inc()
}

// RecordHTTPError records HTTP errors
func (m *Metrics) RecordHTTPError(errorType, channel string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, channel).Inc()
}

// RecordRateLimiterDrop records dropped requests
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiter).Inc()
}

// SetRateLimiterActive records the number of tracked keys.
func (m *Metrics) SetRateLimiterActive(limiter string, count int) {
	if m == nil {
		return
	}
	m.RateLimiterActive.WithLabelValues(limiter).Set(float64(count))
}

// RecordSnapshot records a snapshot upload attempt.
func (m *Metrics) RecordSnapshot(status string) {
	if m == nil {
		return
	}
	m.SnapshotsTotal.WithLabelValues(status).Inc()
}

// RecordMediaArchived records an image archive attempt.
func (m *Metrics) RecordMediaArchived(channel, status string) {
	if m == nil {
		return
	}
	m.MediaArchivedTotal.WithLabelValues(channel, status).Inc()
}
