package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing bounds one inbound event: record load, handler,
	// catalog writes, record save and outbound delivery.
	WebhookProcessing = 30 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout. Webhook payloads are small JSON documents.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout. Simulator requests
	// run the turn synchronously, so it must exceed WebhookProcessing.
	WebhookHTTPWrite = 35 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second

	// ReadinessCheckTimeout bounds the database checks of /readyz.
	ReadinessCheckTimeout = 3 * time.Second
)

// Outbound API timeouts
const (
	// OutboundRequest is the timeout for one Cloud API or LINE API call.
	OutboundRequest = 15 * time.Second

	// MediaTransfer bounds downloading an operator image and archiving it.
	MediaTransfer = 45 * time.Second
)

// Background jobs
const (
	// RateLimiterCleanupInterval is how often idle per-identity buckets are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute

	// SnapshotUpload bounds one snapshot compress + upload cycle.
	SnapshotUpload = 5 * time.Minute

	// ConversationGaugeInterval is how often the conversation count gauge is refreshed.
	ConversationGaugeInterval = time.Minute
)

// Database
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout applied to every connection.
	DatabaseBusyTimeout = 5 * time.Second
)
