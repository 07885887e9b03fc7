package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	require.NotNil(t, m)

	m.RecordTurn("mainMenu", "ok", "simulator", 0.01)
	m.RecordGlobalCommand("reset")
	m.SetConversations(3)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"storebot_turns_total",
		"storebot_turn_duration_seconds",
		"storebot_global_commands_total",
		"storebot_conversations",
	} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestRecordMethods(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordTurn("awaitingPrice", "ok", "whatsapp", 0.02)
	m.RecordTurn("awaitingPrice", "ok", "whatsapp", 0.03)
	m.RecordWebhook("line", "unauthorized", 0.1)
	m.RecordOutbound("whatsapp", "error")
	m.RecordCatalogWrite("publish_product", "success")
	m.RecordRateLimiterDrop("identity")
	m.SetRateLimiterActive("identity", 4)
	m.RecordSnapshot("success")
	m.RecordMediaArchived("line", "error")
	m.RecordHTTPError("signature", "whatsapp")

	assert.InDelta(t, 2, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("awaitingPrice", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues("line", "unauthorized")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OutboundMessagesTotal.WithLabelValues("whatsapp", "error")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.RateLimiterActive.WithLabelValues("identity")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordTurn("welcome", "ok", "line", 0)
		m.RecordGlobalCommand("language")
		m.RecordHandler("product_wizard", "success", 0)
		m.SetConversations(1)
		m.RecordWebhook("whatsapp", "processed", 0)
		m.RecordOutbound("line", "sent")
		m.RecordCatalogWrite("create_category", "error")
		m.RecordHTTPError("bad_request", "line")
		m.RecordRateLimiterDrop("identity")
		m.SetRateLimiterActive("identity", 0)
		m.RecordSnapshot("error")
		m.RecordMediaArchived("whatsapp", "success")
	})
}
