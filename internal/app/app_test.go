package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
	"github.com/garyellow/storebot/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestApp creates a minimal Application for testing endpoints
func setupTestApp(t *testing.T) *Application {
	t.Helper()

	db, err := storage.NewTestDB()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	registry := prometheus.NewRegistry()

	return &Application{
		cfg:      &config.Config{MetricsUsername: "prometheus"},
		db:       db,
		metrics:  metrics.New(registry),
		registry: registry,
		logger:   logger.NewWithWriter("error", io.Discard),
	}
}

func conversationContext() conversation.Context {
	return conversation.Context{Language: "en", StoreID: 1}
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)

	w, body := get(t, app.newRouter(), "/livez")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if status, ok := body["status"].(string); !ok || status != "alive" {
		t.Errorf("Expected status='alive', got %v", body["status"])
	}
	assert.Equal(t, "dev", body["release"])
}

func TestReadinessCheckHealthy(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)

	_, err := app.db.CreateConversation(context.Background(), "wa-1", conversationContext())
	require.NoError(t, err)

	w, body := get(t, app.newRouter(), "/readyz")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.InDelta(t, 1, body["conversations"], 0)
	assert.Equal(t, map[string]any{"whatsapp": false, "line": false, "simulator": false}, body["channels"])
}

// TestReadinessCheckDatabaseFailure verifies /readyz returns 503 when database ping fails
func TestReadinessCheckDatabaseFailure(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)

	if err := app.db.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	w, body := get(t, app.newRouter(), "/readyz")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	if reason, ok := body["reason"].(string); !ok || reason != "database unavailable" {
		t.Errorf("Expected reason='database unavailable', got %v", body["reason"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.metrics.SetConversations(3)

	w, _ := get(t, app.newRouter(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storebot_conversations 3")

	app.cfg.MetricsPassword = "secret"
	w, _ = get(t, app.newRouter(), "/metrics")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordConversationCount(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	ctx := context.Background()

	for _, id := range []string{"wa-1", "line-U1", "web-1"} {
		_, err := app.db.CreateConversation(ctx, id, conversationContext())
		require.NoError(t, err)
	}
	app.recordConversationCount(ctx)

	w, _ := get(t, app.newRouter(), "/metrics")
	assert.Contains(t, w.Body.String(), "storebot_conversations 3")
}

func TestInitialize_EnabledSurfaces(t *testing.T) {
	cfg := &config.Config{
		Port:            "0",
		LogLevel:        "error",
		ShutdownTimeout: time.Second,
		DataDir:         t.TempDir(),
		MetricsUsername: "prometheus",
		Bot: config.BotConfig{
			DefaultLanguage: "en",
			VATPercent:      18,
			WebhookTimeout:  5 * time.Second,
			UserRateBurst:   5,
			UserRateRefill:  1,
		},
		WhatsApp: config.WhatsAppConfig{
			Token:         "token",
			PhoneNumberID: "123",
			VerifyToken:   "verify-me",
			APIBase:       "http://127.0.0.1:1",
		},
		Simulator: config.SimulatorConfig{JWTSecret: "secret"},
	}

	app, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.closeResources)

	assert.NotNil(t, app.whatsapp)
	assert.Nil(t, app.line)
	assert.NotNil(t, app.simulator)
	assert.Nil(t, app.snapshots)

	h := app.server.Handler
	w, _ := get(t, h, "/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())

	w, _ = get(t, h, "/simulator")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = get(t, h, "/simulator/history")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook/line", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
