package modules_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/modules"
	"github.com/garyellow/storebot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness drives full turns through the processor over an in-memory database.
type harness struct {
	t         *testing.T
	db        *storage.DB
	catalog   *i18n.Catalog
	processor *bot.Processor
	operator  catalog.Operator
	identity  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithVAT(t, catalog.DefaultVATPercent)
}

func newHarnessWithVAT(t *testing.T, vatPercent float64) *harness {
	t.Helper()
	ctx := context.Background()

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := db.CreateStore(ctx, "Boutique", "boutique")
	require.NoError(t, err)
	op, err := db.CreateOperator(ctx, &catalog.Operator{
		StoreID:  store.ID,
		Name:     "Dana",
		Phone:    "972501234567",
		Language: "en",
	})
	require.NoError(t, err)

	log := logger.NewWithWriter("error", io.Discard)
	router, err := modules.NewRouter(modules.Dependencies{
		Gateway:    db,
		VATPercent: vatPercent,
		Logger:     log,
	})
	require.NoError(t, err)

	cat := i18n.New()
	p := bot.NewProcessor(bot.ProcessorConfig{
		Router:    router,
		Store:     db,
		Catalog:   cat,
		Logger:    log,
		BotConfig: &config.BotConfig{DefaultLanguage: "he", WebhookTimeout: 5 * time.Second},
	})

	return &harness{
		t:         t,
		db:        db,
		catalog:   cat,
		processor: p,
		operator:  *op,
		identity:  "wa-" + op.Phone,
	}
}

func (h *harness) process(in conversation.Input) bot.Outcome {
	h.t.Helper()
	out, err := h.processor.Process(context.Background(), bot.Inbound{
		Identity: h.identity,
		Channel:  "whatsapp",
		Operator: h.operator,
		Input:    in,
	})
	require.NoError(h.t, err)
	return out
}

// send runs a text turn and returns the outcome.
func (h *harness) send(text string) bot.Outcome {
	h.t.Helper()
	return h.process(conversation.TextInput(text))
}

// script sends each text in order and returns the last outcome.
func (h *harness) script(texts ...string) bot.Outcome {
	h.t.Helper()
	var out bot.Outcome
	for _, text := range texts {
		out = h.send(text)
	}
	return out
}

// msg resolves a message key in English.
func (h *harness) msg(key string, params i18n.Params) string {
	return h.catalog.Resolve(i18n.English, key, params)
}

func (h *harness) storeID() int64 {
	return h.operator.StoreID
}

func texts(out bot.Outcome) []string {
	res := make([]string, len(out.Messages))
	for i, m := range out.Messages {
		res[i] = m.Text
	}
	return res
}

func lastText(out bot.Outcome) string {
	if len(out.Messages) == 0 {
		return ""
	}
	return out.Messages[len(out.Messages)-1].Text
}

func buttonIDs(m conversation.Message) []string {
	ids := make([]string, len(m.Buttons))
	for i, b := range m.Buttons {
		ids[i] = b.ID
	}
	return ids
}

func TestNewRouter_OwnsEveryState(t *testing.T) {
	t.Parallel()
	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	router, err := modules.NewRouter(modules.Dependencies{
		Gateway: db,
		Logger:  logger.NewWithWriter("error", io.Discard),
	})
	require.NoError(t, err)

	for _, s := range conversation.AllStates {
		_, ok := router.Owner(s)
		assert.True(t, ok, "state %s", s)
	}
}

func TestWelcome_FirstContactShowsMenu(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.send("hello")

	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Equal(t, []string{h.msg("welcome_message", nil), h.msg("main_menu", nil)}, texts(out))
	assert.Equal(t, []string{"menu_add_product", "menu_manage_store", "menu_reports", "menu_settings"},
		buttonIDs(out.Messages[1]))
	assert.Equal(t, "en", out.Record.Context.Language)
}

func TestMenu_InvalidChoiceRepeatsMenu(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.send("hi")

	out := h.send("9")

	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Equal(t, []string{h.msg("invalid_input", nil), h.msg("main_menu", nil)}, texts(out))
}

func TestSettings_LanguageSwitch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.send("hi")

	out := h.script("4", "1")
	require.Equal(t, conversation.StateLanguageSelection, out.Record.State)
	assert.Equal(t, []string{"lang_en", "lang_he"}, buttonIDs(out.Messages[0]))

	out = h.send("lang_he")
	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Equal(t, i18n.Hebrew, out.Record.Context.Language)
	assert.Equal(t, h.catalog.Resolve(i18n.Hebrew, "language_changed", nil), out.Messages[0].Text)

	out = h.script("4", "1", "english")
	assert.Equal(t, i18n.English, out.Record.Context.Language)
}

func TestSettings_UnknownLanguageFallsBackToHebrew(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.send("hi")

	out := h.script("language", "français")

	assert.Equal(t, i18n.Hebrew, out.Record.Context.Language)
	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
}

func TestSettings_ResetAndBack(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.send("hi")

	out := h.script("4", "3")
	assert.Equal(t, conversation.StateMainMenu, out.Record.State)

	h.script("1", "Draft product")
	out = h.script("4")
	assert.Equal(t, conversation.StateAwaitingCategory, out.Record.State, "4 is not a menu choice inside the wizard")

	out = h.script("menu", "4", "2")
	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Nil(t, out.Record.Context.Draft)
	assert.Equal(t, h.storeID(), out.Record.Context.StoreID)
	assert.Equal(t, h.msg("reset_done", nil), out.Messages[0].Text)
}

func TestReports_SummarizesStore(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.db.CreateCategory(ctx, h.storeID(), nil, "Shirts")
	require.NoError(t, err)
	_, err = h.db.CreateOrder(ctx, h.storeID(), 1200, "paid")
	require.NoError(t, err)
	_, err = h.db.CreateOrder(ctx, h.storeID(), 300.5, "open")
	require.NoError(t, err)
	_, err = h.db.CreateOrder(ctx, h.storeID(), 999, "cancelled")
	require.NoError(t, err)

	h.send("hi")
	out := h.send("menu_reports")

	require.Len(t, out.Messages, 2)
	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	report := out.Messages[0].Text
	assert.Contains(t, report, "Orders: 2")
	assert.Contains(t, report, "Revenue: 1,500.50")
	assert.Contains(t, report, "Products: 0")
	assert.Contains(t, report, "Categories: 1")
	assert.Equal(t, h.msg("main_menu", nil), out.Messages[1].Text)
}

func TestNavigation_MenuCommandLeavesFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.send("hi")
	h.script("1", "Hat")

	out := h.send("/menu")

	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Nil(t, out.Record.Context.Draft)
	assert.True(t, strings.HasPrefix(lastText(out), "Main menu"))
}
