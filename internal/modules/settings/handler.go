// Package settings implements the settings state and the store report.
package settings

import (
	"context"
	"fmt"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
)

// ModuleName identifies the handler in logs and metrics.
const ModuleName = "settings"

// Settings button ids.
const (
	ButtonLanguage = "settings_language"
	ButtonReset    = "settings_reset"
	ButtonBack     = "settings_back"
)

// Handler serves the settings menu and builds store reports.
type Handler struct {
	gateway catalog.Gateway
	logger  *logger.Logger
}

// NewHandler creates a new settings handler.
func NewHandler(gateway catalog.Gateway, log *logger.Logger) *Handler {
	return &Handler{gateway: gateway, logger: log}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// States returns the states owned by this handler.
func (h *Handler) States() []conversation.State {
	return []conversation.State{conversation.StateSettings}
}

// Enter sends the settings menu.
func (h *Handler) Enter(ctx context.Context, t *bot.Turn) error {
	t.Say("settings_menu", nil,
		t.Button(ButtonLanguage, "btn_language"),
		t.Button(ButtonReset, "btn_reset"),
		t.Button(ButtonBack, "btn_back"),
	)
	return nil
}

// Handle applies a settings choice.
func (h *Handler) Handle(ctx context.Context, t *bot.Turn) error {
	switch {
	case t.Input.Is("1", ButtonLanguage):
		return t.Goto(ctx, conversation.StateLanguageSelection)
	case t.Input.Is("2", ButtonReset):
		t.Context().Reset()
		t.Say("reset_done", nil)
		return t.Goto(ctx, conversation.StateInitial)
	case t.Input.Is("3", ButtonBack):
		return t.Goto(ctx, conversation.StateMainMenu)
	default:
		return t.Invalid(ctx)
	}
}

// SendReport queues the order, revenue and catalog summary of the turn's store.
func (h *Handler) SendReport(ctx context.Context, t *bot.Turn) error {
	storeID := t.StoreID()

	stats, err := h.gateway.OrderStats(ctx, storeID)
	if err != nil {
		return fmt.Errorf("report order stats: %w", err)
	}
	products, err := h.gateway.CountProducts(ctx, storeID)
	if err != nil {
		return fmt.Errorf("report product count: %w", err)
	}
	categories, err := h.gateway.ListCategories(ctx, storeID, nil)
	if err != nil {
		return fmt.Errorf("report categories: %w", err)
	}

	lang := t.Language()
	cat := t.Catalog()
	t.Say("reports_summary", i18n.Params{
		"orders":     cat.FormatCount(lang, stats.Count),
		"revenue":    cat.FormatAmount(lang, stats.Total),
		"products":   cat.FormatCount(lang, products),
		"categories": cat.FormatCount(lang, len(categories)),
	})
	h.logger.WithModule(ModuleName).WithField("orders", stats.Count).DebugContext(ctx, "Report sent")
	return nil
}
