// Package menu implements the main menu state.
package menu

import (
	"context"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/logger"
)

// ModuleName identifies the handler in logs and metrics.
const ModuleName = "menu"

// Main menu button ids.
const (
	ButtonAddProduct  = "menu_add_product"
	ButtonManageStore = "menu_manage_store"
	ButtonReports     = "menu_reports"
	ButtonSettings    = "menu_settings"
)

// ReportFunc sends the store report of the turn's store.
type ReportFunc func(ctx context.Context, t *bot.Turn) error

// Handler routes main menu choices to the topic flows.
type Handler struct {
	report ReportFunc
	logger *logger.Logger
}

// NewHandler creates a new main menu handler.
func NewHandler(report ReportFunc, log *logger.Logger) *Handler {
	return &Handler{report: report, logger: log}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// States returns the states owned by this handler.
func (h *Handler) States() []conversation.State {
	return []conversation.State{conversation.StateMainMenu}
}

// Enter sends the main menu.
func (h *Handler) Enter(ctx context.Context, t *bot.Turn) error {
	t.Say("main_menu", nil,
		t.Button(ButtonAddProduct, "btn_add_product"),
		t.Button(ButtonManageStore, "btn_manage_store"),
		t.Button(ButtonReports, "btn_reports"),
		t.Button(ButtonSettings, "btn_settings"),
	)
	return nil
}

// Handle dispatches a menu choice.
func (h *Handler) Handle(ctx context.Context, t *bot.Turn) error {
	switch {
	case t.Input.Is("1", ButtonAddProduct):
		t.Context().ClearFlow()
		return t.Goto(ctx, conversation.StateAwaitingName)
	case t.Input.Is("2", ButtonManageStore):
		t.Context().ClearFlow()
		return t.Goto(ctx, conversation.StateManageStore)
	case t.Input.Is("3", ButtonReports):
		if err := h.report(ctx, t); err != nil {
			return err
		}
		return h.Enter(ctx, t)
	case t.Input.Is("4", ButtonSettings):
		return t.Goto(ctx, conversation.StateSettings)
	default:
		return t.Invalid(ctx)
	}
}
