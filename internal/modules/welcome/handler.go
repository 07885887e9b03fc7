// Package welcome implements the greeting and language selection states.
package welcome

import (
	"context"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
)

// ModuleName identifies the handler in logs and metrics.
const ModuleName = "welcome"

// Language button ids.
const (
	ButtonEnglish = "lang_en"
	ButtonHebrew  = "lang_he"
)

var englishInputs = []string{ButtonEnglish, "en", "english"}

// Handler greets operators and switches the conversation language.
type Handler struct {
	logger *logger.Logger
}

// NewHandler creates a new welcome handler.
func NewHandler(log *logger.Logger) *Handler {
	return &Handler{logger: log}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// States returns the states owned by this handler.
func (h *Handler) States() []conversation.State {
	return []conversation.State{
		conversation.StateInitial,
		conversation.StateWelcome,
		conversation.StateLanguageSelection,
	}
}

// Enter sends the greeting (then the main menu) or the language prompt.
func (h *Handler) Enter(ctx context.Context, t *bot.Turn) error {
	if t.State() == conversation.StateLanguageSelection {
		t.Say("language_prompt", nil,
			t.Button(ButtonEnglish, "btn_english"),
			t.Button(ButtonHebrew, "btn_hebrew"),
		)
		return nil
	}

	t.Say("welcome_message", nil)
	return t.Goto(ctx, conversation.StateMainMenu)
}

// Handle greets on any input, or applies the chosen language.
func (h *Handler) Handle(ctx context.Context, t *bot.Turn) error {
	if t.State() != conversation.StateLanguageSelection {
		return h.Enter(ctx, t)
	}

	// Anything that is not English selects Hebrew.
	lang := i18n.Hebrew
	if t.Input.Is(englishInputs...) {
		lang = i18n.English
	}
	t.Context().Language = lang
	h.logger.WithModule(ModuleName).WithField("language", lang).DebugContext(ctx, "Language changed")

	t.Say("language_changed", nil)
	return t.Goto(ctx, conversation.StateInitial)
}
