package bot

import (
	"context"

	"github.com/garyellow/storebot/internal/conversation"
)

// Command is a navigation command recognized in every state.
type Command string

// Navigation commands
const (
	CommandLanguage Command = "language"
	CommandReset    Command = "reset"
	CommandMainMenu Command = "main_menu"
)

// Button ids of the default navigation buttons.
const (
	ButtonLanguage = "nav_language"
	ButtonReset    = "nav_reset"
	ButtonMainMenu = "nav_main_menu"
)

var commandInputs = map[Command][]string{
	CommandLanguage: {ButtonLanguage, "language", "שפה"},
	CommandReset:    {ButtonReset, "reset", "/reset", "איפוס"},
	CommandMainMenu: {ButtonMainMenu, "menu", "/menu", "תפריט"},
}

// commandOrder fixes matching order; the input sets are disjoint.
var commandOrder = []Command{CommandLanguage, CommandReset, CommandMainMenu}

// Navigator intercepts navigation commands before the topic handler runs.
type Navigator struct{}

// Match reports which command the input names, if any.
func (Navigator) Match(in conversation.Input) (Command, bool) {
	if in.Kind != conversation.InputText {
		return "", false
	}
	for _, cmd := range commandOrder {
		if in.Is(commandInputs[cmd]...) {
			return cmd, true
		}
	}
	return "", false
}

// Apply executes cmd on the turn. The handler of the current state is not invoked.
func (Navigator) Apply(ctx context.Context, cmd Command, t *Turn) error {
	switch cmd {
	case CommandLanguage:
		t.Context().ClearFlow()
		return t.Goto(ctx, conversation.StateLanguageSelection)
	case CommandReset:
		t.Context().Reset()
		t.Say("reset_done", nil)
		return t.Goto(ctx, conversation.StateInitial)
	default:
		t.Context().ClearFlow()
		return t.Goto(ctx, conversation.StateMainMenu)
	}
}

// DefaultButtons are attached to messages that carry no buttons of their own.
// Outside the menu states a way back to the main menu is offered as well.
func DefaultButtons(t *Turn) []conversation.Button {
	buttons := []conversation.Button{
		t.Button(ButtonLanguage, "btn_language"),
		t.Button(ButtonReset, "btn_reset"),
	}
	switch t.State() {
	case conversation.StateInitial, conversation.StateWelcome,
		conversation.StateMainMenu, conversation.StateLanguageSelection:
		return buttons
	}
	return append(buttons, t.Button(ButtonMainMenu, "btn_main_menu"))
}
