// Package bot provides the conversation engine: the handler interface topic
// modules implement, the routing table from state to handler, navigation
// commands and the per-turn processor.
package bot

import (
	"context"
	"fmt"

	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/i18n"
)

// maxTransitions bounds the Enter calls chained within one turn.
const maxTransitions = 8

// Handler defines the interface that all topic modules must implement.
// A handler owns a fixed set of states; the router guarantees that each
// state of conversation.AllStates is owned by exactly one handler.
type Handler interface {
	// Name identifies the handler in logs and metrics.
	Name() string

	// States lists the states this handler owns.
	States() []conversation.State

	// Enter renders the prompt of the turn's current state. It runs when the
	// conversation transitions into the state and when a prompt is repeated
	// after invalid input. Enter may transition again (e.g. welcome → mainMenu).
	Enter(ctx context.Context, t *Turn) error

	// Handle processes the operator input received in the turn's current state.
	Handle(ctx context.Context, t *Turn) error
}

// Turn is the working copy of one conversation turn. Handlers mutate the
// record freely; the processor persists it only when the turn succeeds.
type Turn struct {
	Record   conversation.Record
	Input    conversation.Input
	Operator catalog.Operator

	router      *Router
	catalog     *i18n.Catalog
	messages    []conversation.Message
	transitions int
}

// NewTurn creates a turn over a copy of rec.
func NewTurn(router *Router, cat *i18n.Catalog, rec conversation.Record, in conversation.Input, op catalog.Operator) *Turn {
	return &Turn{
		Record:   rec.Clone(),
		Input:    in,
		Operator: op,
		router:   router,
		catalog:  cat,
	}
}

// State returns the current state.
func (t *Turn) State() conversation.State {
	return t.Record.State
}

// Context returns the mutable flow context.
func (t *Turn) Context() *conversation.Context {
	return &t.Record.Context
}

// Draft returns the product draft, nil outside the product flow.
func (t *Turn) Draft() *conversation.Draft {
	return t.Record.Context.Draft
}

// StoreID returns the store the conversation operates on.
func (t *Turn) StoreID() int64 {
	return t.Record.Context.StoreID
}

// Language returns the operator's current language.
func (t *Turn) Language() string {
	return t.Record.Context.Language
}

// Text returns the trimmed text input. It reports false for media inputs.
func (t *Turn) Text() (string, bool) {
	if t.Input.Kind != conversation.InputText {
		return "", false
	}
	return t.Input.Trimmed(), true
}

// Catalog returns the message catalog.
func (t *Turn) Catalog() *i18n.Catalog {
	return t.catalog
}

// T resolves a message key in the operator's language.
func (t *Turn) T(key string, params i18n.Params) string {
	return t.catalog.Resolve(t.Language(), key, params)
}

// Button builds a button whose title is the localized titleKey.
func (t *Turn) Button(id, titleKey string) conversation.Button {
	return conversation.Button{ID: id, Title: t.T(titleKey, nil)}
}

// Reply queues a message with literal text.
func (t *Turn) Reply(text string, buttons ...conversation.Button) {
	t.messages = append(t.messages, conversation.Message{Text: text, Buttons: buttons})
}

// Say queues the localized message for key.
func (t *Turn) Say(key string, params i18n.Params, buttons ...conversation.Button) {
	t.Reply(t.T(key, params), buttons...)
}

// Messages returns the queued outbound messages.
func (t *Turn) Messages() []conversation.Message {
	return t.messages
}

// Goto moves the conversation to state and renders its prompt through the
// owning handler. The context must satisfy the target state.
func (t *Turn) Goto(ctx context.Context, state conversation.State) error {
	if err := t.Record.Context.Validate(state); err != nil {
		return fmt.Errorf("transition %s -> %s: %w", t.Record.State, state, err)
	}
	t.Record.State = state
	return t.enter(ctx)
}

// Retry queues the localized message for key and repeats the current prompt.
func (t *Turn) Retry(ctx context.Context, key string, params i18n.Params) error {
	t.Say(key, params)
	return t.enter(ctx)
}

// Invalid is Retry with the generic invalid-input message.
func (t *Turn) Invalid(ctx context.Context) error {
	return t.Retry(ctx, "invalid_input", nil)
}

func (t *Turn) enter(ctx context.Context) error {
	t.transitions++
	if t.transitions > maxTransitions {
		return fmt.Errorf("transition limit exceeded at state %s", t.Record.State)
	}
	h, ok := t.router.Owner(t.Record.State)
	if !ok {
		return fmt.Errorf("no handler owns state %s", t.Record.State)
	}
	return h.Enter(ctx, t)
}
