package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/ctxutil"
	"github.com/garyellow/storebot/internal/errors"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
	"github.com/garyellow/storebot/internal/ratelimit"
	"github.com/garyellow/storebot/internal/sentry"
)

// ConversationStore persists conversation records with optimistic versioning.
type ConversationStore interface {
	// LoadConversation returns nil, nil when the identity has no record.
	LoadConversation(ctx context.Context, identity string) (*conversation.Record, error)
	CreateConversation(ctx context.Context, identity string, c conversation.Context) (*conversation.Record, error)
	// SaveConversation fails with errors.ErrConflict when the stored version moved on.
	SaveConversation(ctx context.Context, rec *conversation.Record) error
}

// Inbound is one normalized operator event from any channel adapter.
type Inbound struct {
	Identity string // channel-scoped conversation key, e.g. "wa-972501234567"
	Channel  string
	Operator catalog.Operator
	Input    conversation.Input
}

// Outcome is the result of a turn: the record as stored and the messages to deliver.
type Outcome struct {
	Record   conversation.Record
	Messages []conversation.Message
}

// Turn outcomes reported to metrics.
const (
	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeRateLimited = "rate_limited"
	outcomeExpired     = "expired"
	outcomeConflict    = "conflict"
	outcomeCommand     = "command"
)

// Processor runs conversation turns: it serializes turns of one identity,
// loads the record, applies navigation and context validation, dispatches to
// the owning handler and saves the result.
type Processor struct {
	router    *Router
	store     ConversationStore
	catalog   *i18n.Catalog
	limiter   *ratelimit.KeyedLimiter
	navigator Navigator
	chain     HandlerFunc
	locks     *keyedMutex
	logger    *logger.Logger
	metrics   *metrics.Metrics

	// Configuration
	defaultLanguage string
	timeout         time.Duration
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Router      *Router
	Store       ConversationStore
	Catalog     *i18n.Catalog
	UserLimiter *ratelimit.KeyedLimiter // optional
	Logger      *logger.Logger
	Metrics     *metrics.Metrics // optional
	BotConfig   *config.BotConfig
}

// NewProcessor creates a new turn processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		router:  cfg.Router,
		store:   cfg.Store,
		catalog: cfg.Catalog,
		limiter: cfg.UserLimiter,
		chain: Chain(
			RecoveryMiddleware(cfg.Logger),
			LoggingMiddleware(cfg.Logger),
			MetricsMiddleware(cfg.Metrics),
		),
		locks:           newKeyedMutex(),
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		defaultLanguage: cfg.Catalog.Normalize(cfg.BotConfig.DefaultLanguage),
		timeout:         cfg.BotConfig.WebhookTimeout,
	}
}

// Process runs one turn for in. Storage failures while loading are returned
// as errors; every other failure is answered with the generic error message
// and leaves the stored record unchanged.
func (p *Processor) Process(ctx context.Context, in Inbound) (Outcome, error) {
	start := time.Now()
	ctx = ctxutil.WithIdentity(ctx, in.Identity)
	ctx = ctxutil.WithStoreID(ctx, in.Operator.StoreID)
	ctx = ctxutil.WithChannel(ctx, in.Channel)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	unlock := p.locks.Lock(in.Identity)
	defer unlock()

	rec, err := p.loadOrCreate(ctx, in)
	if err != nil {
		return Outcome{}, err
	}
	from := rec.State

	if p.limiter != nil && !p.limiter.Allow(in.Identity) {
		p.logger.WithField("state", from).WarnContext(ctx, "Identity rate limited")
		p.metrics.RecordTurn(from.String(), outcomeRateLimited, in.Channel, time.Since(start).Seconds())
		return p.notice(*rec, in, "rate_limited"), nil
	}

	if !rec.State.Valid() {
		p.logger.WithField("state", rec.State).WarnContext(ctx, "Unknown persisted state, restarting at welcome")
		rec.State = conversation.StateWelcome
	}

	turn := NewTurn(p.router, p.catalog, *rec, in.Input, in.Operator)
	outcome, err := p.run(ctx, turn)
	if err != nil {
		tags := errors.Tags(err)
		tags["state"] = from.String()
		p.logger.WithError(err).WithField("state", from).WithField("module", tags["module"]).ErrorContext(ctx, "Turn failed")
		sentry.CaptureTurnError(ctx, err, tags)
		p.metrics.RecordTurn(from.String(), outcomeError, in.Channel, time.Since(start).Seconds())
		return p.notice(*rec, in, "generic_error"), nil
	}

	if err := p.store.SaveConversation(ctx, &turn.Record); err != nil {
		if errors.IsConflict(err) {
			outcome = outcomeConflict
			p.logger.WithField("state", from).WarnContext(ctx, "Conversation changed concurrently, turn dropped")
		} else {
			outcome = outcomeError
			p.logger.WithError(err).WithField("state", from).ErrorContext(ctx, "Failed to save conversation")
			sentry.CaptureTurnError(ctx, err, map[string]string{"state": from.String()})
		}
		p.metrics.RecordTurn(from.String(), outcome, in.Channel, time.Since(start).Seconds())
		return p.notice(*rec, in, "generic_error"), nil
	}

	p.logger.WithField("from", from).
		WithField("to", turn.Record.State).
		WithField("version", turn.Record.Version).
		DebugContext(ctx, "Turn completed")
	p.metrics.RecordTurn(from.String(), outcome, in.Channel, time.Since(start).Seconds())

	return Outcome{Record: turn.Record, Messages: p.finalize(turn)}, nil
}

// Unauthorized returns the reply for a sender that is not a registered operator.
func (p *Processor) Unauthorized() []conversation.Message {
	return []conversation.Message{{Text: p.catalog.Resolve(p.defaultLanguage, "unauthorized", nil)}}
}

// run applies navigation, context validation and the owning handler.
func (p *Processor) run(ctx context.Context, t *Turn) (outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn panicked in state %s: %v", t.State(), r)
		}
	}()

	if cmd, ok := p.navigator.Match(t.Input); ok {
		p.metrics.RecordGlobalCommand(string(cmd))
		return outcomeCommand, p.navigator.Apply(ctx, cmd, t)
	}

	state := t.State()
	if err := t.Record.Context.Validate(state); err != nil {
		p.logger.WithError(err).WithField("state", state).WarnContext(ctx, "Flow context invalid for state")
		t.Context().ClearFlow()
		t.Say("session_expired", nil)
		return outcomeExpired, t.Goto(ctx, conversation.StateMainMenu)
	}

	h, ok := p.router.Owner(state)
	if !ok {
		return outcomeError, fmt.Errorf("no handler owns state %s", state)
	}
	return outcomeOK, p.chain(ctx, h, t, nil)
}

func (p *Processor) loadOrCreate(ctx context.Context, in Inbound) (*conversation.Record, error) {
	rec, err := p.store.LoadConversation(ctx, in.Identity)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if rec != nil {
		return rec, nil
	}

	lang := p.defaultLanguage
	if in.Operator.Language != "" {
		lang = p.catalog.Normalize(in.Operator.Language)
	}
	rec, err = p.store.CreateConversation(ctx, in.Identity, conversation.Context{
		Language: lang,
		StoreID:  in.Operator.StoreID,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	p.logger.WithField("language", lang).InfoContext(ctx, "Conversation created")
	return rec, nil
}

// notice answers with a single localized message and the unchanged record.
func (p *Processor) notice(rec conversation.Record, in Inbound, key string) Outcome {
	t := NewTurn(p.router, p.catalog, rec, in.Input, in.Operator)
	t.Say(key, nil)
	return Outcome{Record: rec, Messages: p.finalize(t)}
}

// finalize attaches the default navigation buttons to messages without buttons.
func (p *Processor) finalize(t *Turn) []conversation.Message {
	msgs := t.Messages()
	out := make([]conversation.Message, len(msgs))
	for i, m := range msgs {
		if len(m.Buttons) == 0 {
			m.Buttons = DefaultButtons(t)
		}
		out[i] = m
	}
	return out
}
