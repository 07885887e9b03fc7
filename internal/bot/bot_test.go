package bot

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/conversation"
	apperrors "github.com/garyellow/storebot/internal/errors"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/ratelimit"
	"github.com/stretchr/testify/require"
)

// stubHandler owns the given states and reacts to a few scripted inputs.
type stubHandler struct {
	name   string
	states []conversation.State
	calls  atomic.Int32
}

func (s *stubHandler) Name() string                 { return s.name }
func (s *stubHandler) States() []conversation.State { return s.states }

func (s *stubHandler) Enter(ctx context.Context, t *Turn) error {
	switch t.State() {
	case conversation.StateInitial, conversation.StateWelcome:
		t.Say("welcome_message", nil)
		return t.Goto(ctx, conversation.StateMainMenu)
	case conversation.StateSettings:
		return t.Goto(ctx, conversation.StateSettings)
	default:
		t.Reply("prompt:" + t.State().String())
		return nil
	}
}

func (s *stubHandler) Handle(ctx context.Context, t *Turn) error {
	s.calls.Add(1)
	switch t.Input.Normalized() {
	case "boom":
		t.Say("main_menu", nil)
		return errors.New("boom")
	case "panic":
		panic("kaboom")
	case "count":
		t.Context().Choices = append(t.Context().Choices, int64(len(t.Context().Choices)+1))
		return nil
	case "draft":
		t.Context().StartDraft(&conversation.Draft{Origin: conversation.OriginNew, Name: "Shirt"})
		return t.Goto(ctx, conversation.StateAwaitingCategory)
	case "loop":
		return t.Goto(ctx, conversation.StateSettings)
	case "buttons":
		t.Reply("pick", conversation.Button{ID: "a", Title: "A"})
		return nil
	default:
		return t.Goto(ctx, conversation.StateMainMenu)
	}
}

// memStore is an in-memory ConversationStore with version checks.
type memStore struct {
	mu       sync.Mutex
	records  map[string]conversation.Record
	conflict bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]conversation.Record)}
}

func (m *memStore) LoadConversation(_ context.Context, identity string) (*conversation.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[identity]
	if !ok {
		return nil, nil
	}
	out := rec.Clone()
	return &out, nil
}

func (m *memStore) CreateConversation(_ context.Context, identity string, c conversation.Context) (*conversation.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	rec := conversation.Record{
		Identity:  identity,
		State:     conversation.StateWelcome,
		Context:   c,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.records[identity] = rec
	out := rec.Clone()
	return &out, nil
}

func (m *memStore) SaveConversation(_ context.Context, rec *conversation.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[rec.Identity]
	if m.conflict || !ok || stored.Version != rec.Version {
		return apperrors.ErrConflict
	}
	rec.Version++
	rec.UpdatedAt = time.Now()
	m.records[rec.Identity] = rec.Clone()
	return nil
}

func (m *memStore) put(rec conversation.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Identity] = rec.Clone()
}

func (m *memStore) get(identity string) conversation.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[identity].Clone()
}

type fixture struct {
	handler   *stubHandler
	store     *memStore
	catalog   *i18n.Catalog
	processor *Processor
}

func newFixture(t *testing.T, limiter *ratelimit.KeyedLimiter) *fixture {
	t.Helper()
	h := &stubHandler{name: "stub", states: conversation.AllStates}
	reg := NewRegistry()
	reg.Register(h)
	router, err := reg.Build()
	require.NoError(t, err)

	store := newMemStore()
	cat := i18n.New()
	p := NewProcessor(ProcessorConfig{
		Router:      router,
		Store:       store,
		Catalog:     cat,
		UserLimiter: limiter,
		Logger:      logger.NewWithWriter("error", io.Discard),
		BotConfig:   &config.BotConfig{DefaultLanguage: "he", WebhookTimeout: 5 * time.Second},
	})
	return &fixture{handler: h, store: store, catalog: cat, processor: p}
}

func inbound(identity, text string) Inbound {
	return Inbound{
		Identity: identity,
		Channel:  "simulator",
		Operator: catalog.Operator{ID: 7, StoreID: 3, Language: "en"},
		Input:    conversation.TextInput(text),
	}
}

func texts(msgs []conversation.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}
