package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_CreatesRecordOnFirstContact(t *testing.T) {
	f := newFixture(t, nil)

	out, err := f.processor.Process(context.Background(), inbound("web-7", "hello"))
	require.NoError(t, err)

	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Equal(t, int64(2), out.Record.Version)
	assert.Equal(t, "en", out.Record.Context.Language)
	assert.Equal(t, int64(3), out.Record.Context.StoreID)
	assert.Equal(t, []string{"prompt:mainMenu"}, texts(out.Messages))

	stored := f.store.get("web-7")
	assert.Equal(t, conversation.StateMainMenu, stored.State)
	assert.Equal(t, int64(2), stored.Version)
}

func TestProcess_DefaultLanguageWhenOperatorHasNone(t *testing.T) {
	f := newFixture(t, nil)
	in := inbound("web-8", "hello")
	in.Operator.Language = ""

	out, err := f.processor.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "he", out.Record.Context.Language)
}

func TestProcess_NavigationCommands(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantState conversation.State
		wantFirst string
	}{
		{"reset keyword", "  RESET ", conversation.StateMainMenu, "reset_done"},
		{"reset button", "nav_reset", conversation.StateMainMenu, "reset_done"},
		{"reset hebrew", "איפוס", conversation.StateMainMenu, "reset_done"},
		{"menu slash", "/menu", conversation.StateMainMenu, ""},
		{"menu hebrew", "תפריט", conversation.StateMainMenu, ""},
		{"language", "Language", conversation.StateLanguageSelection, ""},
		{"language hebrew", "שפה", conversation.StateLanguageSelection, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.store.put(conversation.Record{
				Identity: "wa-1",
				State:    conversation.StateAwaitingPrice,
				Context: conversation.Context{
					Language: "en",
					StoreID:  3,
					Flow:     conversation.FlowProduct,
					Draft:    &conversation.Draft{Origin: conversation.OriginNew, Name: "Shirt"},
					Choices:  []int64{4, 5},
				},
				Version: 4,
			})

			out, err := f.processor.Process(context.Background(), inbound("wa-1", tt.input))
			require.NoError(t, err)

			assert.Equal(t, tt.wantState, out.Record.State)
			assert.Equal(t, conversation.FlowNone, out.Record.Context.Flow)
			assert.Nil(t, out.Record.Context.Draft)
			assert.Empty(t, out.Record.Context.Choices)
			assert.Equal(t, "en", out.Record.Context.Language)
			assert.Equal(t, int64(3), out.Record.Context.StoreID)
			assert.Equal(t, int64(5), out.Record.Version)
			assert.Zero(t, f.handler.calls.Load(), "topic handler must not run for navigation commands")

			if tt.wantFirst != "" {
				want := f.catalog.Resolve("en", tt.wantFirst, nil)
				assert.Equal(t, want, out.Messages[0].Text)
			}
		})
	}
}

func TestProcess_ResetRunsWelcomeInline(t *testing.T) {
	f := newFixture(t, nil)

	out, err := f.processor.Process(context.Background(), inbound("wa-2", "reset"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		f.catalog.Resolve("en", "reset_done", nil),
		f.catalog.Resolve("en", "welcome_message", nil),
		"prompt:mainMenu",
	}, texts(out.Messages))
}

func TestProcess_HandlerFailureKeepsRecord(t *testing.T) {
	for _, input := range []string{"boom", "panic", "loop"} {
		t.Run(input, func(t *testing.T) {
			f := newFixture(t, nil)
			f.store.put(conversation.Record{
				Identity: "wa-3",
				State:    conversation.StateMainMenu,
				Context:  conversation.Context{Language: "en", StoreID: 3},
				Version:  9,
			})

			out, err := f.processor.Process(context.Background(), inbound("wa-3", input))
			require.NoError(t, err)

			require.Len(t, out.Messages, 1)
			assert.Equal(t, f.catalog.Resolve("en", "generic_error", nil), out.Messages[0].Text)
			assert.Equal(t, conversation.StateMainMenu, out.Record.State)
			assert.Equal(t, int64(9), out.Record.Version)

			stored := f.store.get("wa-3")
			assert.Equal(t, int64(9), stored.Version)
			assert.Equal(t, conversation.StateMainMenu, stored.State)
		})
	}
}

func TestProcess_InvalidContextExpiresSession(t *testing.T) {
	f := newFixture(t, nil)
	f.store.put(conversation.Record{
		Identity: "wa-4",
		State:    conversation.StateAwaitingPrice, // requires a product draft
		Context:  conversation.Context{Language: "en", StoreID: 3},
		Version:  2,
	})

	out, err := f.processor.Process(context.Background(), inbound("wa-4", "50"))
	require.NoError(t, err)

	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Equal(t, []string{f.catalog.Resolve("en", "session_expired", nil), "prompt:mainMenu"}, texts(out.Messages))
	assert.Zero(t, f.handler.calls.Load())
}

func TestProcess_UnknownStateRestartsAtWelcome(t *testing.T) {
	f := newFixture(t, nil)
	f.store.put(conversation.Record{
		Identity: "wa-5",
		State:    conversation.State("legacyState"),
		Context:  conversation.Context{Language: "en", StoreID: 3},
		Version:  1,
	})

	out, err := f.processor.Process(context.Background(), inbound("wa-5", "hi"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Equal(t, int32(1), f.handler.calls.Load())
}

func TestProcess_RateLimited(t *testing.T) {
	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{Name: "identity", Burst: 1, RefillRate: 0.001})
	t.Cleanup(limiter.Stop)
	f := newFixture(t, limiter)

	_, err := f.processor.Process(context.Background(), inbound("wa-6", "hello"))
	require.NoError(t, err)

	out, err := f.processor.Process(context.Background(), inbound("wa-6", "draft"))
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, f.catalog.Resolve("en", "rate_limited", nil), out.Messages[0].Text)
	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Equal(t, int64(2), f.store.get("wa-6").Version)
}

func TestProcess_DefaultButtons(t *testing.T) {
	f := newFixture(t, nil)
	f.store.put(conversation.Record{
		Identity: "wa-7",
		State:    conversation.StateMainMenu,
		Context:  conversation.Context{Language: "en", StoreID: 3},
		Version:  1,
	})

	out, err := f.processor.Process(context.Background(), inbound("wa-7", "buttons"))
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, []conversation.Button{{ID: "a", Title: "A"}}, out.Messages[0].Buttons)

	out, err = f.processor.Process(context.Background(), inbound("wa-7", "hello"))
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, []conversation.Button{
		{ID: ButtonLanguage, Title: f.catalog.Resolve("en", "btn_language", nil)},
		{ID: ButtonReset, Title: f.catalog.Resolve("en", "btn_reset", nil)},
	}, out.Messages[0].Buttons)
}

func TestProcess_DefaultButtonsMidFlow(t *testing.T) {
	f := newFixture(t, nil)
	f.store.put(conversation.Record{
		Identity: "wa-10",
		State:    conversation.StateMainMenu,
		Context:  conversation.Context{Language: "en", StoreID: 3},
		Version:  1,
	})

	out, err := f.processor.Process(context.Background(), inbound("wa-10", "draft"))
	require.NoError(t, err)
	require.Equal(t, conversation.StateAwaitingCategory, out.Record.State)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, []conversation.Button{
		{ID: ButtonLanguage, Title: f.catalog.Resolve("en", "btn_language", nil)},
		{ID: ButtonReset, Title: f.catalog.Resolve("en", "btn_reset", nil)},
		{ID: ButtonMainMenu, Title: f.catalog.Resolve("en", "btn_main_menu", nil)},
	}, out.Messages[0].Buttons)

	out, err = f.processor.Process(context.Background(), inbound("wa-10", ButtonMainMenu))
	require.NoError(t, err)
	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Nil(t, out.Record.Context.Draft)
	require.NotEmpty(t, out.Messages)
	assert.Len(t, out.Messages[len(out.Messages)-1].Buttons, 2)
}

func TestProcess_ConflictAnswersGenericError(t *testing.T) {
	f := newFixture(t, nil)
	f.store.put(conversation.Record{
		Identity: "wa-8",
		State:    conversation.StateMainMenu,
		Context:  conversation.Context{Language: "en", StoreID: 3},
		Version:  3,
	})
	f.store.conflict = true

	out, err := f.processor.Process(context.Background(), inbound("wa-8", "draft"))
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, f.catalog.Resolve("en", "generic_error", nil), out.Messages[0].Text)
	assert.Equal(t, conversation.StateMainMenu, out.Record.State)
	assert.Equal(t, int64(3), out.Record.Version)
}

func TestProcess_TransitionIntoProductFlow(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.processor.Process(context.Background(), inbound("wa-9", "hello"))
	require.NoError(t, err)
	out, err := f.processor.Process(context.Background(), inbound("wa-9", "draft"))
	require.NoError(t, err)

	assert.Equal(t, conversation.StateAwaitingCategory, out.Record.State)
	assert.Equal(t, conversation.FlowProduct, out.Record.Context.Flow)
	require.NotNil(t, out.Record.Context.Draft)
	assert.Equal(t, "Shirt", out.Record.Context.Draft.Name)
}

func TestProcess_SerializesTurnsPerIdentity(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.processor.Process(context.Background(), inbound("wa-10", "hello"))
	require.NoError(t, err)

	const turns = 20
	var wg sync.WaitGroup
	for range turns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.processor.Process(context.Background(), inbound("wa-10", "count"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored := f.store.get("wa-10")
	assert.Len(t, stored.Context.Choices, turns)
	assert.Equal(t, int64(turns+2), stored.Version)
	assert.Eventually(t, func() bool { return f.processor.locks.size() == 0 }, time.Second, 10*time.Millisecond)
}

func TestProcessor_Unauthorized(t *testing.T) {
	f := newFixture(t, nil)

	msgs := f.processor.Unauthorized()
	require.Len(t, msgs, 1)
	assert.Equal(t, f.catalog.Resolve("he", "unauthorized", nil), msgs[0].Text)
	assert.Empty(t, msgs[0].Buttons)
}
