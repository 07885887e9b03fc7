package lineutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/garyellow/storebot/internal/conversation"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		text     string
		maxRunes int
		want     string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut with ellipsis", "hello world", 8, "hello..."},
		{"hebrew", "שלום עולם", 6, "שלו..."},
		{"tiny limit", "hello", 2, "he"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TruncateRunes(tt.text, tt.maxRunes))
		})
	}
}

func TestNewQuickReply(t *testing.T) {
	t.Parallel()
	assert.Nil(t, NewQuickReply(nil))

	buttons := make([]conversation.Button, 15)
	for i := range buttons {
		buttons[i] = conversation.Button{ID: fmt.Sprintf("id_%d", i), Title: fmt.Sprintf("Option %d", i)}
	}
	buttons[0].Title = strings.Repeat("x", 30)

	qr := NewQuickReply(buttons)
	require.NotNil(t, qr)
	require.Len(t, qr.Items, MaxQuickReplyItemCount)

	first, ok := qr.Items[0].Action.(*messaging_api.PostbackAction)
	require.True(t, ok)
	assert.Len(t, []rune(first.Label), MaxQuickReplyLabel)
	assert.Equal(t, "id_0", first.Data)
	assert.Equal(t, first.Label, first.DisplayText)
}

func TestBuildReply(t *testing.T) {
	t.Parallel()
	msgs := []conversation.Message{
		{Text: "one"}, {Text: "two"}, {Text: "three"}, {Text: "four"},
		{Text: "five"}, {Text: "six", Buttons: []conversation.Button{{ID: "a", Title: "A"}}},
		{Text: "seven", Buttons: []conversation.Button{{ID: "b", Title: "B"}}},
	}

	out := BuildReply(msgs, 5)

	require.Len(t, out, 5)
	last, ok := out[4].(*messaging_api.TextMessage)
	require.True(t, ok)
	assert.Equal(t, "five\n\nsix\n\nseven", last.Text)
	require.NotNil(t, last.QuickReply)
	require.Len(t, last.QuickReply.Items, 1)
	assert.Equal(t, "b", last.QuickReply.Items[0].Action.(*messaging_api.PostbackAction).Data)

	first := out[0].(*messaging_api.TextMessage)
	assert.Equal(t, "one", first.Text)
	assert.Nil(t, first.QuickReply)
}

func TestBuildReply_WithinLimit(t *testing.T) {
	t.Parallel()
	out := BuildReply([]conversation.Message{{Text: "hi"}}, 0)

	require.Len(t, out, 1)
	assert.Equal(t, "hi", out[0].(*messaging_api.TextMessage).Text)
}
