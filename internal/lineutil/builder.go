// Package lineutil converts bot messages into LINE Messaging API messages.
package lineutil

import (
	"strings"

	"github.com/garyellow/storebot/internal/conversation"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// NewTextMessage creates a text message, truncated to the LINE limit.
func NewTextMessage(text string) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{
		Text: TruncateRunes(text, MaxTextMessageLength),
	}
}

// NewPostbackAction creates a postback action. The label is shown as the
// operator's reply; data is echoed back to the bot.
func NewPostbackAction(label, data string) messaging_api.ActionInterface {
	label = TruncateRunes(label, MaxQuickReplyLabel)
	return &messaging_api.PostbackAction{
		Label:       label,
		DisplayText: label,
		Data:        TruncateRunes(data, MaxPostbackData),
	}
}

// NewQuickReply turns buttons into postback quick-reply items.
// LINE API limits: max 13 items. Returns nil for no buttons.
func NewQuickReply(buttons []conversation.Button) *messaging_api.QuickReply {
	if len(buttons) == 0 {
		return nil
	}
	if len(buttons) > MaxQuickReplyItemCount {
		buttons = buttons[:MaxQuickReplyItemCount]
	}

	items := make([]messaging_api.QuickReplyItem, len(buttons))
	for i, b := range buttons {
		items[i] = messaging_api.QuickReplyItem{
			Action: NewPostbackAction(b.Title, b.ID),
		}
	}
	return &messaging_api.QuickReply{Items: items}
}

// BuildReply converts the messages of a turn into at most maxMessages LINE
// messages. Overflowing messages are merged into the last one, which keeps
// the buttons of the final bot message.
func BuildReply(msgs []conversation.Message, maxMessages int) []messaging_api.MessageInterface {
	if maxMessages <= 0 {
		maxMessages = MaxMessagesPerReply
	}
	if len(msgs) > maxMessages {
		msgs = mergeOverflow(msgs, maxMessages)
	}

	out := make([]messaging_api.MessageInterface, len(msgs))
	for i, m := range msgs {
		text := NewTextMessage(m.Text)
		text.QuickReply = NewQuickReply(m.Buttons)
		out[i] = text
	}
	return out
}

func mergeOverflow(msgs []conversation.Message, maxMessages int) []conversation.Message {
	out := make([]conversation.Message, maxMessages)
	copy(out, msgs[:maxMessages-1])

	tail := msgs[maxMessages-1:]
	texts := make([]string, len(tail))
	for i, m := range tail {
		texts[i] = m.Text
	}
	out[maxMessages-1] = conversation.Message{
		Text:    strings.Join(texts, "\n\n"),
		Buttons: tail[len(tail)-1].Buttons,
	}
	return out
}

// TruncateRunes truncates text to maxRunes runes, ending with "..." when cut.
func TruncateRunes(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
