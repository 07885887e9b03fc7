package whatsapp

import (
	"encoding/json"
	"testing"

	"github.com/garyellow/storebot/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "102290129340398",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550783881", "phone_number_id": "106540352242922"},
        "contacts": [{"profile": {"name": "Dana"}, "wa_id": "972501234567"}],
        "messages": [
          {"from": "972501234567", "id": "wamid.1", "timestamp": "1700000000", "type": "text", "text": {"body": "hello"}},
          {"from": "972501234567", "id": "wamid.2", "timestamp": "1700000001", "type": "interactive",
           "interactive": {"type": "button_reply", "button_reply": {"id": "menu_add_product", "title": "Add product"}}},
          {"from": "972509999999", "id": "wamid.3", "timestamp": "1700000002", "type": "interactive",
           "interactive": {"type": "list_reply", "list_reply": {"id": "store_list_categories", "title": "Categories"}}},
          {"from": "972501234567", "id": "wamid.4", "timestamp": "1700000003", "type": "image",
           "image": {"id": "media-77", "mime_type": "image/jpeg", "sha256": "abc"}},
          {"from": "972501234567", "id": "wamid.5", "timestamp": "1700000004", "type": "sticker"}
        ]
      }
    }]
  }, {
    "id": "102290129340398",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550783881", "phone_number_id": "106540352242922"},
        "statuses": [{"id": "wamid.out", "status": "delivered", "recipient_id": "972501234567", "timestamp": "1700000005"}]
      }
    }]
  }]
}`

func TestPayload_Messages(t *testing.T) {
	t.Parallel()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &p))

	msgs := p.Messages()

	require.Len(t, msgs, 5, "status-only change contributes no messages")
	assert.Equal(t, "wamid.1", msgs[0].ID)
	assert.Equal(t, "972509999999", msgs[2].From)
}

func TestMessage_Input(t *testing.T) {
	t.Parallel()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &p))
	msgs := p.Messages()

	tests := []struct {
		name   string
		msg    Message
		want   conversation.Input
		wantOK bool
	}{
		{"text", msgs[0], conversation.TextInput("hello"), true},
		{"button reply", msgs[1], conversation.TextInput("menu_add_product"), true},
		{"list reply", msgs[2], conversation.TextInput("store_list_categories"), true},
		{"image", msgs[3], conversation.ImageInput("media-77"), true},
		{"unsupported type", msgs[4], conversation.Input{}, false},
		{"text without body", Message{Type: "text"}, conversation.Input{}, false},
		{"template button", Message{Type: "button", Button: &QuickButton{Payload: "nav_reset", Text: "Reset"}}, conversation.TextInput("nav_reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.msg.Input()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayload_IgnoresOtherFields(t *testing.T) {
	t.Parallel()
	p := Payload{Entry: []Entry{{Changes: []Change{{
		Field: "account_update",
		Value: Value{Messages: []Message{{ID: "x", Type: "text", Text: &Text{Body: "hi"}}}},
	}}}}}

	assert.Empty(t, p.Messages())
}
