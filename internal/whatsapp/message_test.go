package whatsapp

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/garyellow/storebot/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buttons(n int) []conversation.Button {
	out := make([]conversation.Button, n)
	for i := range out {
		out[i] = conversation.Button{ID: fmt.Sprintf("b%d", i+1), Title: fmt.Sprintf("Button %d", i+1)}
	}
	return out
}

func TestBuildRequest_PlainText(t *testing.T) {
	t.Parallel()
	req := buildRequest("972501234567", conversation.Message{Text: "hello"}, "Options")

	assert.Equal(t, "text", req.Type)
	require.NotNil(t, req.Text)
	assert.Equal(t, "hello", req.Text.Body)
	assert.Nil(t, req.Interactive)
	assert.Equal(t, "whatsapp", req.MessagingProduct)
	assert.Equal(t, "972501234567", req.To)
}

func TestBuildRequest_ButtonCounts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		count    int
		wantType string
		wantLen  int
	}{
		{"one button", 1, "button", 1},
		{"three buttons", 3, "button", 3},
		{"four buttons become a list", 4, "list", 4},
		{"ten buttons", 10, "list", 10},
		{"eleven buttons are capped", 11, "list", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := buildRequest("1", conversation.Message{Text: "pick", Buttons: buttons(tt.count)}, "Options")

			require.NotNil(t, req.Interactive)
			assert.Equal(t, "interactive", req.Type)
			assert.Equal(t, tt.wantType, req.Interactive.Type)
			if tt.wantType == "button" {
				assert.Len(t, req.Interactive.Action.Buttons, tt.wantLen)
				assert.Empty(t, req.Interactive.Action.Sections)
				return
			}
			require.Len(t, req.Interactive.Action.Sections, 1)
			assert.Len(t, req.Interactive.Action.Sections[0].Rows, tt.wantLen)
			assert.Equal(t, "Options", req.Interactive.Action.Button)
		})
	}
}

func TestBuildRequest_Truncation(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("א", 30)
	body := strings.Repeat("x", 1500)

	req := buildRequest("1", conversation.Message{
		Text:    body,
		Buttons: []conversation.Button{{ID: "a", Title: long}},
	}, "Options")
	assert.Len(t, []rune(req.Interactive.Action.Buttons[0].Reply.Title), MaxButtonTitle)
	assert.Len(t, req.Interactive.Body.Text, MaxInteractiveBody)

	req = buildRequest("1", conversation.Message{Text: "pick", Buttons: append(buttons(4), conversation.Button{ID: "z", Title: long})},
		strings.Repeat("L", 40))
	rows := req.Interactive.Action.Sections[0].Rows
	assert.Len(t, []rune(rows[4].Title), MaxListRowTitle)
	assert.Len(t, req.Interactive.Action.Button, MaxListLabel)

	req = buildRequest("1", conversation.Message{Text: body}, "")
	assert.Equal(t, body, req.Text.Body, "plain text keeps up to 4096 characters")
}

func TestBuildRequest_JSONShape(t *testing.T) {
	t.Parallel()
	req := buildRequest("15550001111", conversation.Message{
		Text:    "Publish?",
		Buttons: []conversation.Button{{ID: "publish", Title: "Publish"}},
	}, "Options")

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messaging_product": "whatsapp",
		"recipient_type": "individual",
		"to": "15550001111",
		"type": "interactive",
		"interactive": {
			"type": "button",
			"body": {"text": "Publish?"},
			"action": {"buttons": [{"type": "reply", "reply": {"id": "publish", "title": "Publish"}}]}
		}
	}`, string(raw))
}
