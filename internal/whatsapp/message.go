package whatsapp

import (
	"github.com/garyellow/storebot/internal/conversation"
)

// Cloud API limits for interactive messages.
const (
	MaxReplyButtons    = 3
	MaxListRows        = 10
	MaxButtonTitle     = 20
	MaxListRowTitle    = 24
	MaxListLabel       = 20
	MaxInteractiveBody = 1024
	MaxTextBody        = 4096
)

// sendRequest is the body of POST /{phone-number-id}/messages.
type sendRequest struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *textBody           `json:"text,omitempty"`
	Interactive      *interactiveMessage `json:"interactive,omitempty"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url,omitempty"`
}

type interactiveMessage struct {
	Type   string            `json:"type"`
	Body   interactiveBody   `json:"body"`
	Action interactiveAction `json:"action"`
}

type interactiveBody struct {
	Text string `json:"text"`
}

type interactiveAction struct {
	Buttons  []replyButton `json:"buttons,omitempty"`
	Button   string        `json:"button,omitempty"`
	Sections []listSection `json:"sections,omitempty"`
}

type replyButton struct {
	Type  string     `json:"type"`
	Reply buttonItem `json:"reply"`
}

type buttonItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type listSection struct {
	Rows []buttonItem `json:"rows"`
}

// buildRequest maps a bot message onto the Cloud API shape: plain text
// without buttons, reply buttons for up to three, a list for up to ten.
// Extra buttons beyond ten are dropped.
func buildRequest(to string, m conversation.Message, listLabel string) sendRequest {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
	}

	buttons := m.Buttons
	if len(buttons) == 0 {
		req.Type = "text"
		req.Text = &textBody{Body: truncate(m.Text, MaxTextBody)}
		return req
	}
	if len(buttons) > MaxListRows {
		buttons = buttons[:MaxListRows]
	}

	req.Type = "interactive"
	body := interactiveBody{Text: truncate(m.Text, MaxInteractiveBody)}

	if len(buttons) <= MaxReplyButtons {
		items := make([]replyButton, len(buttons))
		for i, b := range buttons {
			items[i] = replyButton{
				Type:  "reply",
				Reply: buttonItem{ID: b.ID, Title: truncate(b.Title, MaxButtonTitle)},
			}
		}
		req.Interactive = &interactiveMessage{
			Type:   "button",
			Body:   body,
			Action: interactiveAction{Buttons: items},
		}
		return req
	}

	rows := make([]buttonItem, len(buttons))
	for i, b := range buttons {
		rows[i] = buttonItem{ID: b.ID, Title: truncate(b.Title, MaxListRowTitle)}
	}
	req.Interactive = &interactiveMessage{
		Type: "list",
		Body: body,
		Action: interactiveAction{
			Button:   truncate(listLabel, MaxListLabel),
			Sections: []listSection{{Rows: rows}},
		},
	}
	return req
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
