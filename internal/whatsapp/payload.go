// Package whatsapp implements the WhatsApp Cloud API pieces the bot needs:
// decoding webhook payloads, verifying their signature and sending replies.
package whatsapp

import (
	"github.com/garyellow/storebot/internal/conversation"
)

// Payload is the body of a Cloud API webhook delivery.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the changes of one business account.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one field update; messages arrive with Field "messages".
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value carries the inbound messages or delivery statuses of a change.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

// Metadata identifies the receiving business phone number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is the sender profile attached to inbound messages.
type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// Status is a delivery receipt for an outbound message.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
	Timestamp   string `json:"timestamp"`
}

// Message is one inbound message.
type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
	Button      *QuickButton `json:"button,omitempty"`
	Image       *Media       `json:"image,omitempty"`
}

// Text is the body of a text message.
type Text struct {
	Body string `json:"body"`
}

// Interactive is the reply to an interactive button or list message.
type Interactive struct {
	Type        string     `json:"type"`
	ButtonReply *ReplyItem `json:"button_reply,omitempty"`
	ListReply   *ReplyItem `json:"list_reply,omitempty"`
}

// ReplyItem identifies the pressed button or chosen list row.
type ReplyItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// QuickButton is the reply to a template quick-reply button.
type QuickButton struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

// Media references an uploaded media object.
type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	Caption  string `json:"caption,omitempty"`
}

// Messages returns every inbound message of the payload in delivery order.
// Status-only changes contribute nothing.
func (p Payload) Messages() []Message {
	var out []Message
	for _, e := range p.Entry {
		for _, c := range e.Changes {
			if c.Field != "" && c.Field != "messages" {
				continue
			}
			out = append(out, c.Value.Messages...)
		}
	}
	return out
}

// Input normalizes the message into a conversation input. The media id of an
// image is returned as the reference; callers may replace it with an archived
// URL. ok is false for message types the bot does not handle.
func (m Message) Input() (in conversation.Input, ok bool) {
	switch m.Type {
	case "text":
		if m.Text == nil {
			return conversation.Input{}, false
		}
		return conversation.TextInput(m.Text.Body), true
	case "interactive":
		if m.Interactive == nil {
			return conversation.Input{}, false
		}
		if r := m.Interactive.ButtonReply; r != nil {
			return conversation.TextInput(r.ID), true
		}
		if r := m.Interactive.ListReply; r != nil {
			return conversation.TextInput(r.ID), true
		}
		return conversation.Input{}, false
	case "button":
		if m.Button == nil {
			return conversation.Input{}, false
		}
		if m.Button.Payload != "" {
			return conversation.TextInput(m.Button.Payload), true
		}
		return conversation.TextInput(m.Button.Text), true
	case "image":
		if m.Image == nil || m.Image.ID == "" {
			return conversation.Input{}, false
		}
		return conversation.ImageInput(m.Image.ID), true
	default:
		return conversation.Input{}, false
	}
}
