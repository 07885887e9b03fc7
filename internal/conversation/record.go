package conversation

import (
	"strings"
	"time"
)

// Record is the persisted conversation of one operator identity.
type Record struct {
	Identity  string    `json:"identity"`
	State     State     `json:"currentState"`
	Context   Context   `json:"context"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so a turn can mutate it freely.
func (r Record) Clone() Record {
	out := r
	out.Context = r.Context.Clone()
	return out
}

// InputKind distinguishes text (including button ids) from media.
type InputKind string

// Input kinds
const (
	InputText  InputKind = "text"
	InputImage InputKind = "image"
)

// Input is one inbound operator event after channel normalization.
// Button presses arrive as text equal to the button id.
type Input struct {
	Kind  InputKind `json:"kind"`
	Text  string    `json:"text"`
	Image string    `json:"image,omitempty"` // reference of an archived or provider-hosted image
}

// TextInput builds a text input.
func TextInput(text string) Input {
	return Input{Kind: InputText, Text: text}
}

// ImageInput builds an image input with the given reference.
func ImageInput(ref string) Input {
	return Input{Kind: InputImage, Text: "image", Image: ref}
}

// Trimmed returns the text without surrounding whitespace.
func (in Input) Trimmed() string {
	return strings.TrimSpace(in.Text)
}

// Normalized returns the trimmed, lower-cased text used for command matching.
func (in Input) Normalized() string {
	return strings.ToLower(in.Trimmed())
}

// Is reports whether the normalized text equals one of the candidates.
func (in Input) Is(candidates ...string) bool {
	text := in.Normalized()
	for _, c := range candidates {
		if text == strings.ToLower(c) {
			return true
		}
	}
	return false
}

// Button is a quick-reply option; ID is echoed back as input text.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Message is one outbound message of a turn.
type Message struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons"`
}
