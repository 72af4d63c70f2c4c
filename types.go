package nutricoach

import "context"

// EventKind identifies how the transport produced an incoming event.
type EventKind string

const (
	EventText        EventKind = "text"
	EventButtonPress EventKind = "buttonPress"
)

// MessageKind identifies what an outgoing message carries.
type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
)

// Event is a transport-agnostic incoming user event. For button presses,
// Text holds the opaque callback payload the button was created with.
type Event struct {
	UserID string
	Kind   EventKind
	Text   string
}

// Button is an inline choice attached to an outgoing text message.
type Button struct {
	Label string
	Data  string
}

// Message is a transport-agnostic outgoing message.
type Message struct {
	UserID    string
	Kind      MessageKind
	Text      string
	Buttons   []Button
	Image     []byte
	ImageName string
}

// TextMessage builds a plain text message addressed to a user.
func TextMessage(userID, text string) Message {
	return Message{UserID: userID, Kind: MessageText, Text: text}
}

// ImageMessage builds an image message with a file name and caption.
func ImageMessage(userID, name string, data []byte, caption string) Message {
	return Message{UserID: userID, Kind: MessageImage, Text: caption, Image: data, ImageName: name}
}

// EventHandler processes one incoming event and returns the messages to
// deliver. Implementations must always produce a response for a recognized
// event; events are never silently dropped.
type EventHandler interface {
	HandleEvent(ctx context.Context, event Event) []Message
}
