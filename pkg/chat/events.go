package chat

import (
	"encoding/json"
	"time"
)

// Event names shared by the relay and its clients. A frame is a JSON
// envelope {event, data} sent over the websocket in either direction.
const (
	EventSetup           = "setup"
	EventConnected       = "connected"
	EventJoinChat        = "join chat"
	EventLeaveChat       = "leave chat"
	EventTyping          = "typing"
	EventStopTyping      = "stop typing"
	EventNewMessage      = "new message"
	EventMessageReceived = "message received"
	EventError           = "error"
)

// Error codes carried in ErrorPayload frames.
const (
	ErrCodeMembershipViolation = "MEMBERSHIP_VIOLATION"
	ErrCodeNotSetup            = "NOT_SETUP"
	ErrCodeBadPayload          = "BAD_PAYLOAD"
	ErrCodeUnknownEvent        = "UNKNOWN_EVENT"
)

type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewEvent(name string, payload any) (Event, error) {
	if payload == nil {
		return Event{Event: name}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: name, Data: data}, nil
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Bind unmarshals the event payload into v.
func (e Event) Bind(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// SetupPayload identifies the user behind a freshly opened connection.
type SetupPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// RoomPayload addresses a single room (chat id) for join/leave.
type RoomPayload struct {
	ChatID string `json:"chatId"`
}

// TypingPayload carries typing signals. Clients send only the chat id;
// the relay stamps the sender before fanning out to peers.
type TypingPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

// WireMessage is the immutable wire form of a message. The relay forwards
// it unchanged; it never rewrites or deduplicates.
type WireMessage struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chatId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ChatID  string `json:"chatId,omitempty"`
}
