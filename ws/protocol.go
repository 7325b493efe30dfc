package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"community-backend/models"
)

// EventKind enumerates the relay protocol vocabulary. Anything outside this
// closed set is dropped at decode time.
type EventKind string

const (
	// client -> server
	EventAuthenticate EventKind = "authenticate"
	EventJoinRoom     EventKind = "join-room"
	EventLeaveRoom    EventKind = "leave-room"
	EventSendMessage  EventKind = "send-message"
	EventTyping       EventKind = "typing"

	// server -> client
	EventOnlineUsers EventKind = "online-users"
	EventNewMessage  EventKind = "new-message"
	EventUserTyping  EventKind = "user-typing"
)

// Frame is the wire envelope for every relay event.
type Frame struct {
	Event EventKind       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type AuthenticatePayload struct {
	UserID string `json:"user_id"`
	// Token is verified when the hub carries a TokenVerifier; its subject
	// must match UserID.
	Token string `json:"token,omitempty"`
}

type RoomPayload struct {
	ConversationID string `json:"conversation_id"`
}

type SendMessagePayload struct {
	ConversationID string             `json:"conversation_id"`
	MessageID      string             `json:"message_id"`
	Content        string             `json:"content"`
	Kind           models.MessageKind `json:"type,omitempty"`
	ClientTempID   string             `json:"client_temp_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

type OnlineUsersPayload struct {
	UserIDs []string `json:"user_ids"`
}

type NewMessagePayload struct {
	ConversationID string             `json:"conversation_id"`
	MessageID      string             `json:"message_id"`
	SenderID       string             `json:"sender_id"`
	Content        string             `json:"content"`
	Kind           models.MessageKind `json:"type,omitempty"`
	ClientTempID   string             `json:"client_temp_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

type UserTypingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

// ClientEvent is the decoded tagged union of client-originated events.
// Exactly one payload field is non-nil, selected by Kind.
type ClientEvent struct {
	Kind         EventKind
	Authenticate *AuthenticatePayload
	Room         *RoomPayload
	Send         *SendMessagePayload
	Typing       *TypingPayload
}

var errUnknownEvent = errors.New("unknown event kind")

func DecodeClientEvent(raw []byte) (*ClientEvent, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	evt := &ClientEvent{Kind: frame.Event}
	switch frame.Event {
	case EventAuthenticate:
		evt.Authenticate = &AuthenticatePayload{}
		return evt, unmarshalPayload(frame.Data, evt.Authenticate)
	case EventJoinRoom, EventLeaveRoom:
		evt.Room = &RoomPayload{}
		return evt, unmarshalPayload(frame.Data, evt.Room)
	case EventSendMessage:
		evt.Send = &SendMessagePayload{}
		return evt, unmarshalPayload(frame.Data, evt.Send)
	case EventTyping:
		evt.Typing = &TypingPayload{}
		return evt, unmarshalPayload(frame.Data, evt.Typing)
	default:
		return nil, errUnknownEvent
	}
}

func unmarshalPayload(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}

// EncodeFrame marshals a server event and its payload into wire form.
func EncodeFrame(kind EventKind, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: kind, Data: data})
}

// EncodeClientFrame marshals a client event; used by Go clients and tests.
func EncodeClientFrame(kind EventKind, payload any) ([]byte, error) {
	return EncodeFrame(kind, payload)
}
