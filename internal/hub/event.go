package hub

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/models"
)

// Event names on the wire. These match the vocabulary the browser client
// already speaks and must not be renamed.
const (
	// Client -> hub
	EventUserOnline       = "user-online"
	EventJoinConversation = "join-conversation"
	EventSendMessage      = "send-message"
	EventTyping           = "typing"

	// Hub -> client
	EventOnlineUsers = "online-users"
	EventNewMessage  = "new-message"
	EventUserTyping  = "user-typing"
	EventError       = "error"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("malformed payload")
)

// Envelope is the frame shape shared by both directions:
// {"event": <name>, "data": <payload>}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Inbound is a decoded and validated client frame. Exactly one of the
// payload fields is set, selected by Kind.
type Inbound struct {
	Kind string

	User           string // user-online
	ConversationID string // join-conversation
	Message        *models.ChatMessage
	Typing         *models.TypingStatus
}

// DecodeInbound parses a raw client frame into a tagged event, validating
// the field set for its kind. Frames that fail here are rejected at the hub
// boundary and never forwarded.
func DecodeInbound(raw []byte) (*Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: not a JSON envelope", ErrBadPayload)
	}

	switch env.Event {
	case EventUserOnline:
		var user string
		if err := json.Unmarshal(env.Data, &user); err != nil || user == "" {
			return nil, fmt.Errorf("%w: %s wants a non-empty identity string", ErrBadPayload, env.Event)
		}
		return &Inbound{Kind: EventUserOnline, User: user}, nil

	case EventJoinConversation:
		var id string
		if err := json.Unmarshal(env.Data, &id); err != nil || id == "" {
			return nil, fmt.Errorf("%w: %s wants a non-empty conversation id", ErrBadPayload, env.Event)
		}
		return &Inbound{Kind: EventJoinConversation, ConversationID: id}, nil

	case EventSendMessage:
		var msg models.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %s wants a message object", ErrBadPayload, env.Event)
		}
		if msg.ConversationID == "" || msg.User == "" {
			return nil, fmt.Errorf("%w: %s requires conversationId and user", ErrBadPayload, env.Event)
		}
		if msg.Text == "" && msg.FileURL == "" {
			return nil, fmt.Errorf("%w: %s requires text or fileUrl", ErrBadPayload, env.Event)
		}
		return &Inbound{Kind: EventSendMessage, Message: &msg}, nil

	case EventTyping:
		var ts models.TypingStatus
		if err := json.Unmarshal(env.Data, &ts); err != nil {
			return nil, fmt.Errorf("%w: %s wants a typing object", ErrBadPayload, env.Event)
		}
		if ts.ConversationID == "" || ts.User == "" {
			return nil, fmt.Errorf("%w: %s requires conversationId and user", ErrBadPayload, env.Event)
		}
		return &Inbound{Kind: EventTyping, Typing: &ts}, nil

	case "":
		return nil, fmt.Errorf("%w: missing event name", ErrBadPayload)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// Encode builds an outbound frame.
func Encode(event string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: payload})
}

// encodeError builds the error frame sent back for a rejected inbound frame.
func encodeError(msg string) []byte {
	out, _ := Encode(EventError, map[string]string{"message": msg})
	return out
}
