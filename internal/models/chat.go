package models

import "encoding/json"

// ChatMessage is the payload of a send-message / new-message frame.
// Field names mirror the browser client and must not change: existing
// frontends unmarshal these bytes directly.
type ChatMessage struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	User           string `json:"user"`
	FileURL        string `json:"fileUrl,omitempty"`
	// SentAt is the client-side send time as written by the external
	// message store. The relay treats it as opaque and forwards it verbatim.
	SentAt json.RawMessage `json:"sent_at,omitempty"`
}

// TypingStatus is the payload of a typing / user-typing frame.
type TypingStatus struct {
	ConversationID string `json:"conversationId"`
	User           string `json:"user"`
	IsTyping       bool   `json:"isTyping"`
}

// StoredMessage is a relayed message as recorded by the history store.
type StoredMessage struct {
	ID             string          `json:"id"` // ULID
	ConversationID string          `json:"conversationId"`
	Text           string          `json:"text"`
	User           string          `json:"user"`
	FileURL        string          `json:"fileUrl,omitempty"`
	SentAt         json.RawMessage `json:"sent_at,omitempty"`
	ReceivedAt     int64           `json:"received_at"` // Unix ms, server clock
}
