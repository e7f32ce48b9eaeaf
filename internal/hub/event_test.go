package hub

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeUserOnline(t *testing.T) {
	ev, err := DecodeInbound([]byte(`{"event":"user-online","data":"alice@example.com"}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != EventUserOnline || ev.User != "alice@example.com" {
		t.Fatalf("got kind=%q user=%q", ev.Kind, ev.User)
	}
}

func TestDecodeJoinConversation(t *testing.T) {
	ev, err := DecodeInbound([]byte(`{"event":"join-conversation","data":"conv1"}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != EventJoinConversation || ev.ConversationID != "conv1" {
		t.Fatalf("got kind=%q conversation=%q", ev.Kind, ev.ConversationID)
	}
}

func TestDecodeSendMessage(t *testing.T) {
	raw := []byte(`{"event":"send-message","data":{"conversationId":"conv1","text":"hi","user":"alice@example.com","sent_at":{"seconds":12,"nanos":0}}}`)
	ev, err := DecodeInbound(raw)
	if err != nil {
		t.Fatal(err)
	}
	msg := ev.Message
	if msg.ConversationID != "conv1" || msg.Text != "hi" || msg.User != "alice@example.com" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	// sent_at is opaque and must survive verbatim
	if string(msg.SentAt) != `{"seconds":12,"nanos":0}` {
		t.Fatalf("sent_at mangled: %s", msg.SentAt)
	}
}

func TestDecodeFileOnlyMessage(t *testing.T) {
	raw := []byte(`{"event":"send-message","data":{"conversationId":"conv1","user":"alice@example.com","fileUrl":"/files/a.png"}}`)
	if _, err := DecodeInbound(raw); err != nil {
		t.Fatalf("file-only message should be valid: %v", err)
	}
}

func TestDecodeTyping(t *testing.T) {
	raw := []byte(`{"event":"typing","data":{"conversationId":"conv1","user":"alice@example.com","isTyping":true}}`)
	ev, err := DecodeInbound(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !ev.Typing.IsTyping || ev.Typing.User != "alice@example.com" {
		t.Fatalf("unexpected typing: %+v", ev.Typing)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{}`,
		`{"event":"user-online","data":""}`,
		`{"event":"user-online","data":42}`,
		`{"event":"join-conversation","data":null}`,
		`{"event":"send-message","data":{"text":"hi"}}`,
		`{"event":"send-message","data":{"conversationId":"c","user":"u"}}`,
		`{"event":"typing","data":{"isTyping":true}}`,
	}
	for _, raw := range cases {
		if _, err := DecodeInbound([]byte(raw)); !errors.Is(err, ErrBadPayload) {
			t.Errorf("%s: expected ErrBadPayload, got %v", raw, err)
		}
	}
}

func TestDecodeRejectsUnknownEvent(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"event":"subscribe","data":"x"}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	out, err := Encode(EventOnlineUsers, []string{"alice@example.com", "bob@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatal(err)
	}
	if env.Event != EventOnlineUsers {
		t.Fatalf("expected %q, got %q", EventOnlineUsers, env.Event)
	}
	var users []string
	if err := json.Unmarshal(env.Data, &users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %v", users)
	}
}
