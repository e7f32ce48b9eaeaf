// Package chat provides the realtime session used by chat frontends: one
// websocket connection per signed-in user, conversation rooms, message and
// typing relay, and a live online-users list.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SocketPath is the relay's upgrade endpoint.
const SocketPath = "/api/socket"

// Message is a chat message payload. SentAt is whatever timestamp the
// external message store attached; it travels through the relay untouched.
type Message struct {
	ConversationID string          `json:"conversationId"`
	Text           string          `json:"text"`
	User           string          `json:"user"`
	FileURL        string          `json:"fileUrl,omitempty"`
	SentAt         json.RawMessage `json:"sent_at,omitempty"`
}

// Typing is a typing notice payload.
type Typing struct {
	ConversationID string `json:"conversationId"`
	User           string `json:"user"`
	IsTyping       bool   `json:"isTyping"`
}

// envelope is the wire frame shape: {"event": <name>, "data": <payload>}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// State is the session's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// IdentitySource yields the signed-in user's identity, blocking until
// sign-in completes. Implementations wrap the external identity provider.
// No identity, no connection: Connect waits on this before dialing.
type IdentitySource interface {
	Identity(ctx context.Context) (string, error)
}

// StaticIdentity adapts an already-known identity to an IdentitySource.
type StaticIdentity string

func (s StaticIdentity) Identity(ctx context.Context) (string, error) {
	return string(s), nil
}

// ErrAlreadyConnected is returned by Connect on a live session.
var ErrAlreadyConnected = errors.New("session already connected")

// Client is a relay session. Zero value is not usable; call NewClient.
//
// JoinConversation, SendMessage and SetTyping are silent no-ops unless the
// session is Connected; they are never queued. Register handlers before
// calling Connect.
type Client struct {
	// BaseURL is the server's HTTP base, e.g. "http://localhost:8080".
	BaseURL string
	// Token is the signed session token, required when the server verifies
	// identities.
	Token string
	// Dialer performs the websocket handshake.
	Dialer *websocket.Dialer
	// HTTPClient is used for the REST endpoints (history, online snapshot).
	HTTPClient *http.Client

	mu       sync.Mutex
	state    State
	socket   *websocket.Conn
	identity string
	online   []string

	onNewMessage  func(Message)
	onUserTyping  func(Typing)
	onOnlineUsers func([]string)
	onError       func(error)
}

// NewClient creates a session client for the given server.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// HandleNewMessage registers the new-message callback.
func (c *Client) HandleNewMessage(fn func(Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onNewMessage = fn
}

// HandleUserTyping registers the typing-notice callback.
func (c *Client) HandleUserTyping(fn func(Typing)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUserTyping = fn
}

// HandleOnlineUsers registers the presence-snapshot callback.
func (c *Client) HandleOnlineUsers(fn func([]string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOnlineUsers = fn
}

// HandleError registers a callback for error frames and read failures.
func (c *Client) HandleError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// Connect waits for the identity source, dials the relay, and announces
// presence. It returns once the session is Connected; inbound events are
// then dispatched from a background goroutine until Close or a read failure.
func (c *Client) Connect(ctx context.Context, src IdentitySource) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.mu.Unlock()

	identity, err := src.Identity(ctx)
	if err != nil {
		c.setDisconnected(nil)
		return fmt.Errorf("resolve identity: %w", err)
	}

	wsURL, err := c.socketURL()
	if err != nil {
		c.setDisconnected(nil)
		return err
	}

	socket, _, err := c.Dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		c.setDisconnected(nil)
		return fmt.Errorf("dial relay: %w", err)
	}

	c.mu.Lock()
	c.socket = socket
	c.identity = identity
	c.state = StateConnected
	c.mu.Unlock()

	go c.readLoop(socket)

	// Announce presence immediately, like the browser client does on its
	// connect handler.
	c.emit("user-online", identity)
	return nil
}

// Close tears the session down. The hub's disconnect path then removes this
// user from presence for everyone else.
func (c *Client) Close() error {
	c.mu.Lock()
	socket := c.socket
	c.socket = nil
	c.state = StateDisconnected
	c.online = nil
	c.mu.Unlock()

	if socket != nil {
		socket.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		return socket.Close()
	}
	return nil
}

// State reports the session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the resolved identity, empty before Connect succeeds.
func (c *Client) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// OnlineUsers returns the latest presence snapshot.
func (c *Client) OnlineUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.online))
	copy(out, c.online)
	return out
}

// JoinConversation subscribes the session to a conversation's events.
func (c *Client) JoinConversation(conversationID string) {
	c.emit("join-conversation", conversationID)
}

// SendMessage relays a message to the conversation in msg.ConversationID.
// The sender defaults to the session identity.
func (c *Client) SendMessage(msg Message) {
	if msg.User == "" {
		msg.User = c.Identity()
	}
	c.emit("send-message", msg)
}

// SetTyping relays a typing notice for the session identity.
func (c *Client) SetTyping(conversationID string, isTyping bool) {
	c.emit("typing", Typing{
		ConversationID: conversationID,
		User:           c.Identity(),
		IsTyping:       isTyping,
	})
}

// emit writes one frame if the session is Connected, and silently drops it
// otherwise. The mutex serializes writers on the socket.
func (c *Client) emit(event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	frame, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.socket == nil {
		return
	}
	c.socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
	c.socket.WriteMessage(websocket.TextMessage, frame)
}

// readLoop dispatches inbound frames until the socket dies or the session
// is closed. Frames arriving for a superseded socket are ignored.
func (c *Client) readLoop(socket *websocket.Conn) {
	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			c.mu.Lock()
			current := c.socket == socket
			if current {
				c.socket = nil
				c.state = StateDisconnected
				c.online = nil
			}
			onError := c.onError
			c.mu.Unlock()

			socket.Close()
			// After Close the socket is already superseded, so a voluntary
			// teardown never reaches the error handler.
			if current && onError != nil {
				onError(err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		c.dispatch(socket, env)
	}
}

// dispatch routes one inbound frame to its handler, only while this socket
// is still the live connection.
func (c *Client) dispatch(socket *websocket.Conn, env envelope) {
	c.mu.Lock()
	if c.state != StateConnected || c.socket != socket {
		c.mu.Unlock()
		return
	}
	onNewMessage := c.onNewMessage
	onUserTyping := c.onUserTyping
	onOnlineUsers := c.onOnlineUsers
	onError := c.onError
	c.mu.Unlock()

	switch env.Event {
	case "new-message":
		var msg Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		if onNewMessage != nil {
			onNewMessage(msg)
		}

	case "user-typing":
		var ts Typing
		if err := json.Unmarshal(env.Data, &ts); err != nil {
			return
		}
		if onUserTyping != nil {
			onUserTyping(ts)
		}

	case "online-users":
		var users []string
		if err := json.Unmarshal(env.Data, &users); err != nil {
			return
		}
		c.mu.Lock()
		c.online = users
		c.mu.Unlock()
		if onOnlineUsers != nil {
			onOnlineUsers(users)
		}

	case "error":
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		if onError != nil {
			onError(errors.New(payload.Message))
		}
	}
}

// setDisconnected resets the session after a failed connect attempt.
func (c *Client) setDisconnected(socket *websocket.Conn) {
	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
	if socket != nil {
		socket.Close()
	}
}

// socketURL derives the websocket endpoint from BaseURL.
func (c *Client) socketURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = SocketPath
	if c.Token != "" {
		q := u.Query()
		q.Set("token", c.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
