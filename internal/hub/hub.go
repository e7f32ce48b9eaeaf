// Package hub implements the realtime relay: a single process-wide event
// loop that bridges websocket connections, tracks who is online, and
// broadcasts message and typing frames to conversation-scoped rooms.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/metrics"
	"github.com/ZZZSleepy333/whatsapp-clone/internal/models"
)

// MessageRecorder receives a copy of every relayed chat message. Recording is
// best-effort: errors are logged and never affect delivery.
type MessageRecorder interface {
	AddMessage(ctx context.Context, msg *models.StoredMessage) error
}

// LastSeenRecorder stamps a user's last-seen time when their connection goes
// away. Best-effort, like MessageRecorder.
type LastSeenRecorder interface {
	TouchLastSeen(ctx context.Context, email string) error
}

// collaboratorTimeout bounds the best-effort writes to external stores.
const collaboratorTimeout = 3 * time.Second

// frame is one inbound unit of work for the run loop. When err is set the
// frame was rejected by the codec and only an error reply is owed.
type frame struct {
	conn  *Conn
	event *Inbound
	err   error
}

// Options configures a Hub. All collaborators are optional.
type Options struct {
	Logger   zerolog.Logger
	History  MessageRecorder
	Users    LastSeenRecorder
	Verifier *TokenVerifier
}

// Hub routes events between connections. All shared state (the connection
// set, room subscriptions, and the presence registry) is owned by the
// goroutine running Run; other goroutines communicate with it only through
// channels.
type Hub struct {
	logger   zerolog.Logger
	history  MessageRecorder
	users    LastSeenRecorder
	verifier *TokenVerifier

	register   chan *Conn
	unregister chan *Conn
	inbound    chan frame
	snapshots  chan chan []string

	conns    map[*Conn]struct{}
	rooms    map[string]map[*Conn]struct{}
	presence *presenceRegistry

	done      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

// New creates a Hub. Call Run on its own goroutine before serving requests.
func New(opts Options) *Hub {
	return &Hub{
		logger:     opts.Logger.With().Str("component", "hub").Logger(),
		history:    opts.History,
		users:      opts.Users,
		verifier:   opts.Verifier,
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		inbound:    make(chan frame, 256),
		snapshots:  make(chan chan []string),
		conns:      make(map[*Conn]struct{}),
		rooms:      make(map[string]map[*Conn]struct{}),
		presence:   newPresenceRegistry(),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run executes the hub's event loop until Close is called.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case c := <-h.register:
			h.conns[c] = struct{}{}
			metrics.ConnectionsActive.Set(float64(len(h.conns)))
			c.logger.Debug().Msg("connection registered")

		case c := <-h.unregister:
			h.drop(c)

		case f := <-h.inbound:
			if f.err != nil {
				h.sendTo(f.conn, encodeError(f.err.Error()))
				continue
			}
			h.handle(f.conn, f.event)

		case reply := <-h.snapshots:
			reply <- h.presence.Snapshot()

		case <-h.done:
			for c := range h.conns {
				close(c.send)
			}
			h.conns = make(map[*Conn]struct{})
			h.rooms = make(map[string]map[*Conn]struct{})
			metrics.ConnectionsActive.Set(0)
			return
		}
	}
}

// Close stops the run loop and closes every connection. Safe to call more
// than once; returns after the loop has exited.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped
}

// OnlineUsers returns the identities currently present, for the REST
// snapshot endpoint. Returns nil after Close.
func (h *Hub) OnlineUsers() []string {
	reply := make(chan []string, 1)
	select {
	case h.snapshots <- reply:
		return <-reply
	case <-h.done:
		return nil
	}
}

// handle dispatches one validated inbound event. Runs on the loop goroutine.
func (h *Hub) handle(c *Conn, ev *Inbound) {
	if _, ok := h.conns[c]; !ok {
		// Frame raced with a drop; the connection is already gone.
		return
	}

	switch ev.Kind {
	case EventUserOnline:
		h.announcePresence(c, ev.User)
	case EventJoinConversation:
		h.joinRoom(c, ev.ConversationID)
	case EventSendMessage:
		h.relayMessage(c, ev.Message)
	case EventTyping:
		h.relayTyping(c, ev.Typing)
	}
}

// announcePresence upserts the presence entry for identity and broadcasts
// the new snapshot to every connection. Duplicate announces overwrite.
func (h *Hub) announcePresence(c *Conn, identity string) {
	if c.identity != "" && identity != c.identity {
		h.sendTo(c, encodeError("identity does not match session token"))
		return
	}
	h.presence.Set(identity, c.ID)
	c.logger.Debug().Str("user", identity).Msg("presence announced")
	h.broadcastPresence()
}

// joinRoom subscribes the connection to a conversation's broadcast scope.
// Idempotent; there is no membership cap.
func (h *Hub) joinRoom(c *Conn, conversationID string) {
	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[*Conn]struct{})
		h.rooms[conversationID] = room
	}
	room[c] = struct{}{}
	c.logger.Debug().Str("conversation", conversationID).Msg("joined conversation")
}

// relayMessage forwards a chat message to every subscriber of its
// conversation, the sender included. Delivery is fire-and-forget.
func (h *Hub) relayMessage(c *Conn, msg *models.ChatMessage) {
	if c.identity != "" {
		// Verified sessions cannot impersonate other senders.
		msg.User = c.identity
	}

	data, err := Encode(EventNewMessage, msg)
	if err != nil {
		c.logger.Error().Err(err).Msg("encode new-message")
		return
	}

	for sub := range h.rooms[msg.ConversationID] {
		h.sendTo(sub, data)
	}
	metrics.EventsRelayed.WithLabelValues(EventNewMessage).Inc()

	h.recordMessage(msg)
}

// relayTyping forwards a typing notice to every other subscriber of the
// conversation. No debouncing and no TTL: a client that disconnects
// mid-type leaves its last notice standing on the receivers.
func (h *Hub) relayTyping(c *Conn, ts *models.TypingStatus) {
	if c.identity != "" {
		ts.User = c.identity
	}

	data, err := Encode(EventUserTyping, ts)
	if err != nil {
		c.logger.Error().Err(err).Msg("encode user-typing")
		return
	}

	for sub := range h.rooms[ts.ConversationID] {
		if sub == c {
			continue
		}
		h.sendTo(sub, data)
	}
	metrics.EventsRelayed.WithLabelValues(EventUserTyping).Inc()
}

// broadcastPresence pushes the full presence snapshot to all connections.
func (h *Hub) broadcastPresence() {
	users := h.presence.Snapshot()
	metrics.OnlineUsers.Set(float64(len(users)))

	data, err := Encode(EventOnlineUsers, users)
	if err != nil {
		h.logger.Error().Err(err).Msg("encode online-users")
		return
	}
	for c := range h.conns {
		h.sendTo(c, data)
	}
	metrics.EventsRelayed.WithLabelValues(EventOnlineUsers).Inc()
}

// sendTo queues a frame for one connection. A consumer whose buffer is full
// is dropped: it must never be allowed to stall the loop.
func (h *Hub) sendTo(c *Conn, data []byte) {
	if _, ok := h.conns[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		metrics.SlowConsumersDropped.Inc()
		c.logger.Warn().Msg("send buffer full, dropping connection")
		h.drop(c)
	}
}

// drop removes a connection from the hub: the connection set, every room it
// joined, and its presence entry. Re-broadcasts presence if an identity went
// offline. Runs on the loop goroutine; safe against double unregister.
func (h *Hub) drop(c *Conn) {
	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)
	close(c.send)
	metrics.ConnectionsActive.Set(float64(len(h.conns)))

	for id, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}

	identity, wentOffline := h.presence.RemoveConn(c.ID)
	c.logger.Debug().Bool("had_identity", wentOffline).Msg("connection dropped")
	if wentOffline {
		h.touchLastSeen(identity)
		h.broadcastPresence()
	}
}

// recordMessage hands a relayed message to the history collaborator without
// blocking the loop.
func (h *Hub) recordMessage(msg *models.ChatMessage) {
	if h.history == nil {
		return
	}
	stored := &models.StoredMessage{
		ConversationID: msg.ConversationID,
		Text:           msg.Text,
		User:           msg.User,
		FileURL:        msg.FileURL,
		SentAt:         msg.SentAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		if err := h.history.AddMessage(ctx, stored); err != nil {
			h.logger.Warn().Err(err).Msg("history write failed")
			return
		}
		metrics.MessagesRecorded.Inc()
	}()
}

// touchLastSeen stamps the user directory when an identity goes offline.
func (h *Hub) touchLastSeen(identity string) {
	if h.users == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		if err := h.users.TouchLastSeen(ctx, identity); err != nil {
			h.logger.Warn().Err(err).Str("user", identity).Msg("last-seen write failed")
		}
	}()
}
