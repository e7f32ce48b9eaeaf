package hub

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/metrics"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Ping period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size. Chat payloads carry text and URLs only.
	maxFrameSize = 8 * 1024

	// Per-connection outbound buffer. A consumer that falls this far behind
	// is dropped rather than allowed to block the hub.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser client connects from arbitrary origins; access control for
	// everything but the relay lives with the identity provider.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Conn is one live websocket session tracked by the hub.
type Conn struct {
	// ID is the ephemeral connection identifier. It exists only for the
	// lifetime of the socket.
	ID string

	// identity is the verified user identity when the hub runs with a token
	// verifier, empty in trust mode.
	identity string

	hub    *Hub
	socket *websocket.Conn
	send   chan []byte
	logger zerolog.Logger
}

// ServeWS upgrades an HTTP request to a websocket session and registers it
// with the hub. This is the transport endpoint's handler.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	var identity string
	if h.verifier != nil {
		id, err := h.verifier.Identity(r.URL.Query().Get("token"))
		if err != nil {
			h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("socket token rejected")
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		identity = id
	}

	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	c := &Conn{
		ID:       uuid.NewString(),
		identity: identity,
		hub:      h,
		socket:   socket,
		send:     make(chan []byte, sendBuffer),
	}
	c.logger = h.logger.With().Str("conn_id", c.ID).Logger()

	select {
	case h.register <- c:
	case <-h.done:
		socket.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump reads frames from the socket, decodes and validates them, and
// hands them to the hub's run loop. It owns all reads on the socket.
func (c *Conn) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxFrameSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Warn().Err(err).Msg("read failed")
			}
			return
		}

		ev, err := DecodeInbound(raw)
		if err != nil {
			metrics.FramesRejected.Inc()
			c.logger.Warn().Err(err).Msg("frame rejected")
		}

		// Rejected frames still travel through the run loop so the error
		// reply is serialized with every other write to this connection.
		select {
		case c.hub.inbound <- frame{conn: c, event: ev, err: err}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with pings. It owns all writes on the socket.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel: the connection was dropped.
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
