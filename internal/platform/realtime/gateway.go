package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// VerifyFunc authenticates a raw bearer token and returns the user it
// belongs to.
type VerifyFunc func(token string) (uuid.UUID, error)

// ConversationKeyFunc derives the deterministic conversation key for a pair
// of users. The gateway never trusts a client-supplied key.
type ConversationKeyFunc func(a, b uuid.UUID) string

// Conn is the subset of a websocket connection the gateway uses. The gorilla
// connection satisfies it through gorillaConn; tests substitute fakes.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type gorillaConn struct {
	*websocket.Conn
}

func (g gorillaConn) ReadMessage() (int, []byte, error) {
	return g.Conn.ReadMessage()
}

// connection is one live client socket with its outbound queue.
type connection struct {
	id     string
	userID uuid.UUID
	conn   Conn
	send   chan []byte
	once   sync.Once
	done   chan struct{}
}

func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue drops the frame when the client's buffer is full. A slow consumer
// must never block routing for everyone else.
func (c *connection) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Gateway upgrades authenticated HTTP requests to websocket connections and
// routes chat events between them. It holds no chat state of its own; message
// persistence stays on the HTTP path.
type Gateway struct {
	presence Presence
	verify   VerifyFunc
	convKey  ConversationKeyFunc
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*connection
}

func NewGateway(presence Presence, verify VerifyFunc, convKey ConversationKeyFunc, logger zerolog.Logger) *Gateway {
	return &Gateway{
		presence: presence,
		verify:   verify,
		convKey:  convKey,
		logger:   logger.With().Str("component", "realtime").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect cross-origin during development; auth
			// happens on the token, not the Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]*connection),
	}
}

// HandleConnect is the echo handler for GET /ws. The token is verified before
// the upgrade so unauthenticated clients get a plain 401 instead of a socket
// that closes immediately.
func (g *Gateway) HandleConnect(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		if h := c.Request().Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	userID, err := g.verify(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	ws, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		return nil
	}

	g.Serve(c.Request().Context(), gorillaConn{ws}, userID)
	return nil
}

// Serve registers the connection and runs its pumps until the client goes
// away. Split from HandleConnect so tests can drive a fake Conn directly.
func (g *Gateway) Serve(ctx context.Context, conn Conn, userID uuid.UUID) {
	cn := &connection{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}

	g.register(ctx, cn)
	defer g.unregister(ctx, cn)

	go g.writePump(cn)
	g.readPump(ctx, cn)
}

func (g *Gateway) register(ctx context.Context, cn *connection) {
	g.mu.Lock()
	g.conns[cn.id] = cn
	g.mu.Unlock()

	if err := g.presence.MarkOnline(ctx, cn.userID, cn.id); err != nil {
		g.logger.Error().Err(err).Str("user_id", cn.userID.String()).Msg("mark online failed")
	}

	g.broadcast(EventUserOnline, PresencePayload{UserID: cn.userID}, cn.id)

	g.logger.Info().
		Str("user_id", cn.userID.String()).
		Str("conn_id", cn.id).
		Msg("client connected")
}

func (g *Gateway) unregister(ctx context.Context, cn *connection) {
	g.mu.Lock()
	delete(g.conns, cn.id)
	g.mu.Unlock()

	cn.close()

	if err := g.presence.MarkOffline(ctx, cn.id); err != nil {
		g.logger.Error().Err(err).Str("conn_id", cn.id).Msg("mark offline failed")
	}

	g.broadcast(EventUserOffline, PresencePayload{UserID: cn.userID}, cn.id)

	g.logger.Info().
		Str("user_id", cn.userID.String()).
		Str("conn_id", cn.id).
		Msg("client disconnected")
}

func (g *Gateway) readPump(ctx context.Context, cn *connection) {
	if ws, ok := cn.conn.(gorillaConn); ok {
		ws.SetReadLimit(maxMessageSize)
		ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		_, raw, err := cn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Debug().Err(err).Str("conn_id", cn.id).Msg("read error")
			}
			return
		}
		g.dispatch(ctx, cn, raw)
	}
}

func (g *Gateway) writePump(cn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-cn.send:
			if ws, ok := cn.conn.(gorillaConn); ok {
				ws.SetWriteDeadline(time.Now().Add(writeWait))
			}
			if err := cn.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				cn.close()
				return
			}
		case <-ticker.C:
			if ws, ok := cn.conn.(gorillaConn); ok {
				ws.SetWriteDeadline(time.Now().Add(writeWait))
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					cn.close()
					return
				}
			}
		case <-cn.done:
			return
		}
	}
}

// dispatch handles one inbound frame. Malformed or unknown frames are logged
// and dropped; a misbehaving client never takes the gateway down.
func (g *Gateway) dispatch(ctx context.Context, cn *connection, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.logger.Debug().Err(err).Str("conn_id", cn.id).Msg("malformed frame")
		return
	}

	switch env.Type {
	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.logger.Debug().Err(err).Str("conn_id", cn.id).Msg("malformed send-message payload")
			return
		}
		g.handleSendMessage(ctx, cn, p)
	case EventTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.logger.Debug().Err(err).Str("conn_id", cn.id).Msg("malformed typing payload")
			return
		}
		g.handleTyping(ctx, cn, p)
	default:
		g.logger.Debug().Str("type", env.Type).Str("conn_id", cn.id).Msg("unknown event type")
	}
}

func (g *Gateway) handleSendMessage(ctx context.Context, cn *connection, p SendMessagePayload) {
	if p.ReceiverID == uuid.Nil || p.Message == "" {
		return
	}

	out := ReceiveMessagePayload{
		SenderID:       cn.userID,
		Message:        p.Message,
		ConversationID: g.convKey(cn.userID, p.ReceiverID),
		Timestamp:      time.Now().UTC(),
	}
	// Offline receiver: drop silently. The message was already persisted over
	// HTTP and will surface on the receiver's next history fetch.
	g.sendToUser(ctx, p.ReceiverID, EventReceiveMessage, out)
}

func (g *Gateway) handleTyping(ctx context.Context, cn *connection, p TypingPayload) {
	if p.ReceiverID == uuid.Nil {
		return
	}
	g.sendToUser(ctx, p.ReceiverID, EventUserTyping, UserTypingPayload{
		SenderID: cn.userID,
		IsTyping: p.IsTyping,
	})
}

// sendToUser delivers an event to the user's current connection, if any.
func (g *Gateway) sendToUser(ctx context.Context, userID uuid.UUID, eventType string, payload interface{}) {
	connID, online, err := g.presence.Lookup(ctx, userID)
	if err != nil {
		g.logger.Error().Err(err).Str("user_id", userID.String()).Msg("presence lookup failed")
		return
	}
	if !online {
		return
	}

	g.mu.RLock()
	cn, ok := g.conns[connID]
	g.mu.RUnlock()
	if !ok {
		// Connection lives on another instance; this instance cannot reach it.
		return
	}

	frame, err := NewEnvelope(eventType, payload)
	if err != nil {
		g.logger.Error().Err(err).Str("type", eventType).Msg("encode event failed")
		return
	}
	if !cn.enqueue(frame) {
		g.logger.Warn().Str("user_id", userID.String()).Str("type", eventType).Msg("send buffer full, dropping event")
	}
}

// broadcast fans an event out to every local connection except the origin.
func (g *Gateway) broadcast(eventType string, payload interface{}, exceptConnID string) {
	frame, err := NewEnvelope(eventType, payload)
	if err != nil {
		g.logger.Error().Err(err).Str("type", eventType).Msg("encode event failed")
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for id, cn := range g.conns {
		if id == exceptConnID {
			continue
		}
		cn.enqueue(frame)
	}
}

// ConnCount reports the number of local live connections.
func (g *Gateway) ConnCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

// Shutdown closes every live connection.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	conns := make([]*connection, 0, len(g.conns))
	for _, cn := range g.conns {
		conns = append(conns, cn)
	}
	g.mu.Unlock()

	for _, cn := range conns {
		cn.close()
	}
}
