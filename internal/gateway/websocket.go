package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxFrameSize   = 16 << 10
	sendBufferSize = 256
)

// Envelope is the frame format of the WebSocket transport.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Gateway serves realtime sessions over WebSocket and socket.io.
type Gateway struct {
	svc      Services
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewGateway(svc Services, checkOrigin func(r *http.Request) bool) *Gateway {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Gateway{
		svc:      svc,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		sessions: make(map[string]*Session),
	}
}

// Sessions returns the number of connected sessions across transports.
func (g *Gateway) Sessions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

func (g *Gateway) track(s *Session) {
	g.mu.Lock()
	g.sessions[s.ID] = s
	g.mu.Unlock()
}

func (g *Gateway) release(s *Session) {
	g.mu.Lock()
	delete(g.sessions, s.ID)
	g.mu.Unlock()
	s.Close()
}

// Close ends every session.
func (g *Gateway) Close() {
	g.mu.Lock()
	sessions := make([]*Session, 0, len(g.sessions))
	for _, s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.sessions = make(map[string]*Session)
	g.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// ServeWS authenticates, upgrades and runs one WebSocket session.
func (g *Gateway) ServeWS(c *gin.Context) {
	self, err := authenticate(c.Request.Context(), g.svc.Directory, tokenFrom(c.Request))
	if err != nil {
		appErr := apperrors.As(err)
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	session := NewSession(self, g.svc, client)
	client.log = logger.Component("ws").With().Str("session_id", session.ID).Str("user_id", self.ID).Logger()
	g.track(session)

	go client.writePump()
	go func() {
		client.readPump(session)
		g.release(session)
		client.shutdown()
	}()
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	log  zerolog.Logger

	once sync.Once
	done chan struct{}
}

// Emit queues an event. A client too slow to drain its buffer is dropped.
func (c *wsClient) Emit(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return
	}
	frame, err := json.Marshal(Envelope{Type: event, Data: data})
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- frame:
	default:
		c.log.Warn().Str("event", event).Msg("Send buffer full, dropping client")
		c.shutdown()
	}
}

func (c *wsClient) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *wsClient) readPump(s *Session) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.fail("invalid_json")
			continue
		}
		s.Handle(env.Type, env.Data)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker((pongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
