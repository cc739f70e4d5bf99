package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
)

type socketEmitter struct {
	conn socketio.Conn
}

func (e socketEmitter) Emit(event string, payload interface{}) {
	e.conn.Emit(event, payload)
}

// NewSocketServer builds the socket.io transport. Each connection carries
// its Session in the socket context.
func (g *Gateway) NewSocketServer(checkOrigin func(r *http.Request) bool) *socketio.Server {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{CheckOrigin: checkOrigin},
			&polling.Transport{CheckOrigin: checkOrigin},
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		u := s.URL()
		req := &http.Request{URL: &u, Header: s.RemoteHeader()}
		self, err := authenticate(context.Background(), g.svc.Directory, tokenFrom(req))
		if err != nil {
			logger.Info().Str("socket_id", s.ID()).Msg("Socket connection rejected")
			return err
		}

		session := NewSession(self, g.svc, socketEmitter{conn: s})
		s.SetContext(session)
		s.Join(self.ID)
		g.track(session)
		logger.Info().Str("socket_id", s.ID()).Str("user_id", self.ID).Msg("Socket authenticated")
		return nil
	})

	on := func(event string) {
		server.OnEvent("/", event, func(s socketio.Conn, args map[string]interface{}) {
			session, ok := s.Context().(*Session)
			if !ok {
				return
			}
			var raw json.RawMessage
			if len(args) > 0 {
				raw, _ = json.Marshal(args)
			}
			session.Handle(event, raw)
		})
	}
	for _, event := range []string{
		EventOpenInbox,
		EventOpenConversation,
		EventCloseConversation,
		EventSendMessage,
		EventOpenNotifications,
		EventReadNotifications,
	} {
		on(event)
	}

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if session, ok := s.Context().(*Session); ok {
			g.release(session)
		}
		logger.Debug().Str("socket_id", s.ID()).Str("reason", reason).Msg("Socket closed")
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logger.Warn().Err(e).Msg("Socket error")
	})

	return server
}

// SocketHandler mounts a socket.io server on gin.
func SocketHandler(server *socketio.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		server.ServeHTTP(c.Writer, c.Request)
	}
}
