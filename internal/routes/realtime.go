package routes

import (
	"github.com/Xeladesign/shok/internal/gateway"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
)

// RegisterRealtimeRoutes mounts the WebSocket shell at /ws and the socket.io
// shell at /socket.io. Both authenticate with the token query parameter.
func RegisterRealtimeRoutes(r gin.IRouter, gw *gateway.Gateway, sio *socketio.Server) {
	r.GET("/ws", gw.ServeWS)
	if sio != nil {
		r.GET("/socket.io/*any", gateway.SocketHandler(sio))
		r.POST("/socket.io/*any", gateway.SocketHandler(sio))
	}
}
