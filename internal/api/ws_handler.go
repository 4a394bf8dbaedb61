package api

import (
	"coachlink/fitness-platform/internal/realtime"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token auth happens in the middleware; origin checks are left to the
	// reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades authenticated requests to websocket connections and
// registers them with the realtime hub.
type WSHandler struct {
	hub *realtime.Hub
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve godoc
// @Summary Open a realtime event stream
// @Description Upgrades to a websocket. The server pushes notification and
// @Description chat events; client frames are ignored.
// @Tags Realtime
// @Security BearerAuth
// @Success 101 "Switching protocols"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	userIDHex, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WARN: websocket upgrade failed for %s: %v", userIDHex, err)
		return
	}

	conn := &realtime.Conn{UserID: userIDHex, WS: ws}
	h.hub.Register(conn)

	// The stream is push-only. The read loop exists to detect the close and
	// drain control frames.
	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
