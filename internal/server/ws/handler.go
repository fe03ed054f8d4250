package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// HTTP upgrade handler for the notification stream

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// allow all origins for development purpose; can restrict later
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades /ws/notifications/{identity}/ connections. The identity
// path segment must match the authenticated user: nobody subscribes to
// someone else's feed.
func Handler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		identity := c.Param("identity")
		if identity != userID.(string) {
			c.JSON(http.StatusForbidden, gin.H{"error": "identity does not match token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade to WebSocket"})
			return
		}

		client := NewClient(uuid.New().String(), identity, conn, hub)
		hub.register(client)

		go client.ReadPump()
		go client.WritePump()
	}
}
