package handlers

import (
	"log"

	"github.com/gin-gonic/gin"

	"poll-service/internal/models"
	"poll-service/internal/websocket"
)

type WSHandler struct {
	hub *websocket.Hub
}

func NewWSHandler(hub *websocket.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Establish a WebSocket connection for live poll results. Clients subscribe to polls with {"action":"subscribe","poll_id":N} frames and receive tally updates as votes arrive. Guests may connect; a bearer token or user_id query parameter identifies signed-in users.
// @Tags websocket
// @Accept json
// @Produce json
// @Param user_id query int false "User ID when not sending a bearer token"
// @Success 101 "Switching Protocols - WebSocket connection established"
// @Failure 400 {object} map[string]interface{} "Bad request - malformed user_id parameter"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// Browsers cannot set headers on WebSocket requests, so the user id may
	// arrive as a query parameter instead of a token.
	userID := optionalUserID(c)
	if userID == nil {
		if raw := c.Query("user_id"); raw != "" {
			id, ok := models.ParseID(raw)
			if !ok {
				log.Printf("🔴 WebSocket connection rejected: invalid user_id %q", raw)
				c.JSON(400, gin.H{"error": "invalid user_id parameter"})
				return
			}
			userID = &id
		}
	}

	websocket.ServeWS(h.hub, c.Writer, c.Request, userID)
}
