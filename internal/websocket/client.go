package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the package needs. Tests
// substitute an in-memory implementation.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		// Custom origins from environment variable
		if customOrigins := os.Getenv("ALLOWED_ORIGINS"); customOrigins != "" {
			for _, allowed := range strings.Split(customOrigins, ",") {
				if origin == strings.TrimSpace(allowed) {
					return true
				}
			}
		}

		// Allow localhost variations for development
		return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
	},
}

// Client represents one WebSocket viewer connection
type Client struct {
	ID     string // Connection identifier, unique per socket
	UserID *uint  // Signed-in user behind the socket, nil for guests
	Conn   Conn

	mu sync.Mutex // Serializes writes to the connection
}

func NewClient(conn Conn, userID *uint) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
	}
}

// Send marshals the message and writes it to the connection.
func (c *Client) Send(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.Write(data)
}

// Write pushes raw bytes to the peer. Writes are serialized so hub
// fan-out and subscription acks never interleave frames.
func (c *Client) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Listen processes incoming subscription messages from the client.
// Runs in a separate goroutine for each connection and unregisters the
// client when the connection drops.
func (c *Client) Listen(hub *Hub) {
	defer func() {
		hub.Unregister <- c
	}()

	log.Printf("🟢 Client %s: started listening", c.ID)

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("🔴 Client %s: read error: %v", c.ID, err)
			} else {
				log.Printf("🟡 Client %s: connection closed", c.ID)
			}
			break
		}

		var req SubscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			log.Printf("🔴 Client %s: JSON decode error: %v", c.ID, err)
			c.Send(NewErrorMessage(uuid.New().String(), "INVALID_MESSAGE", "Invalid message format"))
			continue
		}

		switch req.Action {
		case "subscribe":
			hub.Subscribe(c, req.PollID)
			c.Send(NewSubscribedMessage(uuid.New().String(), MessageTypeSubscribe, req.PollID))

		case "unsubscribe":
			hub.Unsubscribe(c, req.PollID)
			c.Send(NewSubscribedMessage(uuid.New().String(), MessageTypeUnsubscribe, req.PollID))

		default:
			log.Printf("⚠️ Client %s: unknown action %q", c.ID, req.Action)
			c.Send(NewErrorMessage(uuid.New().String(), "UNKNOWN_ACTION", "Supported actions are subscribe and unsubscribe"))
		}
	}
}

// ServeWS upgrades the HTTP request and hands the connection to the hub.
// userID is nil for unauthenticated viewers; results are public, so
// guests may follow polls too.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, userID *uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("🔴 WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, userID)
	hub.Register <- client

	go client.Listen(hub)
}
