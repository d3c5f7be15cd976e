package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType represents the type of WebSocket message using a custom enum type for better type safety
type MessageType string

// WebSocket message types - live poll results functionality
const (
	// Connection events
	MessageTypeConnect    MessageType = "connection.connect"
	MessageTypeDisconnect MessageType = "connection.disconnect"

	// Poll subscription events
	MessageTypeSubscribe   MessageType = "poll.subscribe"
	MessageTypeUnsubscribe MessageType = "poll.unsubscribe"
	MessageTypeTallyUpdate MessageType = "poll.tally"

	// Error events
	MessageTypeError MessageType = "error"
)

// String returns the string representation of the MessageType.
func (mt MessageType) String() string {
	return string(mt)
}

// IsValid checks if the MessageType is a valid enum value.
func (mt MessageType) IsValid() bool {
	switch mt {
	case MessageTypeConnect, MessageTypeDisconnect, MessageTypeSubscribe,
		MessageTypeUnsubscribe, MessageTypeTallyUpdate, MessageTypeError:
		return true
	default:
		return false
	}
}

// Base message structure with typed MessageType for better type safety
type Message struct {
	ID        string                 `json:"id"`
	Type      MessageType            `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// Validate validates the message structure and type.
func (m *Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message ID is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid message type: %s", m.Type)
	}
	if m.Data == nil {
		m.Data = make(map[string]interface{})
	}
	return nil
}

// SubscribeRequest is the payload clients send to follow or leave a poll
type SubscribeRequest struct {
	Action string `json:"action"`  // "subscribe" or "unsubscribe"
	PollID uint   `json:"poll_id"` // Target poll identifier
}

// Message constructors for type safety and consistency

// NewMessage creates a new message with the specified type and data.
func NewMessage(id string, msgType MessageType, data map[string]interface{}) *Message {
	if data == nil {
		data = make(map[string]interface{})
	}
	return &Message{
		ID:        id,
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// NewConnectMessage creates a connection success message.
func NewConnectMessage(id, clientID string) *Message {
	return NewMessage(id, MessageTypeConnect, map[string]interface{}{
		"client_id": clientID,
		"status":    "connected",
	})
}

// NewErrorMessage creates an error message.
func NewErrorMessage(id, code, message string) *Message {
	return NewMessage(id, MessageTypeError, map[string]interface{}{
		"code":    code,
		"message": message,
	})
}

// NewSubscribedMessage confirms a poll subscription change to the client.
func NewSubscribedMessage(id string, msgType MessageType, pollID uint) *Message {
	return NewMessage(id, msgType, map[string]interface{}{
		"poll_id": pollID,
	})
}

// NewTallyMessage wraps a tally update payload for delivery. The payload is
// the JSON the worker published, forwarded without re-encoding its fields.
func NewTallyMessage(id string, pollID uint, payload []byte) *Message {
	dataMap := make(map[string]interface{})
	if err := json.Unmarshal(payload, &dataMap); err != nil {
		dataMap = map[string]interface{}{"raw": string(payload)}
	}
	dataMap["poll_id"] = pollID
	return NewMessage(id, MessageTypeTallyUpdate, dataMap)
}
