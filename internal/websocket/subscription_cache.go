package websocket

import (
	"sync"
	"time"
)

// ConnectionMetadata stores additional information about each connection
type ConnectionMetadata struct {
	ClientID     string        `json:"clientId"`         // Connection identifier
	UserID       *uint         `json:"userId,omitempty"` // Signed-in user, nil for guests
	ConnectedAt  time.Time     `json:"connectedAt"`      // When the connection was established
	LastActivity time.Time     `json:"lastActivity"`     // Last time the connection was active
	Polls        map[uint]bool `json:"polls"`            // Set of polls the connection follows
}

// SubscriptionCache tracks which connections follow which polls and
// provides the fan-out primitives the hub uses
type SubscriptionCache struct {
	// connections maps connection ID to the live client
	connections map[string]*Client

	// pollClients maps poll ID to the set of connection IDs following it
	pollClients map[uint]map[string]bool

	// connectionMetadata stores additional info about each connection
	connectionMetadata map[string]*ConnectionMetadata

	// Thread safety
	mu sync.RWMutex

	// Reference to the hub for dropping failed connections
	hub *Hub
}

// Broadcaster interface defines methods for targeted message delivery
type Broadcaster interface {
	// BroadcastToPoll sends a message to every connection following a poll
	BroadcastToPoll(pollID uint, message []byte) error

	// BroadcastToClient sends a message to one specific connection
	BroadcastToClient(clientID string, message []byte) error

	// SubscribersOf returns the connection IDs following a poll
	SubscribersOf(pollID uint) []string

	// Connections returns all currently connected client IDs
	Connections() []string

	// IsConnected checks if a specific connection is still registered
	IsConnected(clientID string) bool
}

// NewSubscriptionCache creates and initializes a new SubscriptionCache
func NewSubscriptionCache(hub *Hub) *SubscriptionCache {
	return &SubscriptionCache{
		connections:        make(map[string]*Client),
		pollClients:        make(map[uint]map[string]bool),
		connectionMetadata: make(map[string]*ConnectionMetadata),
		hub:                hub,
	}
}

// AddConnection registers a new connection in the cache
func (sc *SubscriptionCache) AddConnection(client *Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.connections[client.ID] = client

	// Initialize connection metadata
	sc.connectionMetadata[client.ID] = &ConnectionMetadata{
		ClientID:     client.ID,
		UserID:       client.UserID,
		ConnectedAt:  time.Now(),
		LastActivity: time.Now(),
		Polls:        make(map[uint]bool),
	}
}

// RemoveConnection removes a connection from the cache
func (sc *SubscriptionCache) RemoveConnection(clientID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Remove the connection from every poll it was following
	if metadata, exists := sc.connectionMetadata[clientID]; exists {
		for pollID := range metadata.Polls {
			if subscribers, pollExists := sc.pollClients[pollID]; pollExists {
				delete(subscribers, clientID)
				// Clean up empty poll entries
				if len(subscribers) == 0 {
					delete(sc.pollClients, pollID)
				}
			}
		}
	}

	// Remove connection and metadata
	delete(sc.connections, clientID)
	delete(sc.connectionMetadata, clientID)
}

// Subscribe adds a connection to a poll's audience
func (sc *SubscriptionCache) Subscribe(clientID string, pollID uint) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Initialize the poll's subscriber set if it doesn't exist
	if sc.pollClients[pollID] == nil {
		sc.pollClients[pollID] = make(map[string]bool)
	}

	sc.pollClients[pollID][clientID] = true

	// Update connection metadata
	if metadata, exists := sc.connectionMetadata[clientID]; exists {
		metadata.Polls[pollID] = true
		metadata.LastActivity = time.Now()
	}
}

// Unsubscribe removes a connection from a poll's audience
func (sc *SubscriptionCache) Unsubscribe(clientID string, pollID uint) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if subscribers, exists := sc.pollClients[pollID]; exists {
		delete(subscribers, clientID)
		// Clean up empty poll entries
		if len(subscribers) == 0 {
			delete(sc.pollClients, pollID)
		}
	}

	// Update connection metadata
	if metadata, exists := sc.connectionMetadata[clientID]; exists {
		delete(metadata.Polls, pollID)
		metadata.LastActivity = time.Now()
	}
}

// SubscribersOf returns the connection IDs following a specific poll
func (sc *SubscriptionCache) SubscribersOf(pollID uint) []string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	subscribers, exists := sc.pollClients[pollID]
	if !exists {
		return []string{}
	}

	result := make([]string, 0, len(subscribers))
	for clientID := range subscribers {
		// Double-check that the connection is still registered
		if _, connected := sc.connections[clientID]; connected {
			result = append(result, clientID)
		}
	}

	return result
}

// Connections returns all currently connected client IDs
func (sc *SubscriptionCache) Connections() []string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	result := make([]string, 0, len(sc.connections))
	for clientID := range sc.connections {
		result = append(result, clientID)
	}

	return result
}

// IsConnected checks if a specific connection is still registered
func (sc *SubscriptionCache) IsConnected(clientID string) bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	_, exists := sc.connections[clientID]
	return exists
}

// GetConnection returns the client for a specific connection ID
func (sc *SubscriptionCache) GetConnection(clientID string) (*Client, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	client, exists := sc.connections[clientID]
	return client, exists
}

// GetConnectionMetadata returns metadata for a specific connection
func (sc *SubscriptionCache) GetConnectionMetadata(clientID string) (*ConnectionMetadata, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	metadata, exists := sc.connectionMetadata[clientID]
	return metadata, exists
}

// UpdateLastActivity updates the last activity timestamp for a connection
func (sc *SubscriptionCache) UpdateLastActivity(clientID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if metadata, exists := sc.connectionMetadata[clientID]; exists {
		metadata.LastActivity = time.Now()
	}
}

// BroadcastToPoll sends a message to every connection following a poll
func (sc *SubscriptionCache) BroadcastToPoll(pollID uint, message []byte) error {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	subscribers, exists := sc.pollClients[pollID]
	if !exists {
		return nil // Nobody following this poll
	}

	var lastError error
	for clientID := range subscribers {
		if client, connected := sc.connections[clientID]; connected {
			if err := client.Write(message); err != nil {
				lastError = err
				// Drop the failed connection through the hub
				go func(c *Client) {
					sc.hub.Unregister <- c
				}(client)
			}
		}
	}

	return lastError
}

// BroadcastToClient sends a message to one specific connection
func (sc *SubscriptionCache) BroadcastToClient(clientID string, message []byte) error {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	client, exists := sc.connections[clientID]
	if !exists {
		return nil // Connection already gone
	}

	err := client.Write(message)
	if err != nil {
		go func(c *Client) {
			sc.hub.Unregister <- c
		}(client)
	}

	return err
}
