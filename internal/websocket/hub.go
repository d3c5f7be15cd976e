package websocket

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"poll-service/internal/services"
)

// PollMessage represents a payload to fan out to one poll's subscribers
type PollMessage struct {
	PollID uint   `json:"pollId"` // Target poll identifier
	Data   []byte `json:"data"`   // Serialized message data (JSON)
}

// Hub coordinates WebSocket clients and bridges Redis Pub/Sub into local
// fan-out. Tally updates published by the worker arrive over Redis, so
// every running instance delivers them to its own subscribers.
type Hub struct {
	Register   chan *Client     // Channel for registering new clients
	Unregister chan *Client     // Channel for unregistering/disconnecting clients
	Broadcast  chan PollMessage // Channel for fanning messages out to a poll's audience

	cache *SubscriptionCache
	redis *services.RedisService

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates and initializes a new Hub instance. redisService may be
// nil, in which case the Pub/Sub bridge is disabled and only local
// broadcasts are delivered.
func NewHub(redisService *services.RedisService) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	hub := &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan PollMessage, 64),
		redis:      redisService,
		ctx:        ctx,
		cancel:     cancel,
	}
	hub.cache = NewSubscriptionCache(hub)
	return hub
}

// Run starts the hub's main event loop. Blocks until Stop is called.
func (h *Hub) Run() {
	if h.redis != nil {
		go h.redisListener()
	}

	for {
		select {
		case client := <-h.Register:
			h.cache.AddConnection(client)
			client.Send(NewConnectMessage(uuid.New().String(), client.ID))
			log.Printf("Client registered: %s", client.ID)

		case client := <-h.Unregister:
			if h.cache.IsConnected(client.ID) {
				h.cache.RemoveConnection(client.ID)
				client.Conn.Close()
				log.Printf("Client unregistered: %s", client.ID)
			}

		case msg := <-h.Broadcast:
			if err := h.cache.BroadcastToPoll(msg.PollID, msg.Data); err != nil {
				log.Printf("Broadcast to poll %d failed: %v", msg.PollID, err)
			}

		case <-h.ctx.Done():
			log.Printf("WebSocket hub shutting down")
			return
		}
	}
}

// Stop shuts down the hub loop and the Redis bridge.
func (h *Hub) Stop() {
	h.cancel()
}

// Subscribe adds the client to a poll's audience.
func (h *Hub) Subscribe(c *Client, pollID uint) {
	h.cache.Subscribe(c.ID, pollID)
	log.Printf("Client %s subscribed to poll %d", c.ID, pollID)
}

// Unsubscribe removes the client from a poll's audience.
func (h *Hub) Unsubscribe(c *Client, pollID uint) {
	h.cache.Unsubscribe(c.ID, pollID)
	log.Printf("Client %s unsubscribed from poll %d", c.ID, pollID)
}

// Subscriptions exposes the cache for handlers and monitoring.
func (h *Hub) Subscriptions() *SubscriptionCache {
	return h.cache
}

// BroadcastTally wraps a tally payload and enqueues it for the poll's
// local subscribers.
func (h *Hub) BroadcastTally(pollID uint, payload []byte) {
	msg := NewTallyMessage(uuid.New().String(), pollID, payload)
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal tally message: %v", err)
		return
	}

	select {
	case h.Broadcast <- PollMessage{PollID: pollID, Data: data}:
	case <-h.ctx.Done():
	}
}

// redisListener bridges the worker's Pub/Sub notifications into the hub.
// Runs until the hub context is cancelled.
func (h *Hub) redisListener() {
	pubsub := h.redis.PSubscribe(h.ctx, services.PollEventsPattern)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			pollID, valid := pollIDFromChannel(msg.Channel)
			if !valid {
				log.Printf("Ignoring Pub/Sub message on unexpected channel %q", msg.Channel)
				continue
			}
			h.BroadcastTally(pollID, []byte(msg.Payload))

		case <-h.ctx.Done():
			return
		}
	}
}

// pollIDFromChannel extracts the poll id from a Pub/Sub channel name like
// "poll:42:events".
func pollIDFromChannel(channel string) (uint, bool) {
	if !strings.HasPrefix(channel, "poll:") || !strings.HasSuffix(channel, ":events") {
		return 0, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(channel, "poll:"), ":events")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
