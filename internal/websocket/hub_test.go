package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollIDFromChannel(t *testing.T) {
	id, ok := pollIDFromChannel("poll:42:events")
	require.True(t, ok)
	assert.Equal(t, uint(42), id)

	// Non-numeric id
	_, ok = pollIDFromChannel("poll:abc:events")
	assert.False(t, ok)

	// Wrong prefix
	_, ok = pollIDFromChannel("channel:42:events")
	assert.False(t, ok)

	// Missing suffix
	_, ok = pollIDFromChannel("poll:42")
	assert.False(t, ok)

	// Empty id
	_, ok = pollIDFromChannel("poll::events")
	assert.False(t, ok)
}

func TestHubBroadcastTally(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	follower := createTestClient()
	bystander := createTestClient()

	hub.Register <- follower
	hub.Register <- bystander

	// Wait for the connect acks
	require.Eventually(t, func() bool {
		return len(follower.Conn.(*MockWebSocketConn).GetMessages()) == 1 &&
			len(bystander.Conn.(*MockWebSocketConn).GetMessages()) == 1
	}, time.Second, 10*time.Millisecond)

	var ack Message
	require.NoError(t, json.Unmarshal(follower.Conn.(*MockWebSocketConn).GetMessages()[0], &ack))
	assert.Equal(t, MessageTypeConnect, ack.Type)

	// Only the follower joins poll 7's audience
	hub.Subscribe(follower, 7)

	payload, err := json.Marshal(map[string]interface{}{"totalVotes": 3})
	require.NoError(t, err)
	hub.BroadcastTally(7, payload)

	// The follower receives the wrapped tally update
	require.Eventually(t, func() bool {
		return len(follower.Conn.(*MockWebSocketConn).GetMessages()) == 2
	}, time.Second, 10*time.Millisecond)

	var msg Message
	frames := follower.Conn.(*MockWebSocketConn).GetMessages()
	require.NoError(t, json.Unmarshal(frames[1], &msg))
	assert.Equal(t, MessageTypeTallyUpdate, msg.Type)
	assert.Equal(t, float64(7), msg.Data["poll_id"])
	assert.Equal(t, float64(3), msg.Data["totalVotes"])

	// The bystander never hears about poll 7
	assert.Len(t, bystander.Conn.(*MockWebSocketConn).GetMessages(), 1)
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	client := createTestClient()
	hub.Register <- client
	require.Eventually(t, func() bool {
		return hub.Subscriptions().IsConnected(client.ID)
	}, time.Second, 10*time.Millisecond)

	hub.Unregister <- client
	require.Eventually(t, func() bool {
		return !hub.Subscriptions().IsConnected(client.ID)
	}, time.Second, 10*time.Millisecond)

	// The hub closes the connection on unregister
	assert.True(t, client.Conn.(*MockWebSocketConn).IsClosed())
}

func TestListenSubscribeFlow(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	conn := newMockConn()
	client := NewClient(conn, nil)
	hub.Register <- client
	require.Eventually(t, func() bool {
		return hub.Subscriptions().IsConnected(client.ID)
	}, time.Second, 10*time.Millisecond)

	go client.Listen(hub)

	// Follow poll 9 over the wire
	conn.Deliver([]byte(`{"action":"subscribe","poll_id":9}`))
	require.Eventually(t, func() bool {
		return len(hub.Subscriptions().SubscribersOf(9)) == 1
	}, time.Second, 10*time.Millisecond)

	// A malformed frame produces an error reply but keeps the connection
	conn.Deliver([]byte(`{not json`))
	require.Eventually(t, func() bool {
		for _, frame := range conn.GetMessages() {
			var msg Message
			if json.Unmarshal(frame, &msg) == nil && msg.Type == MessageTypeError {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	assert.True(t, hub.Subscriptions().IsConnected(client.ID))

	// Leave the poll again
	conn.Deliver([]byte(`{"action":"unsubscribe","poll_id":9}`))
	require.Eventually(t, func() bool {
		return len(hub.Subscriptions().SubscribersOf(9)) == 0
	}, time.Second, 10*time.Millisecond)

	// Dropping the connection unregisters the client
	conn.Close()
	require.Eventually(t, func() bool {
		return !hub.Subscriptions().IsConnected(client.ID)
	}, time.Second, 10*time.Millisecond)
}
