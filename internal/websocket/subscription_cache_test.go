package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockWebSocketConn is a mock implementation of the Conn interface for testing
type MockWebSocketConn struct {
	inbound  chan []byte
	messages [][]byte
	closed   bool
	mu       sync.Mutex
}

func newMockConn() *MockWebSocketConn {
	return &MockWebSocketConn{inbound: make(chan []byte, 8)}
}

func (m *MockWebSocketConn) ReadMessage() (int, []byte, error) {
	data, ok := <-m.inbound
	if !ok {
		return 0, nil, websocket.ErrCloseSent
	}
	return websocket.TextMessage, data, nil
}

func (m *MockWebSocketConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return websocket.ErrCloseSent
	}

	m.messages = append(m.messages, data)
	return nil
}

func (m *MockWebSocketConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.inbound)
	}
	return nil
}

// Deliver queues an inbound frame for ReadMessage to return
func (m *MockWebSocketConn) Deliver(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.inbound <- data
	}
}

func (m *MockWebSocketConn) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([][]byte, len(m.messages))
	copy(result, m.messages)
	return result
}

func (m *MockWebSocketConn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Helper function to create a test client with mock connection
func createTestClient() *Client {
	return NewClient(newMockConn(), nil)
}

func TestNewSubscriptionCache(t *testing.T) {
	hub := &Hub{}
	cache := NewSubscriptionCache(hub)

	assert.NotNil(t, cache)
	assert.Equal(t, hub, cache.hub)
	assert.NotNil(t, cache.connections)
	assert.NotNil(t, cache.pollClients)
	assert.NotNil(t, cache.connectionMetadata)
}

func TestAddConnection(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})
	client := createTestClient()

	// Test adding a connection
	cache.AddConnection(client)

	// Verify connection was added
	assert.True(t, cache.IsConnected(client.ID))

	// Verify metadata was created
	metadata, exists := cache.GetConnectionMetadata(client.ID)
	require.True(t, exists)
	assert.Equal(t, client.ID, metadata.ClientID)
	assert.Nil(t, metadata.UserID)
	assert.NotZero(t, metadata.ConnectedAt)
	assert.NotZero(t, metadata.LastActivity)
	assert.NotNil(t, metadata.Polls)
}

func TestRemoveConnection(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})
	client := createTestClient()

	// Add connection and a subscription first
	cache.AddConnection(client)
	cache.Subscribe(client.ID, 100)

	// Verify connection exists
	assert.True(t, cache.IsConnected(client.ID))
	assert.Contains(t, cache.SubscribersOf(100), client.ID)

	// Remove connection
	cache.RemoveConnection(client.ID)

	// Verify connection was removed along with its subscriptions
	assert.False(t, cache.IsConnected(client.ID))
	assert.NotContains(t, cache.SubscribersOf(100), client.ID)

	// Verify metadata was removed
	_, exists := cache.GetConnectionMetadata(client.ID)
	assert.False(t, exists)
}

func TestSubscribe(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})
	client := createTestClient()

	// Add connection first
	cache.AddConnection(client)

	// Follow a poll
	cache.Subscribe(client.ID, 100)

	// Verify the connection is in the poll's audience
	assert.Contains(t, cache.SubscribersOf(100), client.ID)

	// Verify metadata was updated
	metadata, exists := cache.GetConnectionMetadata(client.ID)
	require.True(t, exists)
	assert.True(t, metadata.Polls[100])
}

func TestUnsubscribe(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})
	client := createTestClient()

	// Add connection and subscription
	cache.AddConnection(client)
	cache.Subscribe(client.ID, 100)
	assert.Contains(t, cache.SubscribersOf(100), client.ID)

	// Leave the poll
	cache.Unsubscribe(client.ID, 100)

	// Verify the connection left the audience
	assert.NotContains(t, cache.SubscribersOf(100), client.ID)

	// Verify metadata was updated
	metadata, exists := cache.GetConnectionMetadata(client.ID)
	require.True(t, exists)
	assert.False(t, metadata.Polls[100])
}

func TestSubscribersOf(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})

	// Add multiple connections
	client1 := createTestClient()
	client2 := createTestClient()
	client3 := createTestClient()

	cache.AddConnection(client1)
	cache.AddConnection(client2)
	cache.AddConnection(client3)

	// Spread them across two polls
	cache.Subscribe(client1.ID, 100)
	cache.Subscribe(client2.ID, 100)
	cache.Subscribe(client3.ID, 200)

	// Test poll 100
	subscribers100 := cache.SubscribersOf(100)
	assert.Len(t, subscribers100, 2)
	assert.Contains(t, subscribers100, client1.ID)
	assert.Contains(t, subscribers100, client2.ID)
	assert.NotContains(t, subscribers100, client3.ID)

	// Test poll 200
	subscribers200 := cache.SubscribersOf(200)
	assert.Len(t, subscribers200, 1)
	assert.Contains(t, subscribers200, client3.ID)

	// Test a poll nobody follows
	assert.Empty(t, cache.SubscribersOf(300))
}

func TestConnections(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})

	// Initially no connections
	assert.Empty(t, cache.Connections())

	client1 := createTestClient()
	client2 := createTestClient()
	cache.AddConnection(client1)
	cache.AddConnection(client2)

	connections := cache.Connections()
	assert.Len(t, connections, 2)
	assert.Contains(t, connections, client1.ID)
	assert.Contains(t, connections, client2.ID)
}

func TestBroadcastToPoll(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})

	client1 := createTestClient()
	client2 := createTestClient()
	client3 := createTestClient()

	cache.AddConnection(client1)
	cache.AddConnection(client2)
	cache.AddConnection(client3)

	cache.Subscribe(client1.ID, 100)
	cache.Subscribe(client2.ID, 100)
	// client3 does not follow poll 100

	// Broadcast to the poll's audience
	message := []byte("tally update")
	err := cache.BroadcastToPoll(100, message)
	assert.NoError(t, err)

	// Verify delivery went to subscribers only
	messages1 := client1.Conn.(*MockWebSocketConn).GetMessages()
	messages2 := client2.Conn.(*MockWebSocketConn).GetMessages()
	messages3 := client3.Conn.(*MockWebSocketConn).GetMessages()

	require.Len(t, messages1, 1)
	require.Len(t, messages2, 1)
	assert.Len(t, messages3, 0)

	assert.Equal(t, message, messages1[0])
	assert.Equal(t, message, messages2[0])

	// Broadcasting to a poll nobody follows is a no-op
	assert.NoError(t, cache.BroadcastToPoll(999, message))
}

func TestBroadcastToClient(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})
	client := createTestClient()
	cache.AddConnection(client)

	message := []byte("direct message")
	err := cache.BroadcastToClient(client.ID, message)
	assert.NoError(t, err)

	messages := client.Conn.(*MockWebSocketConn).GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, message, messages[0])

	// Unknown connections are skipped without error
	assert.NoError(t, cache.BroadcastToClient("missing", message))
}

func TestUpdateLastActivity(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})
	client := createTestClient()
	cache.AddConnection(client)

	// Get initial metadata
	metadata1, exists := cache.GetConnectionMetadata(client.ID)
	require.True(t, exists)
	initialActivity := metadata1.LastActivity

	// Wait a bit and update activity
	time.Sleep(10 * time.Millisecond)
	cache.UpdateLastActivity(client.ID)

	// Verify activity was updated
	metadata2, exists := cache.GetConnectionMetadata(client.ID)
	require.True(t, exists)
	assert.True(t, metadata2.LastActivity.After(initialActivity))
}

func TestPollCleanup(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})
	client := createTestClient()

	cache.AddConnection(client)
	cache.Subscribe(client.ID, 100)

	// Verify the audience exists
	assert.Len(t, cache.SubscribersOf(100), 1)

	// Leaving should clean up the empty audience entry
	cache.Unsubscribe(client.ID, 100)
	assert.Empty(t, cache.SubscribersOf(100))

	cache.mu.RLock()
	_, exists := cache.pollClients[100]
	cache.mu.RUnlock()
	assert.False(t, exists)
}

func TestConcurrentAccess(t *testing.T) {
	cache := NewSubscriptionCache(&Hub{})

	// Test concurrent operations
	var wg sync.WaitGroup
	numGoroutines := 10
	numOperations := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < numOperations; j++ {
				client := createTestClient()

				// Add connection
				cache.AddConnection(client)

				// Follow a poll
				cache.Subscribe(client.ID, 100)

				// Read paths
				cache.IsConnected(client.ID)
				cache.Connections()
				cache.SubscribersOf(100)

				// Broadcast to the poll
				cache.BroadcastToPoll(100, []byte("update"))

				// Leave and disconnect
				cache.Unsubscribe(client.ID, 100)
				cache.RemoveConnection(client.ID)
			}
		}()
	}

	wg.Wait()

	// Verify cache is empty after all operations
	assert.Empty(t, cache.Connections())
	assert.Empty(t, cache.SubscribersOf(100))
}
