package wire

import (
	"sync"
	"sync/atomic"
	"time"
)

// Connection is the server-side state of one wire client: the codec
// negotiated at connect time and the topics the client is watching.
// Event delivery itself lives in the stream subscriber; this type only
// carries bookkeeping the frame loop needs.
type Connection struct {
	// ID matches the transport connection and the broker subscriber.
	ID string

	// Codec is the frame encoding negotiated via the format query param.
	Codec Codec

	// ConnectedAt records when the client connected.
	ConnectedAt time.Time

	lastSeen atomic.Value // time.Time

	mu     sync.RWMutex
	topics map[string]time.Time // topic → subscribed at
}

// NewConnection creates the bookkeeping state for a new wire client.
func NewConnection(id string, codec Codec) *Connection {
	now := time.Now().UTC()
	c := &Connection{
		ID:          id,
		Codec:       codec,
		ConnectedAt: now,
		topics:      make(map[string]time.Time),
	}
	c.lastSeen.Store(now)
	return c
}

// Touch marks the connection as active. Called for every inbound frame.
func (c *Connection) Touch() {
	c.lastSeen.Store(time.Now().UTC())
}

// LastSeen returns when the client last sent a frame.
func (c *Connection) LastSeen() time.Time {
	return c.lastSeen.Load().(time.Time) //nolint:errcheck // lastSeen always holds time.Time
}

// Watch records that the client subscribed to a topic.
func (c *Connection) Watch(topic string) {
	c.mu.Lock()
	c.topics[topic] = time.Now().UTC()
	c.mu.Unlock()
}

// Unwatch forgets a topic subscription.
func (c *Connection) Unwatch(topic string) {
	c.mu.Lock()
	delete(c.topics, topic)
	c.mu.Unlock()
}

// Watched returns the topics the client is currently subscribed to.
func (c *Connection) Watched() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.topics))
	for topic := range c.topics {
		out = append(out, topic)
	}
	return out
}

// ConnectionManager counts and tracks the live wire connections.
type ConnectionManager struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewConnectionManager creates an empty connection manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{conns: make(map[string]*Connection)}
}

// Add registers a connection.
func (cm *ConnectionManager) Add(conn *Connection) {
	cm.mu.Lock()
	cm.conns[conn.ID] = conn
	cm.mu.Unlock()
}

// Remove unregisters a connection.
func (cm *ConnectionManager) Remove(connID string) {
	cm.mu.Lock()
	delete(cm.conns, connID)
	cm.mu.Unlock()
}

// Count returns the number of live connections.
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.conns)
}
