package rpc

import (
	"sync"
	"time"

	"github.com/poolworks/swapd/internal/core/op"
)

// SubscriptionType identifies a WebSocket stream
type SubscriptionType string

const (
	// SubOperations streams every applied operation
	SubOperations SubscriptionType = "operations"

	// SubPool streams the pool state after each applied operation
	SubPool SubscriptionType = "pool"
)

// OperationEvent is pushed to operations-stream subscribers after an
// operation is applied.
type OperationEvent struct {
	Type      string      `json:"type"`
	OpType    string      `json:"op_type"`
	Account   string      `json:"account"`
	Result    string      `json:"engine_result"`
	Outcome   *op.Outcome `json:"outcome,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewOperationEvent builds the event for an applied operation.
func NewOperationEvent(res op.ApplyResult, at time.Time) *OperationEvent {
	return &OperationEvent{
		Type:      "operationApplied",
		OpType:    string(res.Type),
		Account:   res.Account,
		Result:    res.Result.String(),
		Outcome:   res.Outcome,
		Timestamp: at,
	}
}

// PoolEvent is pushed to pool-stream subscribers after each applied
// operation.
type PoolEvent struct {
	Type string   `json:"type"`
	Pool PoolInfo `json:"pool"`
}

// NewPoolEvent builds the event for the post-operation pool state.
func NewPoolEvent(info PoolInfo) *PoolEvent {
	return &PoolEvent{Type: "poolState", Pool: info}
}

// Connection is one subscriber as seen by the SubscriptionManager.
type Connection struct {
	ID            string
	Subscriptions map[SubscriptionType]bool
	Accounts      map[string]bool
	SendChannel   chan []byte
	CloseChannel  chan struct{}
	mu            sync.RWMutex
}

// SubscriptionManager tracks connections and their streams.
type SubscriptionManager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

// NewSubscriptionManager creates an empty manager.
func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		connections: make(map[string]*Connection),
	}
}

// AddConnection registers a connection.
func (m *SubscriptionManager) AddConnection(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.ID] = conn
}

// RemoveConnection unregisters a connection.
func (m *SubscriptionManager) RemoveConnection(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, id)
}

// Subscribe adds streams and account filters to a connection.
func (m *SubscriptionManager) Subscribe(id string, streams []SubscriptionType, accounts []string) {
	m.mu.RLock()
	conn, ok := m.connections[id]
	m.mu.RUnlock()
	if !ok {
		return
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	for _, s := range streams {
		conn.Subscriptions[s] = true
	}
	for _, a := range accounts {
		conn.Accounts[a] = true
	}
}

// Unsubscribe removes streams and account filters from a connection.
func (m *SubscriptionManager) Unsubscribe(id string, streams []SubscriptionType, accounts []string) {
	m.mu.RLock()
	conn, ok := m.connections[id]
	m.mu.RUnlock()
	if !ok {
		return
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	for _, s := range streams {
		delete(conn.Subscriptions, s)
	}
	for _, a := range accounts {
		delete(conn.Accounts, a)
	}
}

// BroadcastToStream sends data to every subscriber of the stream.
func (m *SubscriptionManager) BroadcastToStream(stream SubscriptionType, data []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, conn := range m.connections {
		conn.mu.RLock()
		subscribed := conn.Subscriptions[stream]
		conn.mu.RUnlock()
		if !subscribed {
			continue
		}
		conn.send(data)
	}
}

// BroadcastToAccounts sends data to connections watching any of the
// given accounts.
func (m *SubscriptionManager) BroadcastToAccounts(data []byte, accounts []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, conn := range m.connections {
		conn.mu.RLock()
		watching := false
		for _, a := range accounts {
			if conn.Accounts[a] {
				watching = true
				break
			}
		}
		conn.mu.RUnlock()
		if watching {
			conn.send(data)
		}
	}
}

// GetSubscriberCount returns the number of subscribers for a stream.
func (m *SubscriptionManager) GetSubscriberCount(stream SubscriptionType) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, conn := range m.connections {
		conn.mu.RLock()
		if conn.Subscriptions[stream] {
			count++
		}
		conn.mu.RUnlock()
	}
	return count
}

// send delivers without blocking; a slow consumer loses the event
// rather than stalling the engine.
func (c *Connection) send(data []byte) {
	select {
	case c.SendChannel <- data:
	default:
	}
}
