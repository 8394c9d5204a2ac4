package rpc

import (
	"encoding/json"
	"log"
)

// EventPublisher publishes events to WebSocket subscribers. The node
// publishes through this interface so it never depends on the WebSocket
// implementation.
type EventPublisher interface {
	// PublishOperation publishes an applied operation to operations
	// stream subscribers and to subscribers watching the account.
	PublishOperation(event *OperationEvent)

	// PublishPoolState publishes the post-operation pool state to pool
	// stream subscribers.
	PublishPoolState(event *PoolEvent)

	// GetSubscriberCount returns the number of active subscribers for a
	// stream type.
	GetSubscriberCount(stream SubscriptionType) int
}

// Publisher implements EventPublisher using a SubscriptionManager
type Publisher struct {
	manager *SubscriptionManager
}

// NewPublisher creates a Publisher over the given subscription manager
func NewPublisher(manager *SubscriptionManager) *Publisher {
	return &Publisher{manager: manager}
}

func (p *Publisher) PublishOperation(event *OperationEvent) {
	if event == nil || p.manager == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal OperationEvent: %v", err)
		return
	}
	p.manager.BroadcastToStream(SubOperations, data)
	if event.Account != "" {
		p.manager.BroadcastToAccounts(data, []string{event.Account})
	}
}

func (p *Publisher) PublishPoolState(event *PoolEvent) {
	if event == nil || p.manager == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal PoolEvent: %v", err)
		return
	}
	p.manager.BroadcastToStream(SubPool, data)
}

func (p *Publisher) GetSubscriberCount(stream SubscriptionType) int {
	if p.manager == nil {
		return 0
	}
	return p.manager.GetSubscriberCount(stream)
}

// NoOpPublisher is a publisher that does nothing, for tests and for
// running without the WebSocket server.
type NoOpPublisher struct{}

func NewNoOpPublisher() *NoOpPublisher { return &NoOpPublisher{} }

func (p *NoOpPublisher) PublishOperation(event *OperationEvent)      {}
func (p *NoOpPublisher) PublishPoolState(event *PoolEvent)           {}
func (p *NoOpPublisher) GetSubscriberCount(s SubscriptionType) int   { return 0 }

var _ EventPublisher = (*Publisher)(nil)
var _ EventPublisher = (*NoOpPublisher)(nil)
