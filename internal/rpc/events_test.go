package rpc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolworks/swapd/internal/core/op"
)

func newTestConnection(id string) *Connection {
	return &Connection{
		ID:            id,
		Subscriptions: make(map[SubscriptionType]bool),
		Accounts:      make(map[string]bool),
		SendChannel:   make(chan []byte, 16),
		CloseChannel:  make(chan struct{}),
	}
}

func receive(t *testing.T, conn *Connection) []byte {
	t.Helper()
	select {
	case data := <-conn.SendChannel:
		return data
	case <-time.After(time.Second):
		t.Fatalf("connection %s received nothing", conn.ID)
		return nil
	}
}

func assertNothingReceived(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case data := <-conn.SendChannel:
		t.Fatalf("connection %s unexpectedly received %s", conn.ID, data)
	default:
	}
}

func TestBroadcastToStream(t *testing.T) {
	manager := NewSubscriptionManager()

	subscriber := newTestConnection("c1")
	bystander := newTestConnection("c2")
	manager.AddConnection(subscriber)
	manager.AddConnection(bystander)
	manager.Subscribe("c1", []SubscriptionType{SubOperations}, nil)

	manager.BroadcastToStream(SubOperations, []byte(`{"type":"test"}`))

	assert.JSONEq(t, `{"type":"test"}`, string(receive(t, subscriber)))
	assertNothingReceived(t, bystander)

	// Unsubscribing stops delivery.
	manager.Unsubscribe("c1", []SubscriptionType{SubOperations}, nil)
	manager.BroadcastToStream(SubOperations, []byte(`{}`))
	assertNothingReceived(t, subscriber)
}

func TestBroadcastToAccounts(t *testing.T) {
	manager := NewSubscriptionManager()

	watcher := newTestConnection("c1")
	other := newTestConnection("c2")
	manager.AddConnection(watcher)
	manager.AddConnection(other)
	manager.Subscribe("c1", nil, []string{"alice"})
	manager.Subscribe("c2", nil, []string{"bob"})

	manager.BroadcastToAccounts([]byte(`{"account":"alice"}`), []string{"alice"})

	receive(t, watcher)
	assertNothingReceived(t, other)
}

func TestSubscriberCount(t *testing.T) {
	manager := NewSubscriptionManager()
	assert.Zero(t, manager.GetSubscriberCount(SubPool))

	for _, id := range []string{"c1", "c2", "c3"} {
		manager.AddConnection(newTestConnection(id))
	}
	manager.Subscribe("c1", []SubscriptionType{SubPool}, nil)
	manager.Subscribe("c2", []SubscriptionType{SubPool, SubOperations}, nil)

	assert.Equal(t, 2, manager.GetSubscriberCount(SubPool))
	assert.Equal(t, 1, manager.GetSubscriberCount(SubOperations))

	manager.RemoveConnection("c2")
	assert.Equal(t, 1, manager.GetSubscriberCount(SubPool))
}

func TestSlowConsumerDoesNotBlockBroadcast(t *testing.T) {
	manager := NewSubscriptionManager()

	slow := newTestConnection("slow")
	slow.SendChannel = make(chan []byte) // unbuffered, nobody reading
	manager.AddConnection(slow)
	manager.Subscribe("slow", []SubscriptionType{SubOperations}, nil)

	done := make(chan struct{})
	go func() {
		manager.BroadcastToStream(SubOperations, []byte(`{}`))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow consumer")
	}
}

func TestPublisherRoutesOperationEvents(t *testing.T) {
	manager := NewSubscriptionManager()
	publisher := NewPublisher(manager)

	streamSub := newTestConnection("stream")
	accountSub := newTestConnection("account")
	manager.AddConnection(streamSub)
	manager.AddConnection(accountSub)
	manager.Subscribe("stream", []SubscriptionType{SubOperations}, nil)
	manager.Subscribe("account", nil, []string{"alice"})

	res := op.ApplyResult{
		Result:  op.ResultOK,
		Applied: true,
		Type:    op.TypeSwap,
		Account: "alice",
		Outcome: &op.Outcome{AmountIn: 100, AmountOut: 90, Fee: 1},
	}
	publisher.PublishOperation(NewOperationEvent(res, time.Unix(1700000000, 0).UTC()))

	var event OperationEvent
	require.NoError(t, json.Unmarshal(receive(t, streamSub), &event))
	assert.Equal(t, "operationApplied", event.Type)
	assert.Equal(t, "swap", event.OpType)
	assert.Equal(t, "alice", event.Account)
	require.NotNil(t, event.Outcome)
	assert.Equal(t, uint64(90), event.Outcome.AmountOut)

	// The account watcher gets the same payload.
	require.NoError(t, json.Unmarshal(receive(t, accountSub), &event))
	assert.Equal(t, "alice", event.Account)
}

func TestPublisherPoolStream(t *testing.T) {
	manager := NewSubscriptionManager()
	publisher := NewPublisher(manager)

	sub := newTestConnection("c1")
	manager.AddConnection(sub)
	manager.Subscribe("c1", []SubscriptionType{SubPool}, nil)

	publisher.PublishPoolState(NewPoolEvent(PoolInfo{ReserveA: 1099, ReserveB: 910}))

	var event PoolEvent
	require.NoError(t, json.Unmarshal(receive(t, sub), &event))
	assert.Equal(t, "poolState", event.Type)
	assert.Equal(t, uint64(1099), event.Pool.ReserveA)
}
