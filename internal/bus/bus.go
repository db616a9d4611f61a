package bus

import (
	"context"
	"sync"
)

// MessageBus decouples transport channels from the dialog engine. Channels
// push user events to Inbound; the engine pushes replies to Outbound, which
// DispatchOutbound fans out to the subscribed channel senders.
type MessageBus struct {
	Inbound  chan Inbound
	Outbound chan Outbound

	mu      sync.RWMutex
	senders map[string]func(Outbound)
}

// NewMessageBus creates a bus with the given channel buffer size.
func NewMessageBus(bufSize int) *MessageBus {
	return &MessageBus{
		Inbound:  make(chan Inbound, bufSize),
		Outbound: make(chan Outbound, bufSize),
		senders:  make(map[string]func(Outbound)),
	}
}

// SubscribeOutbound registers the sender for one channel name. A later
// subscription for the same name replaces the earlier one.
func (b *MessageBus) SubscribeOutbound(channel string, fn func(Outbound)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.senders[channel] = fn
}

// DispatchOutbound delivers outbound replies to their channel senders until
// the context is cancelled. Replies for unsubscribed channels are dropped.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			fn := b.senders[msg.Channel]
			b.mu.RUnlock()
			if fn != nil {
				fn(msg)
			}
		case <-ctx.Done():
			return
		}
	}
}
