package mq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryBroker is an in-process Backend. Each channel fans out to every
// active subscriber; messages published with no subscriber are dropped.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[string][]chan Message
	closed bool
}

// NewMemoryBroker constructs an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string][]chan Message)}
}

// Publish delivers data to the current subscribers of channel.
func (b *MemoryBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("memory channel is required")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return "", errors.New("memory broker closed")
	}
	subs := append([]chan Message(nil), b.subs[channel]...)
	b.mu.Unlock()

	msg := Message{ID: uuid.NewString(), Data: data, Attributes: attrs}
	for _, ch := range subs {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return msg.ID, nil
}

// Subscribe blocks delivering messages to handler until ctx is done.
func (b *MemoryBroker) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("memory channel is required")
	}

	ch := make(chan Message, 64)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("memory broker closed")
	}
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	defer b.unsubscribe(channel, ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-ch:
			// No redelivery in memory; a failed handler drops the message.
			_ = handler(ctx, msg)
		}
	}
}

// Subscribers returns the number of active subscribers of channel.
func (b *MemoryBroker) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

// Close rejects further publishes and subscriptions.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *MemoryBroker) unsubscribe(channel string, target chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[channel]
	for i, ch := range subs {
		if ch == target {
			b.subs[channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}
