package mq

import (
	"context"
	"testing"
	"time"
)

func waitForSubscribers(t *testing.T, b *MemoryBroker, channel string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.Subscribers(channel) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscribers on %s", n, channel)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemoryBrokerFansOut(t *testing.T) {
	broker := NewMemoryBroker()
	m := New(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 4)
	for i := 0; i < 2; i++ {
		go func() {
			_ = m.Subscribe(ctx, "studio.sync.TASK", func(ctx context.Context, msg Message) error {
				var body struct{ Text string }
				if err := msg.Decode(&body); err != nil {
					return err
				}
				received <- body.Text
				return nil
			})
		}()
	}
	waitForSubscribers(t, broker, "studio.sync.TASK", 2)

	id, err := m.PublishJSON(ctx, "studio.sync.TASK", map[string]string{"Text": "hello"}, map[string]string{"category": "TASK"})
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected message id")
	}

	for i := 0; i < 2; i++ {
		select {
		case text := <-received:
			if text != "hello" {
				t.Fatalf("expected hello, got %q", text)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d did not receive the message", i+1)
		}
	}
}

func TestMemoryBrokerSubscribeStopsOnCancel(t *testing.T) {
	broker := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- broker.Subscribe(ctx, "c", func(context.Context, Message) error { return nil })
	}()
	waitForSubscribers(t, broker, "c", 1)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
	if broker.Subscribers("c") != 0 {
		t.Fatal("expected subscriber to be removed")
	}
}

func TestMemoryBrokerRejectsAfterClose(t *testing.T) {
	broker := NewMemoryBroker()
	if err := broker.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := broker.Publish(context.Background(), "c", []byte("{}"), nil); err == nil {
		t.Fatal("expected publish after close to fail")
	}
	if _, err := broker.Publish(context.Background(), " ", []byte("{}"), nil); err == nil {
		t.Fatal("expected blank channel to fail")
	}
}
