package cloudsync

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/deojon/studio/internal/mq"
	"github.com/deojon/studio/internal/storage"
	"github.com/deojon/studio/types"
)

func TestBucketTransportPublishAndFetch(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend("studio-sync")
	transport := NewBucketTransport(storage.NewStorage(backend), "sync")
	service := NewService(transport, WithClock(fixedClock(2000)))

	first, err := service.Broadcast(ctx, types.CategoryBoard, types.ActionCreate, "b1", types.BoardPost{ID: "b1", Title: "hello"}, "u1", "Kim")
	if err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	// Same user, same millisecond: must not overwrite the first object.
	if _, err := service.Broadcast(ctx, types.CategoryBoard, types.ActionCreate, "b2", types.BoardPost{ID: "b2"}, "u1", "Kim"); err != nil {
		t.Fatalf("second Broadcast failed: %v", err)
	}

	objects, err := backend.List(ctx, "sync/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objects))
	}
	if objects[0].Key != "sync/BOARD_CREATE_2000_u1.json" && objects[1].Key != "sync/BOARD_CREATE_2000_u1.json" {
		t.Fatalf("expected canonical object name, got %v", objects)
	}

	msgs, err := transport.Fetch(ctx, types.CategoryBoard, 0)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(msgs))
	}
	found := false
	for _, msg := range msgs {
		if msg.ID == first.ID && msg.Payload.Board != nil && msg.Payload.Board.Title == "hello" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the first envelope to round trip through the bucket")
	}

	if newer, _ := transport.Fetch(ctx, types.CategoryBoard, 2000); len(newer) != 0 {
		t.Fatalf("expected nothing after watermark, got %d", len(newer))
	}
}

func TestBucketTransportSkipsCorruptObject(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend("studio-sync")
	transport := NewBucketTransport(storage.NewStorage(backend), "")

	junk := []byte("not json")
	if err := backend.Put(ctx, "TASK_CREATE_10_u1.json", bytes.NewReader(junk), int64(len(junk)), "application/json"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	service := NewService(transport, WithClock(fixedClock(20)))
	if _, err := service.Broadcast(ctx, types.CategoryTask, types.ActionDelete, "t1", nil, "u2", "Lee"); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	msgs, err := transport.Fetch(ctx, types.CategoryTask, 0)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].TargetID != "t1" {
		t.Fatalf("expected only the valid envelope, got %+v", msgs)
	}
}

func TestBucketTransportPrune(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend("studio-sync")
	transport := NewBucketTransport(storage.NewStorage(backend), "json")

	for _, ts := range []int64{100, 200, 300} {
		service := NewService(transport, WithClock(fixedClock(ts)))
		if _, err := service.Heartbeat(ctx, "u1", "Kim"); err != nil {
			t.Fatalf("Heartbeat failed: %v", err)
		}
	}
	removed, err := transport.Prune(ctx, 250)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 objects removed, got %d", removed)
	}
	left, _ := transport.Fetch(ctx, types.CategoryHeartbeat, 0)
	if len(left) != 1 || left[0].Meta.Timestamp != 300 {
		t.Fatalf("unexpected remaining envelopes %+v", left)
	}
}

func TestMemoryTransportPrune(t *testing.T) {
	ctx := context.Background()
	transport := NewMemoryTransport()
	var _ Pruner = transport

	for _, ts := range []int64{10, 20} {
		_, _ = NewService(transport, WithClock(fixedClock(ts))).Heartbeat(ctx, "u1", "Kim")
	}
	if removed, _ := transport.Prune(ctx, 20); removed != 1 || len(transport.Messages()) != 1 {
		t.Fatalf("expected one envelope pruned, got %d left", len(transport.Messages()))
	}
}

func TestQueueTransportBuffersUntilFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	broker := mq.NewMemoryBroker()
	transport := NewQueueTransport(mq.New(broker))
	transport.Start(ctx, []types.SyncCategory{types.CategoryChat})

	deadline := time.Now().Add(2 * time.Second)
	for broker.Subscribers(Channel(types.CategoryChat)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	service := NewService(transport, WithClock(fixedClock(500)))
	if _, err := service.Broadcast(ctx, types.CategoryChat, types.ActionCreate, "c1", types.ChatMessage{ID: "c1", Text: "hi"}, "u1", "Kim"); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	var msgs []types.SyncMessage
	for len(msgs) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("envelope never reached the buffer")
		}
		var err error
		msgs, err = service.FetchUpdates(ctx, types.CategoryChat)
		if err != nil {
			t.Fatalf("FetchUpdates failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if msgs[0].Payload.Chat == nil || msgs[0].Payload.Chat.Text != "hi" {
		t.Fatalf("unexpected envelope %+v", msgs[0])
	}

	cancel()
	transport.Wait()
}

func TestQueueTransportKeepsLateEnvelopes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broker := mq.NewMemoryBroker()
	transport := NewQueueTransport(mq.New(broker))
	transport.Start(ctx, []types.SyncCategory{types.CategoryTask})

	deadline := time.Now().Add(2 * time.Second)
	for broker.Subscribers(Channel(types.CategoryTask)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	reader := NewService(transport)
	poll := func(want string) []types.SyncMessage {
		t.Helper()
		for {
			msgs, err := reader.FetchUpdates(ctx, types.CategoryTask)
			if err != nil {
				t.Fatalf("FetchUpdates failed: %v", err)
			}
			if len(msgs) > 0 {
				return msgs
			}
			if time.Now().After(deadline) {
				t.Fatalf("envelope for %s never fetched", want)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	fast := NewService(transport, WithClock(fixedClock(2000)))
	if _, err := fast.Broadcast(ctx, types.CategoryTask, types.ActionCreate, "t2", taskPayload("t2"), "u2", "Lee"); err != nil {
		t.Fatalf("Broadcast t2 failed: %v", err)
	}
	if first := poll("t2"); len(first) != 1 || first[0].TargetID != "t2" {
		t.Fatalf("unexpected first poll %+v", first)
	}

	slow := NewService(transport, WithClock(fixedClock(1000)))
	if _, err := slow.Broadcast(ctx, types.CategoryTask, types.ActionCreate, "t1", taskPayload("t1"), "u1", "Kim"); err != nil {
		t.Fatalf("Broadcast t1 failed: %v", err)
	}
	second := poll("t1")
	if len(second) != 1 || second[0].TargetID != "t1" {
		t.Fatalf("late envelope for t1 was dropped, got %+v", second)
	}
	if reader.LastFetched(types.CategoryTask) != 2000 {
		t.Fatalf("watermark moved backwards to %d", reader.LastFetched(types.CategoryTask))
	}

	cancel()
	transport.Wait()
}

func taskPayload(id string) types.Task {
	return types.Task{ID: id, Text: "task " + id, AuthorID: "u1", IsPublic: true}
}

func TestChannelNaming(t *testing.T) {
	if got := Channel(types.CategoryHeartbeat); !strings.HasPrefix(got, "studio.sync.") || !strings.HasSuffix(got, "HEARTBEAT") {
		t.Fatalf("unexpected channel %q", got)
	}
}
