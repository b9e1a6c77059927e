package cloudsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deojon/studio/types"
)

// blockingTransport holds Fetch until release is closed.
type blockingTransport struct {
	*MemoryTransport
	entered chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Fetch(ctx context.Context, category types.SyncCategory, after int64) ([]types.SyncMessage, error) {
	close(b.entered)
	<-b.release
	return b.MemoryTransport.Fetch(ctx, category, after)
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestFetchUpdatesAdvancesWatermark(t *testing.T) {
	ctx := context.Background()
	transport := NewMemoryTransport()
	sender := NewService(transport, WithClock(fixedClock(1000)))
	receiver := NewService(transport)

	if _, err := sender.Broadcast(ctx, types.CategoryTask, types.ActionCreate, "t1", types.Task{ID: "t1"}, "u1", "Kim"); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	first, err := receiver.FetchUpdates(ctx, types.CategoryTask)
	if err != nil {
		t.Fatalf("FetchUpdates failed: %v", err)
	}
	if len(first) != 1 || receiver.LastFetched(types.CategoryTask) != 1000 {
		t.Fatalf("expected 1 envelope and watermark 1000, got %d and %d", len(first), receiver.LastFetched(types.CategoryTask))
	}

	again, _ := receiver.FetchUpdates(ctx, types.CategoryTask)
	if len(again) != 0 {
		t.Fatalf("expected no envelopes after watermark, got %d", len(again))
	}

	other, _ := receiver.FetchUpdates(ctx, types.CategoryBoard)
	if len(other) != 0 {
		t.Fatal("expected categories to be independent")
	}

	receiver.Rewind(types.CategoryTask, 0)
	replay, _ := receiver.FetchUpdates(ctx, types.CategoryTask)
	if len(replay) != 1 {
		t.Fatalf("expected replay after rewind, got %d", len(replay))
	}
}

func TestFetchUpdatesRejectsOverlappingPoll(t *testing.T) {
	transport := &blockingTransport{
		MemoryTransport: NewMemoryTransport(),
		entered:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	service := NewService(transport)

	done := make(chan error, 1)
	go func() {
		_, err := service.FetchUpdates(context.Background(), types.CategoryChat)
		done <- err
	}()
	<-transport.entered

	if _, err := service.FetchUpdates(context.Background(), types.CategoryChat); !errors.Is(err, ErrPollInFlight) {
		t.Fatalf("expected ErrPollInFlight, got %v", err)
	}

	close(transport.release)
	if err := <-done; err != nil {
		t.Fatalf("first poll failed: %v", err)
	}
}
