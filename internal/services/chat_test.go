package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

func TestChatSendAndMidnightReset(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Date(2024, 5, 1, 23, 58, 0, 0, time.Local)}
	rec := &recordingBroadcaster{}
	svc := NewChatService(store.NewCollection[types.ChatMessage](), WithClock(clk.Now), WithBroadcaster(rec))

	msg, err := svc.Send(ctx, alice, "good night")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Time != "23:58" || msg.SenderID != "alice" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if rec.last().Category != types.CategoryChat {
		t.Fatal("expected chat broadcast")
	}

	if svc.ResetIfNewDay(clk.Now().Add(time.Minute)) {
		t.Fatal("reset before midnight")
	}
	if !svc.ResetIfNewDay(time.Date(2024, 5, 2, 0, 0, 1, 0, time.Local)) {
		t.Fatal("expected reset after midnight")
	}
	if len(svc.Messages()) != 0 {
		t.Fatal("expected empty history after reset")
	}
	if svc.ResetIfNewDay(time.Date(2024, 5, 2, 0, 0, 11, 0, time.Local)) {
		t.Fatal("reset twice on the same day")
	}
}

func TestChatRejectsBlankMessage(t *testing.T) {
	svc := NewChatService(store.NewCollection[types.ChatMessage]())
	if _, err := svc.Send(context.Background(), alice, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Send(context.Background(), types.User{}, "hi"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestChatApplySyncIgnoresDuplicates(t *testing.T) {
	svc := NewChatService(store.NewCollection[types.ChatMessage]())
	remote := types.ChatMessage{ID: "c1", Text: "hello"}
	msg := types.SyncMessage{Category: types.CategoryChat, Action: types.ActionCreate, TargetID: "c1", Payload: types.SyncPayload{Chat: &remote}}

	for i := 0; i < 2; i++ {
		if err := svc.ApplySync(context.Background(), msg); err != nil {
			t.Fatalf("ApplySync failed: %v", err)
		}
	}
	if len(svc.Messages()) != 1 {
		t.Fatalf("expected 1 message, got %d", len(svc.Messages()))
	}
}
