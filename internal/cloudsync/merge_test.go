package cloudsync

import (
	"context"
	"errors"
	"testing"

	"github.com/deojon/studio/types"
)

func taskEnvelope(id string, ts int64, action types.SyncAction, text string) types.SyncMessage {
	msg := types.SyncMessage{
		ID:       id,
		Category: types.CategoryTask,
		Action:   action,
		TargetID: "t1",
		Meta:     types.SyncMeta{Timestamp: ts, UserID: "u1"},
	}
	if action != types.ActionDelete {
		msg.Payload.Task = &types.Task{ID: "t1", Text: text}
	}
	return msg
}

type recorder struct {
	applied []string
}

func (r *recorder) ApplySync(ctx context.Context, msg types.SyncMessage) error {
	r.applied = append(r.applied, msg.ID)
	return nil
}

func TestMergerOrdersAndDeduplicates(t *testing.T) {
	rec := &recorder{}
	m := NewMerger()
	m.Register(types.CategoryTask, rec)

	batch := []types.SyncMessage{
		taskEnvelope("m3", 300, types.ActionUpdate, "third"),
		taskEnvelope("m1", 100, types.ActionCreate, "first"),
		taskEnvelope("m2", 200, types.ActionUpdate, "second"),
		taskEnvelope("m1", 100, types.ActionCreate, "first"),
	}
	n, err := m.Apply(context.Background(), batch)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 applied, got %d", n)
	}
	want := []string{"m1", "m2", "m3"}
	for i, id := range want {
		if rec.applied[i] != id {
			t.Fatalf("expected order %v, got %v", want, rec.applied)
		}
	}

	if n, _ := m.Apply(context.Background(), batch); n != 0 {
		t.Fatalf("expected replay to apply nothing, got %d", n)
	}
}

func TestMergerDropsStaleEnvelope(t *testing.T) {
	rec := &recorder{}
	m := NewMerger()
	m.Register(types.CategoryTask, rec)
	ctx := context.Background()

	if _, err := m.Apply(ctx, []types.SyncMessage{taskEnvelope("late", 500, types.ActionDelete, "")}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	n, _ := m.Apply(ctx, []types.SyncMessage{taskEnvelope("early", 400, types.ActionUpdate, "stale")})
	if n != 0 {
		t.Fatalf("expected stale update to be dropped, applied %d", n)
	}
	if len(rec.applied) != 1 || rec.applied[0] != "late" {
		t.Fatalf("unexpected applied %v", rec.applied)
	}
}

func TestMergerSkipsOwnEnvelopes(t *testing.T) {
	rec := &recorder{}
	m := NewMerger()
	m.Register(types.CategoryTask, rec)

	own := taskEnvelope("own", 100, types.ActionCreate, "mine")
	m.MarkSeen(own)
	if n, _ := m.Apply(context.Background(), []types.SyncMessage{own}); n != 0 {
		t.Fatalf("expected echo to be skipped, applied %d", n)
	}
}

func TestMergerJoinsApplierErrors(t *testing.T) {
	boom := errors.New("boom")
	m := NewMerger()
	m.Register(types.CategoryTask, ApplierFunc(func(ctx context.Context, msg types.SyncMessage) error {
		if msg.ID == "bad" {
			return boom
		}
		return nil
	}))

	n, err := m.Apply(context.Background(), []types.SyncMessage{
		taskEnvelope("bad", 100, types.ActionUpdate, "x"),
		{ID: "ok", Category: types.CategoryTask, Action: types.ActionUpdate, TargetID: "t2", Meta: types.SyncMeta{Timestamp: 50}},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined boom, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the healthy envelope to apply, got %d", n)
	}
}

func TestMergerRetriesAfterTransientFailure(t *testing.T) {
	down := errors.New("redis down")
	calls := 0
	m := NewMerger()
	m.Register(types.CategoryTask, ApplierFunc(func(ctx context.Context, msg types.SyncMessage) error {
		calls++
		if calls == 1 {
			return down
		}
		return nil
	}))

	batch := []types.SyncMessage{taskEnvelope("m1", 100, types.ActionCreate, "a")}
	if _, err := m.Apply(context.Background(), batch); !errors.Is(err, down) {
		t.Fatalf("expected first apply to fail, got %v", err)
	}
	n, err := m.Apply(context.Background(), batch)
	if err != nil || n != 1 {
		t.Fatalf("expected redelivery to apply, got %d (%v)", n, err)
	}
	if n, _ := m.Apply(context.Background(), batch); n != 0 {
		t.Fatalf("expected third delivery to be a duplicate, got %d", n)
	}
}

func TestMergerDoesNotRetryMismatchedPayload(t *testing.T) {
	calls := 0
	m := NewMerger()
	m.Register(types.CategoryTask, ApplierFunc(func(ctx context.Context, msg types.SyncMessage) error {
		calls++
		return types.ErrPayloadMismatch
	}))

	batch := []types.SyncMessage{taskEnvelope("m1", 100, types.ActionCreate, "a")}
	_, _ = m.Apply(context.Background(), batch)
	_, _ = m.Apply(context.Background(), batch)
	if calls != 1 {
		t.Fatalf("expected a mismatched payload to be tried once, got %d", calls)
	}
}

func TestMergerForgetKeepsTargetVersions(t *testing.T) {
	rec := &recorder{}
	m := NewMerger()
	m.Register(types.CategoryTask, rec)

	_, _ = m.Apply(context.Background(), []types.SyncMessage{
		taskEnvelope("m1", 100, types.ActionCreate, "a"),
		taskEnvelope("m2", 200, types.ActionUpdate, "b"),
	})
	if dropped := m.Forget(150); dropped != 1 || m.Seen() != 1 {
		t.Fatalf("expected one forgotten id, dropped %d, %d left", dropped, m.Seen())
	}

	n, _ := m.Apply(context.Background(), []types.SyncMessage{taskEnvelope("m1", 100, types.ActionCreate, "a")})
	if n != 0 || len(rec.applied) != 2 {
		t.Fatalf("forgotten envelope rolled t1 back: applied %v", rec.applied)
	}
}
