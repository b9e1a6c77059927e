package cloudsync

import (
	"strings"
	"testing"
	"time"

	"github.com/deojon/studio/types"
)

func TestNewMessageStampsMeta(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	msg, err := NewMessage(types.CategoryTask, types.ActionCreate, "t1", types.Task{ID: "t1"}, "u1", "Kim", now)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if !strings.HasPrefix(msg.ID, "msg-1700000000123-") {
		t.Fatalf("unexpected id %q", msg.ID)
	}
	if msg.Meta.Timestamp != now.UnixMilli() || msg.Meta.UserID != "u1" {
		t.Fatalf("unexpected meta %+v", msg.Meta)
	}
	if msg.Payload.Task == nil {
		t.Fatal("expected task payload")
	}

	if _, err := NewMessage(types.CategoryTask, "ARCHIVE", "t1", nil, "u1", "Kim", now); err == nil {
		t.Fatal("expected unknown action to fail")
	}
}

func TestObjectNameRoundTrip(t *testing.T) {
	msg := types.SyncMessage{
		Category: types.CategoryBoard,
		Action:   types.ActionUpdate,
		Meta:     types.SyncMeta{Timestamp: 42, UserID: "user_with_underscores"},
	}
	name := ObjectName(msg)
	if name != "BOARD_UPDATE_42_user_with_underscores.json" {
		t.Fatalf("unexpected object name %q", name)
	}

	ref, ok := ParseObjectName("sync/" + name)
	if !ok {
		t.Fatalf("failed to parse %q", name)
	}
	if ref.Category != types.CategoryBoard || ref.Action != types.ActionUpdate || ref.Timestamp != 42 || ref.UserID != "user_with_underscores" {
		t.Fatalf("unexpected ref %+v", ref)
	}
}

func TestParseObjectNameRejectsForeignKeys(t *testing.T) {
	for _, name := range []string{
		"README.md",
		"TASK_CREATE_x_u1.json",
		"NOPE_CREATE_1_u1.json",
		"TASK_CREATE_1.json",
	} {
		if _, ok := ParseObjectName(name); ok {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
