// Package presence tracks which members sent a heartbeat recently.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/deojon/studio/types"
)

// Entry is the last heartbeat seen from one member.
type Entry struct {
	UserID   string    `json:"userId"`
	UserName string    `json:"userName"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}

// Tracker records heartbeats and lists members that are still online.
type Tracker interface {
	Touch(ctx context.Context, entry Entry) error
	Online(ctx context.Context) ([]Entry, error)
}

// TTLFor returns how long a heartbeat keeps a member online: three
// missed heartbeats mark the member offline.
func TTLFor(interval time.Duration) time.Duration {
	return 3 * interval
}

// Applier feeds HEARTBEAT envelopes into a Tracker.
type Applier struct {
	Tracker Tracker
}

func (a Applier) ApplySync(ctx context.Context, msg types.SyncMessage) error {
	if msg.Category != types.CategoryHeartbeat {
		return nil
	}
	status := "online"
	if msg.Payload.Presence != nil && msg.Payload.Presence.Status != "" {
		status = msg.Payload.Presence.Status
	}
	userID := msg.Meta.UserID
	if userID == "" {
		userID = msg.TargetID
	}
	if userID == "" {
		return fmt.Errorf("heartbeat %s has no user", msg.ID)
	}
	return a.Tracker.Touch(ctx, Entry{
		UserID:   userID,
		UserName: msg.Meta.UserName,
		Status:   status,
		LastSeen: msg.Meta.Time(),
	})
}
