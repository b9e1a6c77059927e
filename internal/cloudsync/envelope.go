package cloudsync

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deojon/studio/types"
	"github.com/google/uuid"
)

// NewMessage builds an envelope stamped with now. The id combines the
// millisecond timestamp with a random suffix so that replays can be
// deduplicated by id.
func NewMessage(
	category types.SyncCategory,
	action types.SyncAction,
	targetID string,
	payload any,
	userID, userName string,
	now time.Time,
) (types.SyncMessage, error) {
	if !category.Valid() {
		return types.SyncMessage{}, fmt.Errorf("unknown sync category %q", category)
	}
	if !action.Valid() {
		return types.SyncMessage{}, fmt.Errorf("unknown sync action %q", action)
	}

	p, err := types.PayloadFor(category, payload)
	if err != nil {
		return types.SyncMessage{}, err
	}

	ts := now.UnixMilli()
	return types.SyncMessage{
		ID:       fmt.Sprintf("msg-%d-%s", ts, strings.ReplaceAll(uuid.NewString(), "-", "")[:10]),
		Category: category,
		Action:   action,
		TargetID: targetID,
		Payload:  p,
		Meta: types.SyncMeta{
			Timestamp: ts,
			UserID:    userID,
			UserName:  userName,
		},
	}, nil
}

// ObjectName returns the file name of msg in a bucket:
// {category}_{action}_{timestamp}_{userId}.json
func ObjectName(msg types.SyncMessage) string {
	return fmt.Sprintf("%s_%s_%d_%s.json", msg.Category, msg.Action, msg.Meta.Timestamp, msg.Meta.UserID)
}

// ObjectRef is the metadata encoded in an envelope object name.
type ObjectRef struct {
	Category  types.SyncCategory
	Action    types.SyncAction
	Timestamp int64
	UserID    string
}

// ParseObjectName decodes a name produced by ObjectName. User ids may
// themselves contain underscores.
func ParseObjectName(name string) (ObjectRef, bool) {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return ObjectRef{}, false
	}

	parts := strings.SplitN(base, "_", 4)
	if len(parts) != 4 {
		return ObjectRef{}, false
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return ObjectRef{}, false
	}

	ref := ObjectRef{
		Category:  types.SyncCategory(parts[0]),
		Action:    types.SyncAction(parts[1]),
		Timestamp: ts,
		UserID:    parts[3],
	}
	if !ref.Category.Valid() || !ref.Action.Valid() {
		return ObjectRef{}, false
	}
	return ref, true
}
