package services

import (
	"context"
	"log"

	"github.com/deojon/studio/types"
)

// Broadcaster propagates a local mutation to other clients.
type Broadcaster interface {
	Broadcast(
		ctx context.Context,
		category types.SyncCategory,
		action types.SyncAction,
		targetID string,
		payload any,
		userID, userName string,
	) (types.SyncMessage, error)
}

// publish hands a committed mutation to b. Failures are logged and the
// local change stays in place.
func publish(ctx context.Context, b Broadcaster, actor types.User, category types.SyncCategory, action types.SyncAction, targetID string, payload any) {
	if b == nil {
		return
	}
	if _, err := b.Broadcast(ctx, category, action, targetID, payload, actor.ID, actor.Name); err != nil {
		log.Printf("[sync] broadcast %s %s %s failed: %v", category, action, targetID, err)
	}
}

type owned interface {
	OwnerID() string
}

// authorize rejects actors that did not author item.
func authorize[T owned](actorID string, item T) error {
	if actorID == "" || item.OwnerID() != actorID {
		return ErrUnauthorized
	}
	return nil
}
