package cloudsync

import (
	"context"

	"github.com/deojon/studio/types"
)

// EnvelopeLog is a durable append-only envelope store.
type EnvelopeLog interface {
	Append(ctx context.Context, msg types.SyncMessage) error
	Since(ctx context.Context, category types.SyncCategory, after int64) ([]types.SyncMessage, error)
	PruneBefore(ctx context.Context, ts int64) (int64, error)
}

// LogTransport publishes into an EnvelopeLog such as the Postgres
// sync_messages table.
type LogTransport struct {
	log EnvelopeLog
}

// NewLogTransport constructs a transport over l.
func NewLogTransport(l EnvelopeLog) *LogTransport {
	return &LogTransport{log: l}
}

func (t *LogTransport) Publish(ctx context.Context, msg types.SyncMessage) error {
	return t.log.Append(ctx, msg)
}

func (t *LogTransport) Fetch(ctx context.Context, category types.SyncCategory, after int64) ([]types.SyncMessage, error) {
	return t.log.Since(ctx, category, after)
}

func (t *LogTransport) Prune(ctx context.Context, before int64) (int64, error) {
	return t.log.PruneBefore(ctx, before)
}
