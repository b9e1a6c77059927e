package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/deojon/studio/internal/mq"
	"github.com/deojon/studio/types"
)

const (
	channelPrefix     = "studio.sync."
	attrCategory      = "category"
	attrAction        = "action"
	maxBufferedPerCat = 1024
)

// QueueTransport publishes envelopes to one broker channel per category
// and buffers what its subscribers receive until the next Fetch.
//
// Fan-out depends on the broker: with Pub/Sub every node needs its own
// subscription suffix, with RabbitMQ every node consumes its own queue.
type QueueTransport struct {
	mq *mq.MQ

	mu      sync.Mutex
	buffers map[types.SyncCategory][]types.SyncMessage
	wg      sync.WaitGroup
}

// NewQueueTransport constructs a transport over broker.
func NewQueueTransport(broker *mq.MQ) *QueueTransport {
	return &QueueTransport{
		mq:      broker,
		buffers: make(map[types.SyncCategory][]types.SyncMessage),
	}
}

// Channel returns the broker channel of category.
func Channel(category types.SyncCategory) string {
	return channelPrefix + string(category)
}

// Start subscribes to every category until ctx is done.
func (q *QueueTransport) Start(ctx context.Context, categories []types.SyncCategory) {
	for _, category := range categories {
		q.wg.Add(1)
		go func(category types.SyncCategory) {
			defer q.wg.Done()
			err := q.mq.Subscribe(ctx, Channel(category), q.receive(category))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[sync] subscription %s ended: %v", Channel(category), err)
			}
		}(category)
	}
}

// Wait blocks until every subscription started by Start has returned.
func (q *QueueTransport) Wait() {
	q.wg.Wait()
}

func (q *QueueTransport) Publish(ctx context.Context, msg types.SyncMessage) error {
	attrs := map[string]string{
		attrCategory: string(msg.Category),
		attrAction:   string(msg.Action),
	}
	if _, err := q.mq.PublishJSON(ctx, Channel(msg.Category), msg, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", msg.ID, err)
	}
	return nil
}

// Fetch drains every buffered envelope of category. after is ignored:
// a late envelope older than one already fetched is still returned and
// ordering is left to the merger.
func (q *QueueTransport) Fetch(ctx context.Context, category types.SyncCategory, after int64) ([]types.SyncMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	buffered := q.buffers[category]
	delete(q.buffers, category)
	return buffered, nil
}

// Drains reports that Fetch consumes the buffer.
func (q *QueueTransport) Drains() bool { return true }

func (q *QueueTransport) receive(category types.SyncCategory) mq.Handler {
	return func(ctx context.Context, m mq.Message) error {
		var msg types.SyncMessage
		if err := m.Decode(&msg); err != nil {
			// Redelivering a malformed envelope cannot succeed; ack and drop it.
			log.Printf("[sync] drop malformed envelope %s on %s: %v", m.ID, Channel(category), err)
			return nil
		}

		q.mu.Lock()
		defer q.mu.Unlock()
		buf := append(q.buffers[category], msg)
		if len(buf) > maxBufferedPerCat {
			buf = buf[len(buf)-maxBufferedPerCat:]
		}
		q.buffers[category] = buf
		return nil
	}
}
