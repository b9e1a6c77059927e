package cloudsync

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/deojon/studio/internal/storage"
	"github.com/deojon/studio/types"
)

// BucketTransport stores every envelope as one JSON object in an object
// storage bucket and polls the bucket listing for newer objects.
type BucketTransport struct {
	storage *storage.Storage
	prefix  string
}

// NewBucketTransport constructs a transport writing under prefix.
func NewBucketTransport(s *storage.Storage, prefix string) *BucketTransport {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BucketTransport{storage: s, prefix: prefix}
}

// Publish uploads msg as {prefix}{category}_{action}_{timestamp}_{userId}.json.
// Two envelopes from one user in the same millisecond would collide, so the
// envelope id is appended before the extension in that case.
func (b *BucketTransport) Publish(ctx context.Context, msg types.SyncMessage) error {
	key := b.prefix + ObjectName(msg)
	taken, err := b.storage.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("stat %s: %w", key, err)
	}
	if taken {
		key = strings.TrimSuffix(key, ".json") + "_" + msg.ID + ".json"
	}
	if err := b.storage.PutJSON(ctx, key, msg); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Fetch lists the prefix, keeps the objects of category whose name
// timestamp is newer than after, and downloads them oldest first.
func (b *BucketTransport) Fetch(ctx context.Context, category types.SyncCategory, after int64) ([]types.SyncMessage, error) {
	objects, err := b.storage.List(ctx, b.prefix+string(category)+"_")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", b.storage.Bucket(), err)
	}

	type candidate struct {
		key string
		ts  int64
	}
	var newer []candidate
	for _, obj := range objects {
		ref, ok := ParseObjectName(obj.Key)
		if !ok || ref.Category != category || ref.Timestamp <= after {
			continue
		}
		newer = append(newer, candidate{key: obj.Key, ts: ref.Timestamp})
	}
	sort.SliceStable(newer, func(i, j int) bool { return newer[i].ts < newer[j].ts })

	messages := make([]types.SyncMessage, 0, len(newer))
	for _, c := range newer {
		var msg types.SyncMessage
		if err := b.storage.GetJSON(ctx, c.key, &msg); err != nil {
			// One corrupt object must not block the rest of the category.
			log.Printf("[sync] skip %s: %v", c.key, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Prune deletes the envelope objects whose name timestamp is older than before.
func (b *BucketTransport) Prune(ctx context.Context, before int64) (int64, error) {
	removed, err := b.storage.DeleteMatching(ctx, b.prefix, func(obj storage.ObjectInfo) bool {
		ref, ok := ParseObjectName(obj.Key)
		return ok && ref.Timestamp < before
	})
	return int64(removed), err
}
