package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "presence:"

// RedisTracker keeps one expiring key per member.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTracker connects to redisURL.
func NewRedisTracker(redisURL string, ttl time.Duration) (*RedisTracker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisTrackerWithClient(client, ttl), nil
}

// NewRedisTrackerWithClient creates a tracker from an existing client.
func NewRedisTrackerWithClient(client *redis.Client, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, ttl: ttl}
}

func (t *RedisTracker) key(userID string) string {
	return keyPrefix + userID
}

// Touch marks the member online for the tracker TTL.
func (t *RedisTracker) Touch(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal presence: %w", err)
	}
	if err := t.client.Set(ctx, t.key(entry.UserID), data, t.ttl).Err(); err != nil {
		return fmt.Errorf("save presence: %w", err)
	}
	return nil
}

// Online lists members whose heartbeat has not expired, sorted by id.
func (t *RedisTracker) Online(ctx context.Context) ([]Entry, error) {
	var keys []string
	iter := t.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan presence: %w", err)
	}
	if len(keys) == 0 {
		return []Entry{}, nil
	}

	values, err := t.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load presence: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue // expired between SCAN and MGET
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries, nil
}

// Close closes the Redis connection.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}

// Ping checks if Redis is reachable.
func (t *RedisTracker) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}
