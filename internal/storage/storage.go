// Package storage keeps sync envelopes as JSON objects in a bucket.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

const jsonContentType = "application/json"

// ErrObjectNotFound is returned for keys that are not in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage is implemented by the MinIO, GCS and in-memory buckets.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Bucket() string
}

// Storage adds JSON encoding and housekeeping on top of a backend.
type Storage struct {
	backend ObjectStorage
}

func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// PutJSON encodes v and stores it under key.
func (s *Storage) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), jsonContentType)
}

// GetJSON decodes the object under key into v.
func (s *Storage) GetJSON(ctx context.Context, key string, v any) error {
	rc, err := s.backend.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.backend.Stat(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns the objects whose key starts with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	return s.backend.List(ctx, prefix)
}

// DeleteMatching removes the objects under prefix accepted by match and
// returns how many were removed. It stops at the first failed delete.
func (s *Storage) DeleteMatching(ctx context.Context, prefix string, match func(ObjectInfo) bool) (int, error) {
	objects, err := s.backend.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, obj := range objects {
		if !match(obj) {
			continue
		}
		if err := s.backend.Delete(ctx, obj.Key); err != nil {
			return removed, fmt.Errorf("delete %s: %w", obj.Key, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// Close releases the backend client when it holds one.
func (s *Storage) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
