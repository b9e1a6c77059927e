package storage

import (
	"context"
	"fmt"

	"github.com/deojon/studio/config"
)

// Open constructs the backend selected by cfg.Backend and makes sure its
// bucket exists. The "none" backend keeps objects in memory.
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var backend ObjectStorage
	switch cfg.Backend {
	case "minio":
		client, err := NewMinioBucket(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := NewGCSBucket(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	case "", "none", "memory":
		backend = NewMemoryBackend("memory")
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	s := NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", s.Bucket(), err)
	}
	return s, nil
}
